package cmd

import (
	"github.com/spf13/cobra"
	"github.com/threadfit/backend/internal/cli/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change CLI settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		record := map[string]any{
			"config_dir": config.GetConfigDir(),
			"log.file":   config.GetString("log.file"),
		}
		for _, key := range []string{"api.base_url", "api.timeout", "api.cookie_name", "generate.speed", "output.format", "log.level"} {
			record[key] = config.GetString(key)
		}
		if creds, err := config.LoadCredentials(); err == nil && creds.IsValid() {
			record["logged_in_as"] = creds.Email
		}
		return printer.Record("Config", record)
	},
}

var configSetCmd = &cobra.Command{
	Use:     "set <key> <value>",
	Short:   "Persist a setting to the config file",
	Example: "  threadfit config set api.base_url https://threadfit.example",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Set(args[0], args[1])
		if err := config.Save(); err != nil {
			return err
		}
		printer.Success("%s = %s", args[0], args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
