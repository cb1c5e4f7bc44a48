// Package cmd holds the threadfit command tree.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/threadfit/backend/internal/cli/api"
	"github.com/threadfit/backend/internal/cli/config"
	"github.com/threadfit/backend/internal/cli/logger"
	"github.com/threadfit/backend/internal/cli/output"
)

const version = "0.1.0"

var (
	verbose    bool
	configPath string
	outputFmt  string
	serverURL  string

	printer = output.New(color.Output, output.FormatText)
)

var rootCmd = &cobra.Command{
	Use:   "threadfit",
	Short: "ThreadFit CLI - synthetic social data on demand",
	Long: `threadfit talks to a ThreadFit server: log in, stream generation
runs live, pull whole batches at once, and browse what earlier runs produced.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(configPath); err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}
		logger.Init(verbose)

		if !output.ValidateFormat(outputFmt) {
			return fmt.Errorf("invalid --output %q (want text, table or json)", outputFmt)
		}
		printer = output.New(cmd.OutOrStdout(), output.ParseFormat(outputFmt))

		if serverURL != "" {
			config.Set("api.base_url", serverURL)
		}
		return nil
	},
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		printer.Error("%v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.config/threadfit/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "Output format: text, table, json")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "ThreadFit server URL (overrides api.base_url)")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(batchesCmd)
	rootCmd.AddCommand(dataCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(versionCmd)
}

// newClient builds an API client carrying the saved session, if any.
func newClient() (*api.Client, error) {
	c := api.New(config.GetString("api.base_url"), config.Timeout(), config.GetString("api.cookie_name"))

	creds, err := config.LoadCredentials()
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}
	if creds.IsValid() {
		c.SetToken(creds.Token)
	} else if creds != nil {
		logger.Debug("Saved session expired", "expires_at", creds.ExpiresAt)
	}
	return c, nil
}

// authedClient is newClient for commands that need a session.
func authedClient() (*api.Client, error) {
	c, err := newClient()
	if err != nil {
		return nil, err
	}
	if c.Token() == "" {
		return nil, fmt.Errorf("not logged in (run `threadfit auth login`)")
	}
	return c, nil
}

// explain adds a hint to errors the user can act on.
func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case api.IsSessionLimit(err):
		return fmt.Errorf("%w\nclose another `threadfit generate` first", err)
	case api.IsUnauthorized(err):
		return fmt.Errorf("%w\nyour session may have expired; run `threadfit auth login`", err)
	case api.IsRateLimited(err):
		return fmt.Errorf("%w\nthe server is rate limiting you; try again shortly", err)
	default:
		return err
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "threadfit CLI v%s\n", version)
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the server is up",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		status, err := c.Health(cmd.Context())
		if status != nil {
			_ = printer.Record("Health", status)
		}
		return err
	},
}
