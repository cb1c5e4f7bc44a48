package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/threadfit/backend/internal/cli/api"
	"github.com/threadfit/backend/internal/cli/config"
	"github.com/threadfit/backend/internal/cli/logger"
	"github.com/threadfit/backend/internal/cli/output"
)

var (
	authEmail    string
	authPassword string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  "Manage your ThreadFit account and saved session",
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new ThreadFit account",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := promptCredentials(true)
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		user, err := c.Register(cmd.Context(), email, password)
		if err != nil {
			return err
		}
		printer.Success("Account created for %s", user.Email)
		printer.Info("Log in with `threadfit auth login`")
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and save the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := promptCredentials(false)
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		session, err := c.Login(cmd.Context(), email, password)
		if err != nil {
			return err
		}
		me, err := c.Me(cmd.Context())
		if err != nil {
			return err
		}

		creds := &config.Credentials{
			Token:      session.Token,
			CookieName: c.CookieName(),
			ExpiresAt:  session.ExpiresAt,
			UserID:     me.ID,
			Email:      me.Email,
		}
		if err := config.SaveCredentials(creds); err != nil {
			return fmt.Errorf("saving credentials: %w", err)
		}
		logger.Info("Logged in", "email", me.Email)
		printer.Success("Logged in as %s", me.Email)
		if !session.ExpiresAt.IsZero() {
			printer.Info("Session expires %s", session.ExpiresAt.Local().Format(time.RFC1123))
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if c.Token() != "" {
			if err := c.Logout(cmd.Context()); err != nil {
				printer.Warning("server logout failed: %v", err)
			}
		}
		if err := config.DeleteCredentials(); err != nil {
			return err
		}
		printer.Success("Logged out")
		return nil
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Display the logged-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := authedClient()
		if err != nil {
			return err
		}
		user, err := c.Me(cmd.Context())
		if err != nil {
			return explain(err)
		}
		return printer.Record("User", userRecord(user))
	},
}

func userRecord(u *api.User) map[string]any {
	return map[string]any{
		"id":           u.ID,
		"email":        u.Email,
		"is_active":    u.IsActive,
		"is_superuser": u.IsSuperuser,
		"is_verified":  u.IsVerified,
		"created_at":   u.CreatedAt.Format(time.RFC3339),
	}
}

func promptCredentials(confirm bool) (string, string, error) {
	p := output.NewPrompter(os.Stderr)

	email := authEmail
	if email == "" {
		var err error
		if email, err = p.String("Email: "); err != nil {
			return "", "", err
		}
	}

	password := authPassword
	if password == "" {
		var err error
		if password, err = p.Password("Password: "); err != nil {
			return "", "", err
		}
		if confirm {
			again, err := p.Password("Confirm password: ")
			if err != nil {
				return "", "", err
			}
			if again != password {
				return "", "", fmt.Errorf("passwords do not match")
			}
		}
	}
	return email, password, nil
}

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "Account email (prompted when empty)")
		c.Flags().StringVar(&authPassword, "password", "", "Account password (prompted when empty)")
	}

	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(meCmd)
}
