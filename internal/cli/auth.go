package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pondok-digital/portal/internal/services"
)

func (a *app) newLoginCommand() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as a portal admin",
		Long: `Sign in with an admin account. The session cookies are stored in the
session file (PORTAL_SESSION_FILE) and reused by the other commands.`,
		Example: `  portalctl login --username admin
  portalctl login --username admin --password secret123`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				if !a.opts.Interactive {
					return errors.New("--password is required when not running in a terminal")
				}
				var err error
				password, err = promptSecret(a.opts.In, a.opts.Err, "Password")
				if err != nil {
					return err
				}
			}

			user, err := a.services.Auth.Login(cmd.Context(), services.LoginInput{
				Username: strings.TrimSpace(username),
				Password: password,
			})
			if err != nil {
				return err
			}

			a.session.User = user
			a.success(fmt.Sprintf("Signed in as %s (%s)", user.Username, user.Role))
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "admin password, prompted for when omitted")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func (a *app) newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.session.LoggedIn() {
				fmt.Fprintln(a.opts.Out, "Not logged in.")
				return nil
			}

			// the local session is removed even when the backend call fails
			logoutErr := a.services.Auth.Logout(cmd.Context())
			if err := a.clearSession(); err != nil {
				return err
			}
			if logoutErr != nil {
				return logoutErr
			}
			a.success("Signed out")
			return nil
		},
	}
}

func (a *app) newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.session.LoggedIn() {
				fmt.Fprintln(a.opts.Out, "Not logged in.")
				return nil
			}
			u := a.session.User
			fmt.Fprintf(a.opts.Out, "%s (%s) on %s\n", u.Username, u.Role, a.session.Origin)
			return nil
		},
	}
}

func (a *app) newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the dashboard totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			stats, err := a.services.Dashboard.Stats(cmd.Context())
			if err != nil {
				return err
			}
			printTable(a.opts.Out, []string{"Santri", "Articles", "Admins"}, [][]string{{
				strconv.FormatInt(stats.TotalSantri, 10),
				strconv.FormatInt(stats.TotalArticles, 10),
				strconv.FormatInt(stats.TotalUsers, 10),
			}})
			return nil
		},
	}
}

func (a *app) newContactCommand() *cobra.Command {
	var in services.MessageInput

	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a message through the public contact form",
		Example: `  portalctl contact --name "Ahmad" --email ahmad@example.com \
    --subject "Pendaftaran" --message "Kapan pendaftaran santri baru dibuka?"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.services.Contact.Submit(cmd.Context(), in); err != nil {
				return err
			}
			a.success("Message sent")
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "sender name")
	cmd.Flags().StringVar(&in.Email, "email", "", "sender email")
	cmd.Flags().StringVar(&in.Subject, "subject", "", "message subject")
	cmd.Flags().StringVar(&in.Message, "message", "", "message body")

	return cmd
}
