package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"portal-client/internal/domain"
	"portal-client/internal/output"
	"portal-client/internal/usecase"
)

func newLoginCmd(r *runner) *cobra.Command {
	var (
		email         string
		password      string
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session cookie",
		Long: `Sign in with an email and password. The session cookie is kept in the
cookie file, so later commands run as the signed-in user.

Examples:
  portalctl login --email you@example.com --password-stdin < pw.txt
  portalctl login --email you@example.com --password 'secret'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := secret(cmd, "password", password, passwordStdin)
			if err != nil {
				return err
			}
			a, err := r.app()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := a.Login.Execute(ctx, usecase.LoginInput{Email: email, Password: pw}); err != nil {
				return err
			}
			return r.printSession(a.Session.Resolve(ctx))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget stored cookies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.app()
			if err != nil {
				return err
			}
			_ = a.Logout.Execute(cmd.Context())
			return r.jar.Clear()
		},
	}
}

func newRegisterCmd(r *runner) *cobra.Command {
	var (
		email         string
		password      string
		confirm       string
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := secret(cmd, "password", password, passwordStdin)
			if err != nil {
				return err
			}
			if confirm == "" {
				confirm = pw
			}
			a, err := r.app()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			in := usecase.RegisterInput{Email: email, Password: pw, ConfirmPassword: confirm}
			if err := a.Register.Execute(ctx, in); err != nil {
				return err
			}
			return r.printSession(a.Session.Resolve(ctx))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&confirm, "confirm", "", "password confirmation (defaults to --password)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newWhoamiCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.app()
			if err != nil {
				return err
			}
			state := a.Session.Resolve(cmd.Context())
			if !state.IsAuthenticated() {
				return output.NotSignedIn()
			}
			return r.printSession(state)
		},
	}
}

func newCheckCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Ask the backend whether the stored session is still valid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.app()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			state := a.Session.Resolve(ctx)
			if !state.IsAuthenticated() {
				return output.NotSignedIn()
			}
			if err := a.AuthChecker.Check(ctx); err != nil {
				return err
			}
			if r.flags.jsonOut {
				return printJSON(r.printer.Out(), map[string]any{"authenticated": true, "user": state.User})
			}
			r.printer.Success(fmt.Sprintf("Session valid for %s", state.User.Email))
			return nil
		},
	}
}

func newWatchCmd(r *runner) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep re-checking the session and print every state change",
		Long: `Re-verify the session on an interval until interrupted. A rejected session
is reported once and the command keeps waiting for a new sign-in.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval > 0 {
				r.cfg.AuthCheckInterval = interval
			}
			a, err := r.app()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a.Session.Resolve(ctx)

			w := cmd.OutOrStdout()
			stop := a.Session.Watch(func(st domain.SessionState) {
				line := fmt.Sprintf("%s %s", time.Now().Format(time.TimeOnly), r.printer.StatusBadge(st.Status))
				if st.User != nil {
					line += " " + st.User.Email
				}
				fmt.Fprintln(w, line)
			})
			defer stop()

			err = a.AuthChecker.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "check interval (default PORTAL_AUTH_CHECK_INTERVAL)")
	return cmd
}

// printSession shows the signed-in user as a table or JSON.
func (r *runner) printSession(state domain.SessionState) error {
	if !state.IsAuthenticated() {
		return output.NotSignedIn()
	}
	u := state.User
	if r.flags.jsonOut {
		return printJSON(r.printer.Out(), u)
	}
	return r.printer.KeyValues([][2]string{
		{"id", strconv.Itoa(u.ID)},
		{"email", u.Email},
		{"first_name", u.FirstName},
		{"last_name", u.LastName},
	})
}

// secret returns the flag value, or the first line of stdin when fromStdin is set.
func secret(cmd *cobra.Command, name, value string, fromStdin bool) (string, error) {
	if !fromStdin {
		if value == "" {
			return "", usageError("--%s or --%s-stdin is required", name, name)
		}
		return value, nil
	}
	if value != "" {
		return "", usageError("--%s and --%s-stdin are mutually exclusive", name, name)
	}
	sc := bufio.NewScanner(cmd.InOrStdin())
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("read %s: %w", name, err)
		}
		return "", usageError("no %s on stdin", name)
	}
	return strings.TrimRight(sc.Text(), "\r"), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
