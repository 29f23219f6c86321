package cli

import (
	"github.com/spf13/cobra"

	"portal-client/internal/output"
	"portal-client/internal/usecase"
)

func newPasswordCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change or reset a password",
	}

	var current, next string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change the signed-in user's password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.app()
			if err != nil {
				return err
			}
			return a.UpdatePassword.Execute(cmd.Context(), usecase.UpdatePasswordInput{CurrentPassword: current, NewPassword: next})
		},
	}
	update.Flags().StringVar(&current, "current", "", "current password")
	update.Flags().StringVar(&next, "new", "", "new password")
	_ = update.MarkFlagRequired("current")
	_ = update.MarkFlagRequired("new")

	var email string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Email a password-reset link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.app()
			if err != nil {
				return err
			}
			return a.PasswordReset.Request(cmd.Context(), usecase.PasswordResetInput{Email: email})
		},
	}
	reset.Flags().StringVar(&email, "email", "", "account email")
	_ = reset.MarkFlagRequired("email")

	var uid, token, newPassword string
	confirm := &cobra.Command{
		Use:   "confirm",
		Short: "Set a new password with the uid and token from the reset link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.app()
			if err != nil {
				return err
			}
			return a.PasswordReset.Confirm(cmd.Context(), usecase.PasswordResetConfirmInput{UID: uid, Token: token, NewPassword: newPassword})
		},
	}
	confirm.Flags().StringVar(&uid, "uid", "", "uid from the reset link")
	confirm.Flags().StringVar(&token, "token", "", "token from the reset link")
	confirm.Flags().StringVar(&newPassword, "new", "", "new password")
	for _, f := range []string{"uid", "token", "new"} {
		_ = confirm.MarkFlagRequired(f)
	}

	cmd.AddCommand(update, reset, confirm)
	return cmd
}

func newAccountCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Edit or delete the signed-in account",
	}

	var firstName, lastName string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change the first or last name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in usecase.UpdateSelfInput
			if cmd.Flags().Changed("first-name") {
				in.FirstName = &firstName
			}
			if cmd.Flags().Changed("last-name") {
				in.LastName = &lastName
			}
			if in.FirstName == nil && in.LastName == nil {
				return usageError("nothing to update: pass --first-name or --last-name")
			}
			a, err := r.app()
			if err != nil {
				return err
			}
			self, err := a.UpdateSelf.Execute(cmd.Context(), in)
			if err != nil {
				return err
			}
			if r.flags.jsonOut {
				return printJSON(r.printer.Out(), self)
			}
			return nil
		},
	}
	update.Flags().StringVar(&firstName, "first-name", "", "new first name")
	update.Flags().StringVar(&lastName, "last-name", "", "new last name")

	var yes bool
	del := &cobra.Command{
		Use:   "delete",
		Short: "Delete the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return &output.CLIError{
					Summary:    "refusing to delete the account without confirmation",
					Suggestion: "portalctl account delete --yes",
					ExitCode:   output.ExitUsageError,
				}
			}
			a, err := r.app()
			if err != nil {
				return err
			}
			if err := a.DeleteAccount.Execute(cmd.Context()); err != nil {
				return err
			}
			return r.jar.Clear()
		},
	}
	del.Flags().BoolVar(&yes, "yes", false, "confirm deletion")

	cmd.AddCommand(update, del)
	return cmd
}
