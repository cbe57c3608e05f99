package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mediascan/console/session"
)

var errNotSignedIn = errors.New("not signed in; run: mediascan login")

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE: runWithApp(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			if _, err := a.initialize(cmd.Context()); err != nil {
				return err
			}
			email, password, err := a.credentialsFromFlagsOrPrompt(cmd, email)
			if err != nil {
				return err
			}

			result := a.manager.Login(cmd.Context(), email, password)
			if !result.OK {
				return errors.New(result.Message)
			}
			printSnapshot(cmd, a.manager.Snapshot())
			return nil
		}),
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email (prompted when empty)")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: runWithApp(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			a.manager.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		}),
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		Args:  cobra.NoArgs,
		RunE: runWithApp(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			snap, err := a.initialize(cmd.Context())
			if err != nil {
				return err
			}
			if !snap.Authenticated() {
				return errNotSignedIn
			}
			printSnapshot(cmd, snap)
			return nil
		}),
	}
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create an account with the Auth API. Registering does not sign you in;
run "mediascan login" afterwards.`,
		Args: cobra.NoArgs,
		RunE: runWithApp(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			email, password, err := a.credentialsFromFlagsOrPrompt(cmd, email)
			if err != nil {
				return err
			}
			confirmation, err := a.promptSecret(cmd, "Confirm password: ")
			if err != nil {
				return err
			}
			if err := session.ConfirmSecret(password, confirmation); err != nil {
				return errors.New(session.MsgSecretMismatch)
			}

			result := a.manager.Register(cmd.Context(), email, password)
			if !result.OK {
				return errors.New(result.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Account created. Sign in with: mediascan login")
			return nil
		}),
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email (prompted when empty)")
	return cmd
}

func printSnapshot(cmd *cobra.Command, snap session.Snapshot) {
	out := cmd.OutOrStdout()
	user := snap.User
	fmt.Fprintf(out, "Signed in as %s\n", user.DisplayName())
	fmt.Fprintf(out, "  Email:   %s\n", user.Email)
	fmt.Fprintf(out, "  Role:    %s\n", user.Role)
	fmt.Fprintf(out, "  Active:  %t\n", user.IsActive)
	if !snap.ExpiresAt.IsZero() {
		fmt.Fprintf(out, "  Expires: %s\n", snap.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
}
