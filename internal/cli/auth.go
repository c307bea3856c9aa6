package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikhil-bhat/mailsort/internal/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize access to your Gmail account",
	Long: `Runs the interactive OAuth flow in your browser and saves the
resulting access token locally. Subsequent commands reuse the saved
token and only re-authorize when Gmail rejects it.`,
	RunE: runAuth,
}

var authRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke the saved access token",
	RunE:  runAuthRevoke,
}

func init() {
	authCmd.AddCommand(authRevokeCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	cred, err := app.auth.Authenticate(ctx, true)
	if err != nil {
		if errors.Is(err, auth.ErrDenied) {
			return fmt.Errorf("authorization was denied: %w", err)
		}
		return err
	}

	fmt.Printf("Authorized. Token acquired at %s.\n", cred.AcquiredAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runAuthRevoke(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	cred, ok, err := app.auth.Tokens().Get(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("No saved token to revoke.")
		return nil
	}

	authorizer := auth.NewBrowserAuthorizer(app.cfg.Gmail.CredentialsPath)
	if err := authorizer.Invalidate(ctx, cred.Token); err != nil {
		app.log.Warn("revocation request failed, clearing local token anyway", "error", err)
	}
	if err := app.auth.Tokens().Clear(ctx); err != nil {
		return err
	}

	fmt.Println("Token revoked.")
	return nil
}
