package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"adaptivealerting/aad/cmd/commands/cmdutil"
	"adaptivealerting/aad/internal/services/auth"

	"golang.org/x/term"

	"github.com/spf13/cobra"
)

func LoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a model service token",
		Long: `Store a bearer token for the model service in the local keychain.

Without --token the token is read from the terminal without echo.

Example:
  aad auth login`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, _ := cmd.Flags().GetString("token")
			token = strings.TrimSpace(token)

			if token == "" {
				fd := int(os.Stdin.Fd())
				if !term.IsTerminal(fd) {
					return fmt.Errorf("no terminal to prompt on: pass --token")
				}
				fmt.Fprint(cmd.OutOrStdout(), "Enter model service token: ")
				bytes, err := term.ReadPassword(fd)
				fmt.Fprintln(cmd.OutOrStdout())
				if err != nil {
					return err
				}
				token = strings.TrimSpace(string(bytes))
			}

			if token == "" {
				return fmt.Errorf("token cannot be empty")
			}

			env, err := cmdutil.EnvFrom(cmd)
			if err != nil {
				return err
			}
			if err := env.Store.SetToken(auth.ModelServiceAccount, token); err != nil {
				return fmt.Errorf("failed to store token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Saved model service token")
			return nil
		},
		SilenceUsage: true,
	}

	cmd.Flags().String("token", "", "Bearer token (optional, overrides prompt)")

	return cmdutil.Audited(cmd)
}

func LogoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored model service token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.EnvFrom(cmd)
			if err != nil {
				return err
			}
			err = env.Store.DeleteToken(auth.ModelServiceAccount)
			switch {
			case err == nil:
				fmt.Fprintln(cmd.OutOrStdout(), "Removed model service token")
			case errors.Is(err, auth.ErrTokenNotFound):
				fmt.Fprintln(cmd.OutOrStdout(), "No token stored")
			default:
				return fmt.Errorf("failed to remove token: %w", err)
			}
			return nil
		},
		SilenceUsage: true,
	}

	return cmdutil.Audited(cmd)
}
