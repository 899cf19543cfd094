package auth

import (
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the model service token",
		Long: `Manage the bearer token sent to the model service.

The token is stored in the local keychain. Requests are sent without an
Authorization header when no token is stored.`,
	}

	cmd.AddCommand(LoginCommand())
	cmd.AddCommand(StatusCommand())
	cmd.AddCommand(LogoutCommand())

	return cmd
}
