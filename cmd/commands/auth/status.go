package auth

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"adaptivealerting/aad/cmd/commands/cmdutil"
	"adaptivealerting/aad/internal/services/auth"

	"github.com/spf13/cobra"
)

func StatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the model service connection settings",
		Long: `Show the resolved model service URL and user, and whether a token is
stored.

Example:
  aad auth status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.EnvFrom(cmd)
			if err != nil {
				return err
			}

			token := "not logged in"
			if _, err := env.Store.GetToken(auth.ModelServiceAccount); err == nil {
				token = "stored"
			} else if !errors.Is(err, auth.ErrTokenNotFound) {
				token = fmt.Sprintf("error (%v)", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Model service:\t%s\n", orNotSet(env.Settings.ModelServiceURL))
			fmt.Fprintf(w, "User:\t%s\n", orNotSet(env.Settings.ModelServiceUser))
			fmt.Fprintf(w, "Token:\t%s\n", token)
			return w.Flush()
		},
		SilenceUsage: true,
	}

	return cmd
}

func orNotSet(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}
