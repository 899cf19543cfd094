package mapping

import (
	"context"
	"fmt"

	"adaptivealerting/aad/cmd/commands/cmdutil"
	"adaptivealerting/aad/internal/auditlog"
	"adaptivealerting/aad/internal/modelservice"

	"github.com/spf13/cobra"
)

func DeleteCommand() *cobra.Command {
	return mappingAction("delete", "Delete a mapping", "deleted", (*modelservice.Client).DeleteMetricDetectorMapping)
}

func DisableCommand() *cobra.Command {
	return mappingAction("disable", "Disable a mapping", "disabled", (*modelservice.Client).DisableMetricDetectorMapping)
}

func mappingAction(verb, short, past string, apply func(*modelservice.Client, context.Context, string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   verb + " <id>",
		Short: short,
		Long: short + ` by its ID. The detector itself is not changed.

Example:
  aad mapping ` + verb + ` AW9Wvo4SvLxPjLzsR-JU`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			cmdutil.SetAuditResource(cmd, auditlog.Metadata{ResourceType: auditlog.ResourceMapping, ResourceID: id})

			client, err := cmdutil.NewClient(cmd)
			if err != nil {
				return err
			}
			if err := apply(client, cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Mapping %s %s.\n", id, past)
			return nil
		},
		SilenceUsage: true,
	}
	return cmdutil.Audited(cmd)
}
