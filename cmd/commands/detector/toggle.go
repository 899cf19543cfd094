package detector

import (
	"context"
	"fmt"

	"adaptivealerting/aad/cmd/commands/cmdutil"
	"adaptivealerting/aad/internal/auditlog"
	"adaptivealerting/aad/internal/modelservice"

	"github.com/spf13/cobra"
)

func EnableCommand() *cobra.Command {
	return toggleCommand("enable", "Enable a detector", "enabled", (*modelservice.Client).EnableDetector)
}

func DisableCommand() *cobra.Command {
	return toggleCommand("disable", "Disable a detector", "disabled", (*modelservice.Client).DisableDetector)
}

func toggleCommand(verb, short, past string, apply func(*modelservice.Client, context.Context, string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   verb + " <uuid>",
		Short: short,
		Long: short + ` in the model service.

Example:
  aad detector ` + verb + ` 4fdc4ad0-9e8a-4e6b-9c2f-7a3f4f3f9a11`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detectorUUID := args[0]
			cmdutil.SetAuditResource(cmd, auditlog.Metadata{ResourceType: auditlog.ResourceDetector, ResourceID: detectorUUID})

			client, err := cmdutil.NewClient(cmd)
			if err != nil {
				return err
			}
			if err := apply(client, cmd.Context(), detectorUUID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Detector %s %s.\n", detectorUUID, past)
			return nil
		},
		SilenceUsage: true,
	}
	return cmdutil.Audited(cmd)
}
