package detector

import (
	"fmt"

	"adaptivealerting/aad/cmd/commands/cmdutil"
	"adaptivealerting/aad/internal/auditlog"

	"github.com/spf13/cobra"
)

func DeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <uuid>",
		Short: "Delete a detector",
		Long: `Delete a detector from the model service.

Mappings that point at the detector are not removed. With --with-mappings
they are deleted first.

Examples:
  aad detector delete 4fdc4ad0-9e8a-4e6b-9c2f-7a3f4f3f9a11
  aad detector delete 4fdc4ad0-9e8a-4e6b-9c2f-7a3f4f3f9a11 --with-mappings`,
		Args:         cobra.ExactArgs(1),
		RunE:         runDelete,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("with-mappings", false, "Also delete the detector's mappings")

	return cmdutil.Audited(cmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	detectorUUID := args[0]
	cmdutil.SetAuditResource(cmd, auditlog.Metadata{ResourceType: auditlog.ResourceDetector, ResourceID: detectorUUID})

	client, err := cmdutil.NewClient(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if withMappings, _ := cmd.Flags().GetBool("with-mappings"); withMappings {
		mappings, err := client.ListDetectorMappings(ctx, detectorUUID)
		if err != nil {
			return err
		}
		for _, m := range mappings {
			if err := client.DeleteMetricDetectorMapping(ctx, m.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Mapping %s deleted.\n", m.ID)
		}
	}

	if err := client.DeleteDetector(ctx, detectorUUID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Detector %s deleted.\n", detectorUUID)
	return nil
}
