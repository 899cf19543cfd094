package detector

import (
	"fmt"

	"adaptivealerting/aad/cmd/commands/cmdutil"
	"adaptivealerting/aad/internal/auditlog"
	"adaptivealerting/aad/internal/builder"
	"adaptivealerting/aad/internal/domain"

	"github.com/spf13/cobra"
)

func UpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <uuid>",
		Short: "Rebuild an existing detector's thresholds",
		Long: `Rebuild the thresholds of an existing constant-threshold detector from a
new sample. The detector keeps its UUID, enabled and trusted state.

Examples:
  aad detector update 4fdc4ad0-9e8a-4e6b-9c2f-7a3f4f3f9a11 --sample-file last-week.txt`,
		Args:         cobra.ExactArgs(1),
		RunE:         runUpdate,
		SilenceUsage: true,
	}

	addBuildFlags(cmd)
	cmdutil.AddOutputFlag(cmd)

	return cmdutil.Audited(cmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	detectorUUID := args[0]
	cmdutil.SetAuditResource(cmd, auditlog.Metadata{ResourceType: auditlog.ResourceDetector, ResourceID: detectorUUID})

	output, err := cmdutil.OutputFormat(cmd)
	if err != nil {
		return err
	}
	req, err := parseBuildFlags(cmd)
	if err != nil {
		return err
	}
	client, err := cmdutil.NewClient(cmd)
	if err != nil {
		return err
	}
	env, err := cmdutil.EnvFrom(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	existing, err := client.GetDetector(ctx, detectorUUID)
	if err != nil {
		return fmt.Errorf("failed to fetch detector: %w", err)
	}
	if existing.Type != domain.TypeConstantThreshold {
		return fmt.Errorf("detector %s is a %s, only %s detectors can be rebuilt", detectorUUID, existing.Type, domain.TypeConstantThreshold)
	}

	built, err := builder.New(env.Logger).Build(req.strategy, req.sample, req.weak, req.strong)
	if err != nil {
		return err
	}
	existing.Config = built.Config

	updated, err := client.UpdateDetector(ctx, existing)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	if output == cmdutil.OutputJSON {
		return cmdutil.PrintJSON(cmd.OutOrStdout(), updated)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Detector %s updated.\n", updated.UUID)
	printDetectorDetail(cmd, updated)
	return nil
}
