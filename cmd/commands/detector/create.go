package detector

import (
	"fmt"
	"os"
	"time"

	"adaptivealerting/aad/cmd/commands/cmdutil"
	"adaptivealerting/aad/internal/auditlog"
	"adaptivealerting/aad/internal/builder"
	"adaptivealerting/aad/internal/domain"
	"adaptivealerting/aad/internal/plan"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"
)

func CreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Build a detector and create it in the model service",
		Long: `Build a constant-threshold detector from a sample and create it in the
model service. With --tag the new detector is also mapped to the metric
with those tags.

The model service acknowledges a create before the detector is readable,
so this command waits (up to --wait-timeout) until it can read the new
detector back.

Examples:
  aad detector create --sample 10,12,9,11,10 --tag role=my-app-web --tag what=elb_2xx
  aad detector create --strategy quartile --sample-file latency.txt --disabled`,
		Args:         cobra.NoArgs,
		RunE:         runCreate,
		SilenceUsage: true,
	}

	addBuildFlags(cmd)
	cmd.Flags().StringToString("tag", nil, "Metric tag to map the detector to (key=value, repeatable)")
	cmd.Flags().Bool("disabled", false, "Create the detector disabled")
	cmd.Flags().Duration("wait-timeout", 60*time.Second, "How long to wait for the new detector to become readable")
	cmdutil.AddOutputFlag(cmd)

	return cmdutil.Audited(cmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	output, err := cmdutil.OutputFormat(cmd)
	if err != nil {
		return err
	}
	req, err := parseBuildFlags(cmd)
	if err != nil {
		return err
	}
	tags, err := parseTags(cmd, false)
	if err != nil {
		return err
	}
	waitTimeout, _ := cmd.Flags().GetDuration("wait-timeout")

	client, err := cmdutil.NewClient(cmd, cmdutil.WithCreateTimeout(waitTimeout))
	if err != nil {
		return err
	}
	env, err := cmdutil.EnvFrom(cmd)
	if err != nil {
		return err
	}

	d, err := builder.New(env.Logger).Build(req.strategy, req.sample, req.weak, req.strong)
	if err != nil {
		return err
	}
	if disabled, _ := cmd.Flags().GetBool("disabled"); disabled {
		d.Enabled = false
	}

	meta := auditlog.Metadata{ResourceType: auditlog.ResourceDetector}
	if len(tags) > 0 {
		meta.ResourceName = plan.TagKey(tags)
	}
	cmdutil.SetAuditResource(cmd, meta)

	ctx := cmd.Context()
	create := func() (*domain.Detector, error) {
		if len(tags) > 0 {
			return client.CreateMetricDetector(ctx, d, domain.Metric{Tags: tags})
		}
		return client.CreateDetector(ctx, d)
	}

	var created *domain.Detector
	if cmdutil.IsTerminal() && output == cmdutil.OutputTable {
		var createErr error
		spinErr := spinner.New().
			Title("Creating detector and waiting for the model service...").
			Accessible(os.Getenv("ACCESSIBLE") != "").
			Output(cmd.ErrOrStderr()).
			Action(func() {
				created, createErr = create()
			}).
			Run()
		if spinErr != nil {
			return spinErr
		}
		err = createErr
	} else {
		created, err = create()
	}

	if created != nil {
		cmdutil.SetAuditResource(cmd, auditlog.Metadata{ResourceID: created.UUID})
	}
	if err != nil {
		if cmdutil.TrackPendingCreate(cmd, err, tags) {
			fmt.Fprintln(cmd.ErrOrStderr(), "The create is tracked; run \"aad detector pending --resume\" to finish it.")
		}
		return fmt.Errorf("create failed: %w", err)
	}

	if output == cmdutil.OutputJSON {
		return cmdutil.PrintJSON(cmd.OutOrStdout(), created)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Detector %s created.\n", created.UUID)
	printDetectorDetail(cmd, created)
	return nil
}
