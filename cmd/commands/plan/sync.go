package plan

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"adaptivealerting/aad/cmd/commands/cmdutil"
	"adaptivealerting/aad/internal/auditlog"
	"adaptivealerting/aad/internal/domain"
	"adaptivealerting/aad/internal/plan"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"
)

func SyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync <file>",
		Short: "Create or update the detectors a plan describes",
		Long: `Build a detector for every metric in the plan and apply it.

A metric with no mapped constant-threshold detector gets a new detector
mapped to its tags. A metric that already has one gets its thresholds
replaced in place. A failure on one metric does not stop the others.

Examples:
  aad plan sync detectors.yaml --dry-run
  aad plan sync detectors.yaml --concurrency 8 -o json`,
		Args:         cobra.ExactArgs(1),
		RunE:         runSync,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("dry-run", false, "Build detectors and show them without contacting the model service")
	cmd.Flags().Int("concurrency", plan.DefaultConcurrency, "Number of metrics synced at once")
	cmd.Flags().Duration("wait-timeout", 60*time.Second, "How long to wait for each new detector to become readable")
	cmdutil.AddOutputFlag(cmd)

	return cmdutil.Audited(cmd)
}

// syncResultJSON is the -o json form of a plan.Result.
type syncResultJSON struct {
	Tags       map[string]string `json:"tags"`
	Action     plan.Action       `json:"action"`
	UUID       string            `json:"uuid,omitempty"`
	Detector   *domain.Detector  `json:"detector,omitempty"`
	DurationMs int64             `json:"duration_ms"`
	Error      string            `json:"error,omitempty"`
}

func runSync(cmd *cobra.Command, args []string) error {
	path := args[0]
	cmdutil.SetAuditResource(cmd, auditlog.Metadata{ResourceType: auditlog.ResourcePlan, ResourceName: path})

	output, err := cmdutil.OutputFormat(cmd)
	if err != nil {
		return err
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	if concurrency < 1 {
		return fmt.Errorf("--concurrency must be at least 1")
	}
	waitTimeout, _ := cmd.Flags().GetDuration("wait-timeout")

	p, err := plan.Load(path)
	if err != nil {
		return err
	}

	env, err := cmdutil.EnvFrom(cmd)
	if err != nil {
		return err
	}
	syncer := &plan.Syncer{Logger: env.Logger, Concurrency: concurrency, DryRun: dryRun}
	if !dryRun {
		client, err := cmdutil.NewClient(cmd, cmdutil.WithCreateTimeout(waitTimeout))
		if err != nil {
			return err
		}
		syncer.Service = client
	}

	var results []plan.Result
	var syncErr error
	if cmdutil.IsTerminal() && output == cmdutil.OutputTable && !dryRun {
		spinErr := spinner.New().
			Title(fmt.Sprintf("Syncing %d metrics...", len(p.Metrics))).
			Accessible(os.Getenv("ACCESSIBLE") != "").
			Output(cmd.ErrOrStderr()).
			Action(func() {
				results, syncErr = syncer.Sync(cmd.Context(), p)
			}).
			Run()
		if spinErr != nil {
			return spinErr
		}
	} else {
		results, syncErr = syncer.Sync(cmd.Context(), p)
	}

	tracked := 0
	for _, r := range results {
		if cmdutil.TrackPendingCreate(cmd, r.Err, r.Tags) {
			tracked++
		}
	}

	if output == cmdutil.OutputJSON {
		if err := cmdutil.PrintJSON(cmd.OutOrStdout(), toJSON(results)); err != nil {
			return err
		}
	} else {
		printResults(cmd, results)
	}

	if tracked > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d timed-out creates are tracked; run \"aad detector pending --resume\" to finish them.\n", tracked)
	}
	if syncErr != nil {
		return syncErr
	}
	if failed := plan.Summary(results)[plan.ActionFailed]; failed > 0 {
		return fmt.Errorf("%d of %d metrics failed to sync", failed, len(results))
	}
	return nil
}

func toJSON(results []plan.Result) []syncResultJSON {
	out := make([]syncResultJSON, len(results))
	for i, r := range results {
		out[i] = syncResultJSON{
			Tags:       r.Tags,
			Action:     r.Action,
			UUID:       r.UUID,
			Detector:   r.Detector,
			DurationMs: r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}
	return out
}

func printResults(cmd *cobra.Command, results []plan.Result) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "METRIC\tACTION\tUUID\tWEAK\tSTRONG")
	fmt.Fprintln(w, "------\t------\t----\t----\t------")
	for _, r := range results {
		id, weak, strong := "-", "-", "-"
		if r.UUID != "" {
			id = r.UUID
		}
		if r.Detector != nil {
			if cfg, ok := r.Detector.ConstantThreshold(); ok {
				t := cfg.Params.Thresholds
				weak = fmt.Sprintf("[%g, %g]", t.WeakLower, t.WeakUpper)
				strong = fmt.Sprintf("[%g, %g]", t.StrongLower, t.StrongUpper)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", plan.TagKey(r.Tags), r.Action, id, weak, strong)
	}
	w.Flush()

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s: %v\n", plan.TagKey(r.Tags), r.Err)
		}
	}

	counts := plan.Summary(results)
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d created, %d updated, %d planned, %d failed\n",
		counts[plan.ActionCreated], counts[plan.ActionUpdated], counts[plan.ActionPlanned], counts[plan.ActionFailed])
}
