package detector

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"adaptivealerting/aad/cmd/commands/cmdutil"
	"adaptivealerting/aad/internal/actionstore"
	"adaptivealerting/aad/internal/auditlog"
	"adaptivealerting/aad/internal/domain"
	"adaptivealerting/aad/internal/plan"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// PendingCommand returns the "detector pending" command, which lists and
// resumes creates that timed out waiting for the model service.
func PendingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List or resume creates that timed out",
		Long: `Show detector creates the model service acknowledged but that never became
readable before the CLI stopped waiting.

By default only unresolved creates are shown. Use --all to include
confirmed and failed ones. --resume waits for each unresolved detector
again and, once it is readable, saves the metric mapping the original
create was going to save.

Examples:
  aad detector pending
  aad detector pending --all
  aad detector pending --resume
  aad detector pending --prune-older-than 7d`,
		Args:         cobra.NoArgs,
		RunE:         runPending,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("all", false, "Show recent creates of every status")
	cmd.Flags().Bool("resume", false, "Wait for unresolved creates and finish their mappings")
	cmd.Flags().Duration("wait-timeout", 60*time.Second, "How long to wait for each detector when resuming")
	cmd.Flags().String("prune-older-than", "", "Remove settled records older than this age (e.g. 7d, 72h)")

	return cmd
}

func runPending(cmd *cobra.Command, args []string) error {
	showAll, _ := cmd.Flags().GetBool("all")
	resume, _ := cmd.Flags().GetBool("resume")
	pruneRaw, _ := cmd.Flags().GetString("prune-older-than")

	var prune time.Duration
	if pruneRaw != "" {
		var err error
		if prune, err = cmdutil.ParseAge(pruneRaw); err != nil {
			return fmt.Errorf("--prune-older-than: %w", err)
		}
	}

	repo, err := actionstore.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	if prune > 0 {
		cmdutil.AuditRun(cmd)
		removed, err := repo.DeleteOlderThan(prune)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d settled record(s).\n", removed)
		return nil
	}

	if resume {
		cmdutil.AuditRun(cmd)
		return resumePending(cmd, repo)
	}

	var records []actionstore.PendingCreate
	if showAll {
		records, err = repo.ListRecent(20)
	} else {
		records, err = repo.ListPending()
	}
	if err != nil {
		return err
	}

	if len(records) == 0 {
		if showAll {
			fmt.Fprintln(cmd.OutOrStdout(), "No tracked creates.")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No pending creates.")
		}
		return nil
	}

	printPending(cmd, records)
	if !showAll {
		fmt.Fprintln(cmd.ErrOrStderr(), "\nUse --resume to wait for these detectors again.")
	}
	return nil
}

func printPending(cmd *cobra.Command, records []actionstore.PendingCreate) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDETECTOR\tMETRIC\tSTATUS\tAGE")
	for _, r := range records {
		metric := "-"
		if len(r.Tags) > 0 {
			metric = plan.TagKey(r.Tags)
		}
		status := r.Status
		if r.Status == actionstore.StatusError && r.ErrorMessage != "" {
			status = "error: " + truncate(r.ErrorMessage, 40)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.DetectorUUID, metric, status, formatAge(time.Since(r.CreatedAt)))
	}
	w.Flush()
}

func resumePending(cmd *cobra.Command, repo actionstore.Repository) error {
	pending, err := repo.ListPending()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No pending creates to resume.")
		return nil
	}

	env, err := cmdutil.EnvFrom(cmd)
	if err != nil {
		return err
	}
	waitTimeout, _ := cmd.Flags().GetDuration("wait-timeout")
	cmdutil.SetAuditResource(cmd, auditlog.Metadata{ResourceType: auditlog.ResourceDetector})

	fmt.Fprintf(cmd.ErrOrStderr(), "Resuming %d pending create(s)...\n", len(pending))

	failed := 0
	for _, record := range pending {
		if err := resumeOne(cmd.Context(), cmd, record, waitTimeout); err != nil {
			record.Status = actionstore.StatusError
			record.ErrorMessage = err.Error()
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "[%s] Error: %v\n", record.DetectorUUID, err)
		} else {
			record.Status = actionstore.StatusConfirmed
			record.ErrorMessage = ""
			fmt.Fprintf(cmd.OutOrStdout(), "Detector %s confirmed.\n", record.DetectorUUID)
		}
		if err := repo.Save(&record); err != nil {
			env.Logger.Warn("failed to update pending create", zap.Int64("id", record.ID), zap.Error(err))
		}
		if cmd.Context().Err() != nil {
			return cmd.Context().Err()
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d pending creates could not be resumed", failed, len(pending))
	}
	return nil
}

func resumeOne(ctx context.Context, cmd *cobra.Command, record actionstore.PendingCreate, waitTimeout time.Duration) error {
	opts := []cmdutil.ClientOption{cmdutil.WithCreateTimeout(waitTimeout)}
	if record.ModelService != "" {
		opts = append(opts, cmdutil.WithBaseURL(record.ModelService))
	}
	client, err := cmdutil.NewClient(cmd, opts...)
	if err != nil {
		return err
	}

	if _, err := client.AwaitDetector(ctx, record.DetectorUUID); err != nil {
		return err
	}
	if len(record.Tags) == 0 {
		return nil
	}
	return client.SaveMetricDetectorMapping(ctx, record.DetectorUUID, domain.Metric{Tags: record.Tags})
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
