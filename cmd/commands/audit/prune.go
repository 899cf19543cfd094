package audit

import (
	"fmt"
	"time"

	"adaptivealerting/aad/cmd/commands/cmdutil"
	"adaptivealerting/aad/internal/auditlog"

	"github.com/spf13/cobra"
)

func PruneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune --older-than <age>",
		Short: "Delete local command history older than an age",
		Long: `Delete audit entries recorded more than the given age ago.

The age accepts Go durations (72h, 90m) as well as whole days (30d) and
weeks (2w). Detector state in the model service is not touched.

Examples:
  aad audit prune --older-than 30d
  aad audit prune --older-than 2w`,
		Args:         cobra.NoArgs,
		RunE:         runPrune,
		SilenceUsage: true,
	}

	cmd.Flags().String("older-than", "", "Remove entries older than this age (e.g. 30d, 2w, 72h)")
	_ = cmd.MarkFlagRequired("older-than")

	return cmd
}

func runPrune(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("older-than")
	age, err := cmdutil.ParseAge(raw)
	if err != nil {
		return fmt.Errorf("--older-than: %w", err)
	}

	repo, err := auditlog.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	removed, err := repo.Prune(age)
	if err != nil {
		return fmt.Errorf("failed to prune audit log: %w", err)
	}

	noun := "entries"
	if removed == 1 {
		noun = "entry"
	}
	cutoff := time.Now().Add(-age).Format("2006-01-02 15:04")
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d audit %s recorded before %s.\n", removed, noun, cutoff)
	return nil
}
