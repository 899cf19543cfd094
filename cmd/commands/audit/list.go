package audit

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"adaptivealerting/aad/cmd/commands/cmdutil"
	"adaptivealerting/aad/internal/auditlog"

	"github.com/spf13/cobra"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent audit entries",
		Long: `List recent audit entries stored locally.

Examples:
  aad audit list
  aad audit list --limit 50
  aad audit list --command "aad detector create"
  aad audit list --resource detector:4fdc4ad0-9e8a-4e6b-9c2f-7a3f4f3f9a11
  aad audit list -o json`,
		Args:         cobra.NoArgs,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().Int("limit", 25, "Number of entries to display")
	cmd.Flags().String("command", "", "Filter by exact command path")
	cmd.Flags().String("resource", "", "Filter by resource type, or type:id (e.g. detector, mapping:AW9W)")
	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}

	output, err := cmdutil.OutputFormat(cmd)
	if err != nil {
		return err
	}

	filter := auditlog.Filter{Limit: limit}
	filter.Command, _ = cmd.Flags().GetString("command")
	resource, _ := cmd.Flags().GetString("resource")
	filter.ResourceType, filter.ResourceID, _ = strings.Cut(resource, ":")

	repo, err := auditlog.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	entries, err := repo.List(filter)
	if err != nil {
		return err
	}

	if output == cmdutil.OutputJSON {
		return cmdutil.PrintJSON(cmd.OutOrStdout(), entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No audit entries found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tCOMMAND\tUSER\tOUTCOME\tDURATION\tRESOURCE\tDETAIL")
	fmt.Fprintln(w, "----\t-------\t----\t-------\t--------\t--------\t------")
	for _, entry := range entries {
		timeStr := entry.Timestamp.Local().Format("2006-01-02 15:04:05")
		resource := formatResource(entry)
		detail := entry.Detail
		if detail == "" {
			detail = "-"
		}
		user := entry.User
		if user == "" {
			user = "-"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			timeStr,
			entry.Command,
			user,
			entry.Outcome,
			formatDuration(entry.DurationMs),
			resource,
			detail,
		)
	}
	w.Flush()
	return nil
}

func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	d := time.Duration(ms) * time.Millisecond
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}

func formatResource(entry auditlog.AuditEntry) string {
	if entry.ResourceType == "" && entry.ResourceID == "" && entry.ResourceName == "" {
		return "-"
	}

	resource := entry.ResourceType
	if entry.ResourceID != "" {
		if resource != "" {
			resource += ":" + entry.ResourceID
		} else {
			resource = entry.ResourceID
		}
	}
	if entry.ResourceName != "" {
		if resource != "" {
			resource += " (" + entry.ResourceName + ")"
		} else {
			resource = entry.ResourceName
		}
	}
	return resource
}
