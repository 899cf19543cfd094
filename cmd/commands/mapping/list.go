package mapping

import (
	"fmt"
	"text/tabwriter"

	"adaptivealerting/aad/cmd/commands/cmdutil"
	"adaptivealerting/aad/internal/domain"
	"adaptivealerting/aad/internal/plan"

	"github.com/spf13/cobra"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the mappings that point at a detector",
		Long: `List every mapping that points at the given detector.

Examples:
  aad mapping list --detector 4fdc4ad0-9e8a-4e6b-9c2f-7a3f4f3f9a11
  aad mapping list --detector 4fdc4ad0-9e8a-4e6b-9c2f-7a3f4f3f9a11 -o json`,
		Args:         cobra.NoArgs,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().String("detector", "", "Detector UUID (required)")
	cmd.MarkFlagRequired("detector")
	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	output, err := cmdutil.OutputFormat(cmd)
	if err != nil {
		return err
	}
	detectorUUID, _ := cmd.Flags().GetString("detector")

	client, err := cmdutil.NewClient(cmd)
	if err != nil {
		return err
	}

	mappings, err := client.ListDetectorMappings(cmd.Context(), detectorUUID)
	if err != nil {
		return err
	}

	if output == cmdutil.OutputJSON {
		return cmdutil.PrintJSON(cmd.OutOrStdout(), mappings)
	}
	if len(mappings) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No mappings found.")
		return nil
	}
	printMappingTable(cmd, mappings)
	return nil
}

func printMappingTable(cmd *cobra.Command, mappings []domain.DetectorMapping) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tENABLED\tUSER\tCREATED\tTAGS")
	fmt.Fprintln(w, "--\t-------\t----\t-------\t----")
	for _, m := range mappings {
		created := "-"
		if !m.CreatedAt.IsZero() {
			created = m.CreatedAt.Format("2006-01-02 15:04")
		}
		user := m.User
		if user == "" {
			user = "-"
		}
		fmt.Fprintf(w, "%s\t%t\t%s\t%s\t%s\n", m.ID, m.Enabled, user, created, plan.TagKey(m.Tags))
	}
	w.Flush()
}
