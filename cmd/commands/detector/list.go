package detector

import (
	"fmt"

	"adaptivealerting/aad/cmd/commands/cmdutil"

	"github.com/spf13/cobra"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the detectors mapped to a metric",
		Long: `List the detectors mapped to the metric with the given tags.

Mappings that point at a detector the model service can no longer resolve
are skipped with a warning.

Examples:
  aad detector list --tag role=my-app-web --tag what=elb_2xx
  aad detector list --tag role=my-app-web -o json`,
		Args:         cobra.NoArgs,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().StringToString("tag", nil, "Metric tag (key=value, repeatable)")
	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	output, err := cmdutil.OutputFormat(cmd)
	if err != nil {
		return err
	}
	tags, err := parseTags(cmd, true)
	if err != nil {
		return err
	}
	client, err := cmdutil.NewClient(cmd)
	if err != nil {
		return err
	}

	detectors, err := client.ListDetectorsForMetric(cmd.Context(), tags)
	if err != nil {
		return err
	}

	if output == cmdutil.OutputJSON {
		return cmdutil.PrintJSON(cmd.OutOrStdout(), detectors)
	}
	if len(detectors) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No detectors found.")
		return nil
	}
	printDetectorTable(cmd, detectors)
	return nil
}
