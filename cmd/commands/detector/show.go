package detector

import (
	"fmt"

	"adaptivealerting/aad/cmd/commands/cmdutil"

	"github.com/spf13/cobra"
)

func ShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <uuid>",
		Short: "Show a detector",
		Long: `Fetch a detector from the model service and print it.

Examples:
  aad detector show 4fdc4ad0-9e8a-4e6b-9c2f-7a3f4f3f9a11
  aad detector show 4fdc4ad0-9e8a-4e6b-9c2f-7a3f4f3f9a11 -o json`,
		Args:         cobra.ExactArgs(1),
		RunE:         runShow,
		SilenceUsage: true,
	}

	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	output, err := cmdutil.OutputFormat(cmd)
	if err != nil {
		return err
	}
	client, err := cmdutil.NewClient(cmd)
	if err != nil {
		return err
	}

	d, err := client.GetDetector(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch detector: %w", err)
	}

	if output == cmdutil.OutputJSON {
		return cmdutil.PrintJSON(cmd.OutOrStdout(), d)
	}
	printDetectorDetail(cmd, d)
	return nil
}
