package detector

import (
	"adaptivealerting/aad/cmd/commands/cmdutil"
	"adaptivealerting/aad/internal/builder"

	"github.com/spf13/cobra"
)

// BuildCommand returns the "detector build" command, which computes a
// detector locally without contacting the model service.
func BuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compute detector thresholds from a sample",
		Long: `Compute constant-threshold detector thresholds from a sample and print
them. Nothing is sent to the model service.

Examples:
  aad detector build --sample 10,12,9,11,10
  aad detector build --strategy quartile --weak 1.5 --strong 3 --sample-file latency.txt
  cat sample.txt | aad detector build --sample-file - -o json`,
		Args:         cobra.NoArgs,
		RunE:         runBuild,
		SilenceUsage: true,
	}

	addBuildFlags(cmd)
	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	output, err := cmdutil.OutputFormat(cmd)
	if err != nil {
		return err
	}
	req, err := parseBuildFlags(cmd)
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

	if output == cmdutil.OutputJSON {
		return cmdutil.PrintJSON(cmd.OutOrStdout(), d)
	}
	printDetectorDetail(cmd, d)
	return nil
}
