package plan

import (
	"github.com/spf13/cobra"
)

// NewCommand returns the "plan" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Apply detector plans from YAML files",
		Long: `Build and apply detectors for many metrics at once from a YAML plan.

A plan file looks like:

  defaults:
    strategy: sigma
    weak_multiplier: 3
    strong_multiplier: 5
  metrics:
    - tags: {role: my-app-web, what: elb_2xx}
      sample: [10, 12, 9, 11, 10]
    - tags: {role: my-app-api, what: latency_p99}
      sample: [120, 180, 95, 210]
      strategy: quartile
      weak_multiplier: 1.5`,
		SilenceUsage: true,
	}

	cmd.AddCommand(SyncCommand())

	return cmd
}
