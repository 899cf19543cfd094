package detector

import (
	"github.com/spf13/cobra"
)

// NewCommand returns the "detector" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detector",
		Short: "Build and manage constant-threshold detectors",
		Long: `Build constant-threshold detectors from metric samples and manage them in
the model service.

Thresholds are derived with one of two strategies:
  sigma      mean ± multiplier × sample standard deviation
  quartile   Q1 − multiplier × IQR and Q3 + multiplier × IQR

The weak multiplier yields the warning bounds, the strong multiplier the
critical bounds.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(BuildCommand())
	cmd.AddCommand(CreateCommand())
	cmd.AddCommand(ShowCommand())
	cmd.AddCommand(ListCommand())
	cmd.AddCommand(UpdateCommand())
	cmd.AddCommand(EnableCommand())
	cmd.AddCommand(DisableCommand())
	cmd.AddCommand(DeleteCommand())
	cmd.AddCommand(PendingCommand())

	return cmd
}
