package mapping

import (
	"github.com/spf13/cobra"
)

// NewCommand returns the "mapping" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Manage metric-to-detector mappings",
		Long: `Inspect and remove the mappings that tie a metric's tag set to a detector.

Mappings are created by "aad detector create --tag ..." and by plan sync.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(DeleteCommand())
	cmd.AddCommand(DisableCommand())

	return cmd
}
