package config

import (
	"fmt"
	"strings"

	"adaptivealerting/aad/internal/config"

	"github.com/spf13/cobra"
)

// NewCommand returns the "config" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage aad configuration",
		Long: "View and modify persistent aad settings.\n\n" +
			"Configuration is stored in the user config directory under aad/config.json.\n" +
			"Flags and AAD_* environment variables take precedence over stored values.\n\n" +
			config.KeysHelp(),
	}

	cmd.AddCommand(SetCommand())
	cmd.AddCommand(GetCommand())
	cmd.AddCommand(UnsetCommand())

	return cmd
}

func unknownKeyError(name string) error {
	return fmt.Errorf("unknown configuration key %q (valid: %s)", name, strings.Join(config.KeyNames(), ", "))
}
