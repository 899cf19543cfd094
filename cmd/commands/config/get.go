package config

import (
	"fmt"

	"adaptivealerting/aad/internal/config"

	"github.com/spf13/cobra"
)

// GetCommand returns the "config get" command.
func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Get a configuration value",
		Long: "Print a persistent configuration value, or every value when no key is given.\n\n" +
			config.KeysHelp() +
			"\nExamples:\n" +
			"  aad config get                      # list all values\n" +
			"  aad config get model-service-url    # print a single value",
		Args:         cobra.MaximumNArgs(1),
		RunE:         runGet,
		SilenceUsage: true,
	}

	return cmd
}

func runGet(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if len(args) == 0 {
		for _, ks := range config.Keys {
			value := ks.Get(cfg)
			if value == "" {
				value = "(not set)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", ks.Name, value)
		}
		return nil
	}

	ks := config.Lookup(args[0])
	if ks == nil {
		return unknownKeyError(args[0])
	}

	value := ks.Get(cfg)
	if value == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "not set")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), value)
	}
	return nil
}
