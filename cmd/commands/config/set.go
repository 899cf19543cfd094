package config

import (
	"fmt"

	"adaptivealerting/aad/internal/config"

	"github.com/spf13/cobra"
)

// SetCommand returns the "config set" command.
func SetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: "Set a persistent configuration value.\n\n" +
			config.KeysHelp() +
			"\nExamples:\n" +
			"  aad config set model-service-url http://modelservice:8008\n" +
			"  aad config set model-service-user aa-detector-build\n" +
			"  aad config set log-level debug",
		Args:         cobra.ExactArgs(2),
		RunE:         runSet,
		SilenceUsage: true,
	}

	return cmd
}

func runSet(cmd *cobra.Command, args []string) error {
	ks := config.Lookup(args[0])
	if ks == nil {
		return unknownKeyError(args[0])
	}

	value := ks.Normalize(args[1])
	if value == "" {
		return fmt.Errorf("%s: value must not be empty (use \"aad config unset %s\" to clear it)", ks.Name, ks.Name)
	}
	if ks.Validate != nil {
		if err := ks.Validate(value); err != nil {
			return fmt.Errorf("%s: %w", ks.Name, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	ks.Set(cfg, value)
	if err := cfg.Save(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s set to %q\n", ks.Name, value)
	return nil
}

// UnsetCommand returns the "config unset" command.
func UnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Clear a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks := config.Lookup(args[0])
			if ks == nil {
				return unknownKeyError(args[0])
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			ks.Set(cfg, "")
			if err := cfg.Save(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s cleared\n", ks.Name)
			return nil
		},
		SilenceUsage: true,
	}
}
