package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"adaptivealerting/aad/cmd/commands/audit"
	"adaptivealerting/aad/cmd/commands/auth"
	"adaptivealerting/aad/cmd/commands/cmdutil"
	cfgcmd "adaptivealerting/aad/cmd/commands/config"
	"adaptivealerting/aad/cmd/commands/detector"
	"adaptivealerting/aad/cmd/commands/mapping"
	"adaptivealerting/aad/cmd/commands/plan"
	"adaptivealerting/aad/internal/auditlog"
	"adaptivealerting/aad/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootCmd represents the base command when called without any subcommands.
func rootCmd() *cobra.Command {
	var flags config.Overrides

	var cmd = &cobra.Command{
		Use:   "aad",
		Short: "Build constant-threshold anomaly detectors for Adaptive Alerting",
		Long: `aad builds constant-threshold anomaly detectors from metric samples and
manages them in the Adaptive Alerting model service.

Settings are resolved from flags, then AAD_* environment variables, then
the config file.

Quick start:
  aad config set model-service-url http://modelservice:8008
  aad config set model-service-user aa-detector-build
  aad detector build --sample 10,12,9,11,10          # preview thresholds
  aad detector create --sample-file s.txt --tag role=web --tag what=elb_2xx
  aad plan sync detectors.yaml                      # many metrics at once`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.LoadEnv(flags)
			if err != nil {
				return err
			}
			cmd.SetContext(cmdutil.WithEnv(cmd.Context(), env))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flags.ModelServiceURL, "model-service-url", "", "Model service base URL (env "+config.EnvModelServiceURL+")")
	cmd.PersistentFlags().StringVar(&flags.ModelServiceUser, "model-service-user", "", "User recorded on created detectors (env "+config.EnvModelServiceUser+")")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn or error (env "+config.EnvLogLevel+")")

	cmd.AddCommand(detector.NewCommand())
	cmd.AddCommand(mapping.NewCommand())
	cmd.AddCommand(plan.NewCommand())
	cmd.AddCommand(auth.NewCommand())
	cmd.AddCommand(cfgcmd.NewCommand())
	cmd.AddCommand(audit.NewCommand())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	var root = rootCmd()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	executed, err := root.ExecuteContextC(ctx)
	if err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	}

	var logger *zap.Logger
	if executed != nil {
		if env, envErr := cmdutil.EnvFrom(executed); envErr == nil {
			logger = env.Logger
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if cmdutil.ShouldAudit(executed) {
		recordAudit(executed, logger, time.Since(start), err)
	}
	_ = logger.Sync()

	if err != nil {
		stop()
		os.Exit(1)
	}
}

// recordAudit writes one audit entry for an audited command. Failing to
// write it is logged and never changes the command's outcome.
func recordAudit(cmd *cobra.Command, logger *zap.Logger, elapsed time.Duration, runErr error) {
	meta := auditlog.MetadataFromContext(cmd.Context())

	entry := &auditlog.AuditEntry{
		Command:      cmd.CommandPath(),
		Args:         strings.Join(auditlog.SanitizeArgs(os.Args[1:]), " "),
		ModelService: meta.ModelService,
		ResourceType: meta.ResourceType,
		ResourceID:   meta.ResourceID,
		ResourceName: meta.ResourceName,
		Outcome:      auditlog.OutcomeSuccess,
		DurationMs:   elapsed.Milliseconds(),
	}
	if env, err := cmdutil.EnvFrom(cmd); err == nil {
		entry.User = env.Settings.ModelServiceUser
	}
	if runErr != nil {
		entry.Outcome = auditlog.OutcomeError
		entry.Detail = runErr.Error()
	}

	repo, err := auditlog.Open()
	if err != nil {
		logger.Warn("audit log unavailable", zap.Error(err))
		return
	}
	defer repo.Close()

	if err := repo.Save(entry); err != nil {
		logger.Warn("failed to write audit entry", zap.Error(err), zap.String("command", entry.Command))
	}
}
