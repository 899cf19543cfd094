// Package cmdutil holds what every aad subcommand shares: the resolved
// settings and logger for the run, model-service client construction, and
// output helpers.
package cmdutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"adaptivealerting/aad/internal/actionstore"
	"adaptivealerting/aad/internal/auditlog"
	"adaptivealerting/aad/internal/config"
	"adaptivealerting/aad/internal/domain"
	"adaptivealerting/aad/internal/logging"
	"adaptivealerting/aad/internal/modelservice"
	"adaptivealerting/aad/internal/services/auth"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// AuditAnnotation marks commands whose invocations are written to the local
// audit log.
const AuditAnnotation = "aad/audit"

// Env is the per-run environment. The root command builds it once and
// stores it in the command context.
type Env struct {
	Settings config.Settings
	Logger   *zap.Logger
	Store    auth.Store

	// Optional client overrides, used by tests.
	HTTPClient   *http.Client
	PollInterval time.Duration
}

type envKey struct{}

// WithEnv returns ctx carrying env.
func WithEnv(ctx context.Context, env *Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// LoadEnv resolves settings from flags, the environment and the config file
// and builds the logger.
func LoadEnv(flags config.Overrides) (*Env, error) {
	file, err := config.Load()
	if err != nil {
		return nil, err
	}
	settings := config.Resolve(flags, os.Getenv, file)

	logger, err := logging.New(logging.Options{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
		File:   settings.LogFile,
	})
	if err != nil {
		return nil, err
	}

	return &Env{Settings: settings, Logger: logger, Store: auth.DefaultStore()}, nil
}

// EnvFrom returns the environment stored on cmd's context, loading one
// without flag overrides when the command runs outside the root command.
func EnvFrom(cmd *cobra.Command) (*Env, error) {
	if env, ok := cmd.Context().Value(envKey{}).(*Env); ok && env != nil {
		return env, nil
	}
	env, err := LoadEnv(config.Overrides{})
	if err != nil {
		return nil, err
	}
	cmd.SetContext(WithEnv(cmd.Context(), env))
	return env, nil
}

// ClientOption adjusts the client configuration for one command.
type ClientOption func(*modelservice.Config)

// WithCreateTimeout bounds how long create waits for the detector to appear.
func WithCreateTimeout(d time.Duration) ClientOption {
	return func(c *modelservice.Config) { c.CreateTimeout = d }
}

// WithBaseURL points the client at a model service other than the
// configured one.
func WithBaseURL(u string) ClientOption {
	return func(c *modelservice.Config) { c.BaseURL = u }
}

// NewClient builds a model-service client from the run environment. The
// stored bearer token is used when one exists. It also tags the command's
// audit entry with the model service URL.
func NewClient(cmd *cobra.Command, opts ...ClientOption) (*modelservice.Client, error) {
	env, err := EnvFrom(cmd)
	if err != nil {
		return nil, err
	}

	cfg := modelservice.Config{
		BaseURL:      env.Settings.ModelServiceURL,
		User:         env.Settings.ModelServiceUser,
		HTTPClient:   env.HTTPClient,
		Logger:       env.Logger,
		PollInterval: env.PollInterval,
	}
	if env.Store != nil {
		token, err := auth.OptionalToken(env.Store, auth.ModelServiceAccount)
		if err != nil {
			env.Logger.Debug("keychain unavailable; continuing without a token", zap.Error(err))
		}
		cfg.Token = token
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := modelservice.New(cfg)
	if err != nil {
		return nil, err
	}

	SetAuditResource(cmd, auditlog.Metadata{ModelService: client.BaseURL()})
	return client, nil
}

// Audited marks cmd for the audit log and returns it.
func Audited(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[AuditAnnotation] = "true"
	return cmd
}

// IsAudited reports whether cmd was marked with Audited.
func IsAudited(cmd *cobra.Command) bool {
	return cmd != nil && cmd.Annotations[AuditAnnotation] == "true"
}

// AuditRun asks for an audit entry for the current run of cmd only. Use it
// for commands that mutate state on some flags and merely read on others.
func AuditRun(cmd *cobra.Command) {
	SetAuditResource(cmd, auditlog.Metadata{Record: true})
}

// ShouldAudit reports whether this run of cmd gets an audit entry.
func ShouldAudit(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}
	return IsAudited(cmd) || auditlog.MetadataFromContext(cmd.Context()).Record
}

// SetAuditResource attaches meta to cmd's context for the audit entry.
func SetAuditResource(cmd *cobra.Command, meta auditlog.Metadata) {
	cmd.SetContext(auditlog.WithMetadata(cmd.Context(), meta))
}

// Output formats accepted by -o.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// AddOutputFlag registers -o/--output.
func AddOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", OutputTable, "Output format: table or json")
}

// OutputFormat returns the validated -o value.
func OutputFormat(cmd *cobra.Command) (string, error) {
	output, _ := cmd.Flags().GetString("output")
	switch output {
	case "", OutputTable:
		return OutputTable, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unsupported output format %q (use table or json)", output)
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// IsTerminal reports whether stdout is an interactive terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// TrackPendingCreate records a create that timed out waiting for the
// detector so it can be resumed with "aad detector pending --resume". It
// reports whether err was such a timeout. Storage failures are logged.
func TrackPendingCreate(cmd *cobra.Command, err error, tags map[string]string) bool {
	var timeout *domain.CreateTimeoutError
	if !errors.As(err, &timeout) {
		return false
	}

	env, envErr := EnvFrom(cmd)
	if envErr != nil {
		return false
	}

	repo, openErr := actionstore.Open()
	if openErr != nil {
		env.Logger.Warn("cannot track pending create", zap.String("uuid", timeout.UUID), zap.Error(openErr))
		return false
	}
	defer repo.Close()

	record := &actionstore.PendingCreate{
		DetectorUUID: timeout.UUID,
		ModelService: env.Settings.ModelServiceURL,
		User:         env.Settings.ModelServiceUser,
		Tags:         tags,
	}
	if saveErr := repo.Save(record); saveErr != nil {
		env.Logger.Warn("cannot track pending create", zap.String("uuid", timeout.UUID), zap.Error(saveErr))
		return false
	}
	return true
}

// ParseAge parses a retention age such as "72h", "30d" or "2w". Go duration
// syntax is accepted as well as whole days (d) and weeks (w). The age must be
// positive.
func ParseAge(input string) (time.Duration, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, fmt.Errorf("age is empty (use e.g. 72h, 30d or 2w)")
	}

	var age, unit time.Duration
	switch input[len(input)-1] {
	case 'd':
		unit = 24 * time.Hour
	case 'w':
		unit = 7 * 24 * time.Hour
	}
	if unit > 0 {
		n, err := strconv.Atoi(input[:len(input)-1])
		if err != nil {
			return 0, fmt.Errorf("invalid age %q (use e.g. 72h, 30d or 2w)", input)
		}
		age = time.Duration(n) * unit
	} else {
		d, err := time.ParseDuration(input)
		if err != nil {
			return 0, fmt.Errorf("invalid age %q (use e.g. 72h, 30d or 2w)", input)
		}
		age = d
	}
	if age <= 0 {
		return 0, fmt.Errorf("age %q must be greater than zero", input)
	}
	return age, nil
}
