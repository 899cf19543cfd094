// Package logging builds the zap logger shared by the CLI and the packages
// it drives.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"

	DefaultLevel  = "warn"
	DefaultFormat = FormatConsole
)

// Rotation limits for the optional log file.
const (
	maxFileSizeMB  = 10
	maxFileBackups = 3
	maxFileAgeDays = 28
)

// Options configures New. Empty fields fall back to the defaults above.
type Options struct {
	Level  string
	Format string

	// File, when set, receives logs instead of Writer. It is rotated by size.
	File string

	// Writer defaults to os.Stderr.
	Writer io.Writer
}

// New returns a logger for opts. The caller owns the logger and should call
// Sync before exiting.
func New(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	encoder, err := newEncoder(opts.Format)
	if err != nil {
		return nil, err
	}

	var sink zapcore.WriteSyncer
	switch {
	case opts.File != "":
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxFileSizeMB,
			MaxBackups: maxFileBackups,
			MaxAge:     maxFileAgeDays,
		})
	case opts.Writer != nil:
		sink = zapcore.AddSync(opts.Writer)
	default:
		sink = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(encoder, sink, level)
	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// ParseLevel accepts debug, info, warn, error (case-insensitive). An empty
// string means DefaultLevel.
func ParseLevel(s string) (zapcore.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		s = DefaultLevel
	}
	switch s {
	case "debug", "info", "warn", "error":
	default:
		return zapcore.InvalidLevel, fmt.Errorf("invalid log level %q (must be debug, info, warn or error)", s)
	}
	return zapcore.ParseLevel(s)
}

// ValidateFormat reports whether s is a supported encoder name.
func ValidateFormat(s string) error {
	_, err := newEncoder(s)
	return err
}

func newEncoder(format string) (zapcore.Encoder, error) {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatConsole:
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(cfg), nil
	case FormatJSON:
		return zapcore.NewJSONEncoder(cfg), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (must be console or json)", format)
	}
}
