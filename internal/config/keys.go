package config

import (
	"fmt"
	"net/url"
	"strings"

	"adaptivealerting/aad/internal/logging"
)

// KeySpec describes one key settable with "aad config set".
type KeySpec struct {
	// Name is the CLI-facing key, e.g. "model-service-url".
	Name string

	Description string

	Get func(cfg *Config) string
	Set func(cfg *Config, value string)

	// Validate rejects a value before it is stored. Nil accepts anything.
	Validate func(value string) error

	// CaseSensitive keeps the value as typed. Other values are lowercased.
	CaseSensitive bool
}

// Keys lists every supported key in display order.
var Keys = []KeySpec{
	{
		Name:          "model-service-url",
		Description:   "Base URL of the model service (e.g. http://modelservice:8008)",
		Get:           func(cfg *Config) string { return cfg.ModelServiceURL },
		Set:           func(cfg *Config, v string) { cfg.ModelServiceURL = v },
		Validate:      validateURL,
		CaseSensitive: true,
	},
	{
		Name:          "model-service-user",
		Description:   "User recorded as the creator of detectors and mappings",
		Get:           func(cfg *Config) string { return cfg.ModelServiceUser },
		Set:           func(cfg *Config, v string) { cfg.ModelServiceUser = v },
		CaseSensitive: true,
	},
	{
		Name:        "log-level",
		Description: "Minimum log level: debug, info, warn or error",
		Get:         func(cfg *Config) string { return cfg.LogLevel },
		Set:         func(cfg *Config, v string) { cfg.LogLevel = v },
		Validate: func(v string) error {
			_, err := logging.ParseLevel(v)
			return err
		},
	},
	{
		Name:        "log-format",
		Description: "Log encoding: console or json",
		Get:         func(cfg *Config) string { return cfg.LogFormat },
		Set:         func(cfg *Config, v string) { cfg.LogFormat = v },
		Validate:    logging.ValidateFormat,
	},
	{
		Name:          "log-file",
		Description:   "Write logs to this file (rotated) instead of stderr",
		Get:           func(cfg *Config) string { return cfg.LogFile },
		Set:           func(cfg *Config, v string) { cfg.LogFile = v },
		CaseSensitive: true,
	},
}

func validateURL(v string) error {
	u, err := url.ParseRequestURI(v)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", v, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", v)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", v)
	}
	return nil
}

// Normalize trims value and, unless the key is case-sensitive, lowercases it.
func (k *KeySpec) Normalize(value string) string {
	value = strings.TrimSpace(value)
	if !k.CaseSensitive {
		value = strings.ToLower(value)
	}
	return value
}

// Lookup finds a key by name, ignoring case and surrounding whitespace.
func Lookup(name string) *KeySpec {
	name = strings.ToLower(strings.TrimSpace(name))
	for i := range Keys {
		if Keys[i].Name == name {
			return &Keys[i]
		}
	}
	return nil
}

// KeyNames returns the key names in display order.
func KeyNames() []string {
	names := make([]string, 0, len(Keys))
	for _, k := range Keys {
		names = append(names, k.Name)
	}
	return names
}

// KeysHelp renders the key table used in command help.
func KeysHelp() string {
	width := 0
	for _, k := range Keys {
		width = max(width, len(k.Name))
	}

	var b strings.Builder
	b.WriteString("Available keys:\n")
	for _, k := range Keys {
		fmt.Fprintf(&b, "  %-*s   %s\n", width, k.Name, k.Description)
	}
	return b.String()
}
