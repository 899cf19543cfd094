package config

import "strings"

// Environment variables consulted by Resolve.
const (
	EnvModelServiceURL  = "AAD_MODEL_SERVICE_URL"
	EnvModelServiceUser = "AAD_MODEL_SERVICE_USER"
	EnvLogLevel         = "AAD_LOG_LEVEL"
)

// Overrides are values given explicitly on the command line. Empty means
// "not given".
type Overrides struct {
	ModelServiceURL  string
	ModelServiceUser string
	LogLevel         string
}

// Settings are the effective values for one run.
type Settings struct {
	ModelServiceURL  string
	ModelServiceUser string
	LogLevel         string
	LogFormat        string
	LogFile          string
}

// Resolve merges flags, environment and file, in that order of precedence.
// getenv is usually os.Getenv; file may be nil. Missing values stay empty:
// whoever needs a value reports its absence.
func Resolve(flags Overrides, getenv func(string) string, file *Config) Settings {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	if file == nil {
		file = &Config{}
	}

	return Settings{
		ModelServiceURL:  first(flags.ModelServiceURL, getenv(EnvModelServiceURL), file.ModelServiceURL),
		ModelServiceUser: first(flags.ModelServiceUser, getenv(EnvModelServiceUser), file.ModelServiceUser),
		LogLevel:         first(flags.LogLevel, getenv(EnvLogLevel), file.LogLevel),
		LogFormat:        first(file.LogFormat),
		LogFile:          first(file.LogFile),
	}
}

func first(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
