package config

import (
	"os"

	"github.com/aucampia/copier-python/internal/output"
)

// ConfigSource indicates where a configuration value came from.
type ConfigSource string

const (
	// SourceFlag indicates value came from command-line flag.
	SourceFlag ConfigSource = "flag"
	// SourceEnv indicates value came from environment variable.
	SourceEnv ConfigSource = "env"
	// SourceConfig indicates value came from config file.
	SourceConfig ConfigSource = "config"
	// SourceDefault indicates value is the built-in default.
	SourceDefault ConfigSource = "default"
)

// ResolvedValue is one resolved setting, for debug logging.
type ResolvedValue struct {
	Key    string
	Value  any
	Source ConfigSource
	// Shadowed contains values that were overridden by higher precedence.
	Shadowed map[ConfigSource]any
}

// Resolve applies flag > env > config > default precedence to one key.
// flagSet reports whether the flag was given; loaded is the value the
// Loader produced from env, config and defaults.
func Resolve[T any](l *Loader, key string, flagSet bool, flagValue, loaded T) (T, ResolvedValue) {
	rv := ResolvedValue{Key: key, Shadowed: map[ConfigSource]any{}}
	source := l.Source(key)
	if flagSet {
		rv.Value = flagValue
		rv.Source = SourceFlag
		if source != SourceDefault {
			rv.Shadowed[source] = loaded
		}
		return flagValue, rv
	}
	rv.Value = loaded
	rv.Source = source
	return loaded, rv
}

// ResolveConfigPathOptions contains options for config path resolution.
type ResolveConfigPathOptions struct {
	// FlagValue is the --config flag value (empty if not set).
	FlagValue string
}

// ResolveConfigPathResult contains the resolved config path and its source.
type ResolveConfigPathResult struct {
	// ConfigPath is the resolved config file path.
	ConfigPath string
	// Source indicates where the config path came from.
	Source ConfigSource
	// Shadowed contains values that were overridden by higher precedence.
	Shadowed map[ConfigSource]string
}

// ResolveConfigPath resolves the config file path using precedence:
// (1) --config flag, (2) SCAFFOLD_CONFIG env, (3) the XDG default.
func ResolveConfigPath(opts ResolveConfigPathOptions) ResolveConfigPathResult {
	candidates := []struct {
		source ConfigSource
		value  string
	}{
		{SourceFlag, opts.FlagValue},
		{SourceEnv, os.Getenv(envPrefix + "_CONFIG")},
		{SourceDefault, DefaultPaths().ConfigFile},
	}

	result := ResolveConfigPathResult{Shadowed: make(map[ConfigSource]string)}
	for _, c := range candidates {
		if c.value == "" {
			continue
		}
		if result.ConfigPath == "" {
			result.ConfigPath = c.value
			result.Source = c.source
			continue
		}
		result.Shadowed[c.source] = c.value
	}
	return result
}

// LogResolvedValues logs configuration resolution at DEBUG level.
func LogResolvedValues(values []ResolvedValue) {
	for _, v := range values {
		output.Debug("config value resolved",
			"key", v.Key,
			"value", v.Value,
			"source", v.Source,
		)
		for source, shadowed := range v.Shadowed {
			output.Debug("  shadowed by higher precedence",
				"key", v.Key,
				"shadowed_source", source,
				"shadowed_value", shadowed,
			)
		}
	}
}
