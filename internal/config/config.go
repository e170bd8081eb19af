// Package config provides configuration loading and management.
package config

import (
	"os"

	"github.com/aucampia/copier-python/internal/digest"
	"github.com/aucampia/copier-python/internal/environ"
)

// Configuration keys, as written in the config file.
const (
	KeyCacheDir       = "cacheDir"
	KeyRapid          = "rapid"
	KeyRuntimeMarker  = "runtimeMarker"
	KeyHashExclude    = "hashExclude"
	KeyLogTimestamps  = "log.timestamps"
	KeySourceRoot     = "sourceRoot"
	KeyDefaultAnswers = "answersDir"
)

// LogConfig contains logging-related settings.
type LogConfig struct {
	// Timestamps controls whether timestamps are shown in log output.
	// Default: true. Override with --timestamps flag.
	Timestamps bool `mapstructure:"timestamps" yaml:"timestamps"`
}

// Config represents the scaffold configuration.
type Config struct {
	// CacheDir holds the harness's persisted projects.
	// Env: SCAFFOLD_CACHE_DIR, Default: the system temp dir
	CacheDir string `mapstructure:"cacheDir" yaml:"cacheDir"`

	// Rapid fingerprints templates by location and reuses persisted
	// projects across runs.
	// Env: SCAFFOLD_RAPID or TEST_RAPID, Default: true
	Rapid bool `mapstructure:"rapid" yaml:"rapid"`

	// RuntimeMarker names the variable pointing at the isolated Python
	// runtime removed from script environments.
	// Env: SCAFFOLD_RUNTIME_MARKER, Default: VIRTUAL_ENV
	RuntimeMarker string `mapstructure:"runtimeMarker" yaml:"runtimeMarker"`

	// HashExclude lists template subdirectories ignored by content
	// fingerprints.
	HashExclude []string `mapstructure:"hashExclude" yaml:"hashExclude"`

	// SourceRoot is the package parent directory created by the hook.
	SourceRoot string `mapstructure:"sourceRoot" yaml:"sourceRoot"`

	// AnswersDir holds named answer fixtures for scaffold check.
	AnswersDir string `mapstructure:"answersDir" yaml:"answersDir,omitempty"`

	// Log contains logging-related settings.
	Log LogConfig `mapstructure:"log" yaml:"log"`
}

// DefaultConfig returns a Config with all default values populated.
// Used by `scaffold config init` to generate the initial config file.
func DefaultConfig() *Config {
	return &Config{
		CacheDir:      os.TempDir(),
		Rapid:         true,
		RuntimeMarker: environ.DefaultMarker,
		HashExclude:   append([]string(nil), digest.DefaultTemplateExcludes...),
		SourceRoot:    "src",
		Log:           LogConfig{Timestamps: true},
	}
}
