package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Environment variable prefix for scaffold configuration.
const envPrefix = "SCAFFOLD"

// envBindings lists the variables read for each key, first set wins.
// TEST_RAPID is the variable older harness runs were driven by.
var envBindings = map[string][]string{
	KeyCacheDir:       {"SCAFFOLD_CACHE_DIR"},
	KeyRapid:          {"SCAFFOLD_RAPID", "TEST_RAPID"},
	KeyRuntimeMarker:  {"SCAFFOLD_RUNTIME_MARKER"},
	KeyHashExclude:    {"SCAFFOLD_HASH_EXCLUDE"},
	KeySourceRoot:     {"SCAFFOLD_SOURCE_ROOT"},
	KeyDefaultAnswers: {"SCAFFOLD_ANSWERS_DIR"},
	KeyLogTimestamps:  {"SCAFFOLD_LOG_TIMESTAMPS"},
}

// Loader handles loading and merging configuration from the config file,
// the environment and the built-in defaults.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, names := range envBindings {
		_ = v.BindEnv(append([]string{key}, names...)...)
	}

	defaults := DefaultConfig()
	v.SetDefault(KeyCacheDir, defaults.CacheDir)
	v.SetDefault(KeyRapid, defaults.Rapid)
	v.SetDefault(KeyRuntimeMarker, defaults.RuntimeMarker)
	v.SetDefault(KeyHashExclude, defaults.HashExclude)
	v.SetDefault(KeySourceRoot, defaults.SourceRoot)
	v.SetDefault(KeyLogTimestamps, defaults.Log.Timestamps)

	return &Loader{v: v}
}

// Load loads configuration from the given file path.
// If configFile is empty, it uses the default config file path.
// A missing file is not an error. Environment variables take precedence
// over file values.
func (l *Loader) Load(configFile string) (*Config, error) {
	if configFile == "" {
		configFile = GetConfigFile()
	}

	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}

	l.v.SetConfigFile(expandedPath)
	l.v.SetConfigType("yaml")

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Source reports where the loaded value of key came from.
func (l *Loader) Source(key string) ConfigSource {
	for _, name := range envBindings[key] {
		if _, ok := os.LookupEnv(name); ok {
			return SourceEnv
		}
	}
	if l.v.InConfig(key) {
		return SourceConfig
	}
	return SourceDefault
}

// ConfigFileExists checks if the config file exists.
func ConfigFileExists(configFile string) (bool, error) {
	if configFile == "" {
		configFile = GetConfigFile()
	}

	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(expandedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// WriteDefault writes the default configuration to configFile, creating
// parent directories. An existing file is only replaced when force is set.
func WriteDefault(configFile string, force bool) error {
	configFile, err := ExpandPath(configFile)
	if err != nil {
		return err
	}
	exists, err := ConfigFileExists(configFile)
	if err != nil {
		return err
	}
	if exists && !force {
		return fmt.Errorf("config file %s already exists; use --force to overwrite", configFile)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(configFile, data, 0o644)
}
