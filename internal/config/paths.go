package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// appName names the scaffold directories under the XDG base directories.
const appName = "scaffold"

// Paths contains standard filesystem paths for scaffold.
type Paths struct {
	// ConfigFile is the path to the config file
	// ($XDG_CONFIG_HOME/scaffold/config.yaml).
	ConfigFile string

	// ConfigDir is the directory holding ConfigFile.
	ConfigDir string
}

// DefaultPaths returns the default paths for scaffold.
func DefaultPaths() *Paths {
	dir := filepath.Join(xdg.ConfigHome, appName)
	return &Paths{
		ConfigFile: filepath.Join(dir, "config.yaml"),
		ConfigDir:  dir,
	}
}

// GetConfigFile returns the config file path.
// If SCAFFOLD_CONFIG is set, it takes precedence.
func GetConfigFile() string {
	if envPath := os.Getenv(envPrefix + "_CONFIG"); envPath != "" {
		return envPath
	}
	return DefaultPaths().ConfigFile
}

// ExpandPath expands a leading "~" or "~/" to the user's home directory.
// Other forms, such as "~user", are returned unchanged.
func ExpandPath(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, p[1:]), nil
}
