// Package cmd provides CLI command implementations.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/aucampia/copier-python/internal/config"
	"github.com/aucampia/copier-python/internal/output"
)

var (
	// Global flags
	configFlag     string
	verboseFlag    bool
	timestampsFlag bool
	cacheDirFlag   string

	// Resolved configuration (loaded during PersistentPreRunE)
	loadedConfig *config.Config
	configPath   string
)

// NewRootCmd creates the root command for the scaffold CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "scaffold",
		Short: "Python project template generator",
		Long: `scaffold generates Python projects from a question-driven template,
applies the post-generation steps and checks generated projects with their
own build tooling.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeGlobals(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (env: SCAFFOLD_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&timestampsFlag, "timestamps", true, "Show timestamps in log output")
	rootCmd.PersistentFlags().StringVar(&cacheDirFlag, "cache-dir", "", "Directory for checked projects (env: SCAFFOLD_CACHE_DIR)")

	rootCmd.AddCommand(NewGenerateCmd())
	rootCmd.AddCommand(NewHookCmd())
	rootCmd.AddCommand(NewCheckCmd())
	rootCmd.AddCommand(NewHashCmd())
	rootCmd.AddCommand(NewEnvCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// initializeGlobals loads configuration and sets up logging.
func initializeGlobals(cmd *cobra.Command) error {
	pathResult := config.ResolveConfigPath(config.ResolveConfigPathOptions{FlagValue: configFlag})
	configPath = pathResult.ConfigPath

	loader := config.NewLoader()
	cfg, err := loader.Load(configPath)
	if err != nil {
		return err
	}

	cacheDir, cacheRV := config.Resolve(loader, config.KeyCacheDir,
		cmd.Flags().Changed("cache-dir"), cacheDirFlag, cfg.CacheDir)
	cfg.CacheDir = cacheDir

	timestamps, timestampsRV := config.Resolve(loader, config.KeyLogTimestamps,
		cmd.Flags().Changed("timestamps"), timestampsFlag, cfg.Log.Timestamps)
	cfg.Log.Timestamps = timestamps

	output.SetupLogging(output.LogConfig{
		Verbose:    verboseFlag,
		Timestamps: output.BoolPtr(timestamps),
	})

	loadedConfig = cfg

	if verboseFlag {
		output.Debug("initializing CLI", "config", configPath, "configSource", pathResult.Source)
		config.LogResolvedValues([]config.ResolvedValue{cacheRV, timestampsRV})
	}

	return nil
}

// GetConfig returns the loaded configuration, or the defaults when no
// command has loaded one yet.
func GetConfig() *config.Config {
	if loadedConfig != nil {
		return loadedConfig
	}
	return config.DefaultConfig()
}

// GetConfigPath returns the resolved config file path.
func GetConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.ResolveConfigPath(config.ResolveConfigPathOptions{FlagValue: configFlag}).ConfigPath
}
