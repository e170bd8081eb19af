package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aucampia/copier-python/internal/config"
	"github.com/aucampia/copier-python/internal/output"
)

var configInitForce bool

// NewConfigCmd creates the config command group.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage scaffold configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Long: `Write the default configuration to the resolved config path
($XDG_CONFIG_HOME/scaffold/config.yaml unless --config or SCAFFOLD_CONFIG
says otherwise).

Examples:
  # Initialize configuration
  scaffold config init

  # Overwrite existing configuration
  scaffold config init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := GetConfigPath()
			if err := config.WriteDefault(path, configInitForce); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), output.FormatCheckmark("wrote "+output.StyleNoun.Render(path)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&configInitForce, "force", "f", false,
		"Overwrite existing configuration")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(GetConfig())
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", GetConfigPath())
			_, err = out.Write(data)
			return err
		},
	}
}
