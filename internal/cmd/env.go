package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aucampia/copier-python/internal/environ"
)

var envMarker string

// NewEnvCmd creates the env command.
func NewEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Print the environment used for project scripts",
		Long: `Print the current environment with the active isolated Python runtime
removed, as check passes it to configure and workflow scripts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			marker := envMarker
			if marker == "" {
				marker = GetConfig().RuntimeMarker
			}
			out := cmd.OutOrStdout()
			for _, kv := range environ.SanitizeCurrent(marker) {
				fmt.Fprintln(out, kv)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&envMarker, "marker", "",
		"Variable naming the runtime to remove (default from config)")

	return cmd
}
