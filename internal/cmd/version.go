package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aucampia/copier-python/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Show scaffold version information.

Displays:
  - scaffold version, commit and build date
  - the tools generated projects are checked with, where found`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tools := version.DetectTools(cmd.Context(), version.DefaultTools...)
			fmt.Fprintln(cmd.OutOrStdout(), version.FullVersionString(version.GetInfo(), tools))
			return nil
		},
	}
}
