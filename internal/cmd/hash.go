package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aucampia/copier-python/internal/digest"
)

var hashExcludes []string

// NewHashCmd creates the hash command.
func NewHashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash <dir>",
		Short: "Print the content digest of a directory tree",
		Long: `Print the digest check uses to fingerprint a template directory.

Without --exclude the configured hashExclude list is pruned.`,
		Args: cobra.ExactArgs(1),
		RunE: runHash,
	}

	cmd.Flags().StringArrayVarP(&hashExcludes, "exclude", "e", nil,
		"Directory to skip, relative to <dir> (repeatable)")

	return cmd
}

func runHash(cmd *cobra.Command, args []string) error {
	excludes := hashExcludes
	if !cmd.Flags().Changed("exclude") {
		excludes = GetConfig().HashExclude
	}

	sum, err := digest.HashTree(args[0], excludes)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), digest.Format(sum))
	return nil
}
