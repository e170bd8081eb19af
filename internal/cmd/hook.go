package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aucampia/copier-python/internal/answers"
	oerrors "github.com/aucampia/copier-python/internal/errors"
	"github.com/aucampia/copier-python/internal/output"
	"github.com/aucampia/copier-python/internal/postgen"
	"github.com/aucampia/copier-python/internal/templates"
)

var (
	hookDir        string
	hookAnswers    string
	hookCopierConf string
	hookSourceRoot string
)

// copierConf is the subset of the copier worker configuration passed to
// task hooks.
type copierConf struct {
	AnswersFile string `json:"answers_file"`
}

// NewHookCmd creates the hook command.
func NewHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Apply the post-generation steps to a rendered project",
		Long: `Apply the post-generation steps to a rendered project directory.

The packaged files of the recorded variant are moved under the source root,
files of the unselected build tools are removed and git is initialized when
the answers ask for it.

Examples:
  # Run in the current directory against .copier-answers.yml
  scaffold hook

  # As a copier task
  scaffold hook --copier-conf '{"answers_file": ".copier-answers.yml"}'`,
		Args: cobra.NoArgs,
		RunE: runHook,
	}

	cmd.Flags().StringVar(&hookDir, "dir", ".", "Project directory")
	cmd.Flags().StringVar(&hookAnswers, "answers-file", templates.DefaultAnswersFile,
		"Answers file, relative to the project directory")
	cmd.Flags().StringVar(&hookCopierConf, "copier-conf", "",
		"Copier configuration as JSON; its answers_file overrides --answers-file")
	cmd.Flags().StringVar(&hookSourceRoot, "source-root", "",
		"Package parent directory (default: the root recorded at generation, then config)")

	return cmd
}

func runHook(cmd *cobra.Command, args []string) error {
	answersFile := hookAnswers
	if hookCopierConf != "" {
		var conf copierConf
		if err := json.Unmarshal([]byte(hookCopierConf), &conf); err != nil {
			return oerrors.NewValidationError(
				fmt.Sprintf("invalid copier configuration: %v", err), "--copier-conf", "", "")
		}
		if conf.AnswersFile != "" {
			answersFile = conf.AnswersFile
		}
	}

	path := answersFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(hookDir, path)
	}

	values, err := answers.Load(path)
	if err != nil {
		return err
	}
	ans, err := answers.FromMapping(values)
	if err != nil {
		return err
	}

	sourceRoot := resolveHookSourceRoot(hookSourceRoot, values)

	applier := postgen.NewApplier(postgen.Options{
		ProjectDir: hookDir,
		SourceRoot: sourceRoot,
	})
	result, err := applier.Apply(cmd.Context(), ans)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, output.FormatCheckmark(fmt.Sprintf("packaged %d files into %s",
		len(result.Copied), output.StyleNoun.Render(result.PackageDir))))
	for _, removed := range result.Removed {
		fmt.Fprintln(out, output.FormatCheckmark("removed "+removed))
	}
	if result.GitCommitted {
		fmt.Fprintln(out, output.FormatCheckmark("created baseline commit"))
	} else if result.GitInitialized {
		fmt.Fprintln(out, output.FormatCheckmark("initialized git repository"))
	}

	return nil
}

// resolveHookSourceRoot picks the package parent directory: the flag, then
// the root the project was rendered with, then the configured default.
func resolveHookSourceRoot(flagValue string, recorded map[string]any) string {
	if flagValue != "" {
		return flagValue
	}
	if root, ok := recorded[templates.SourceRootKey].(string); ok && root != "" {
		return filepath.FromSlash(root)
	}
	return GetConfig().SourceRoot
}
