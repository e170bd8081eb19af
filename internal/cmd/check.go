package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aucampia/copier-python/internal/answers"
	oerrors "github.com/aucampia/copier-python/internal/errors"
	"github.com/aucampia/copier-python/internal/harness"
	"github.com/aucampia/copier-python/internal/output"
)

var (
	checkAnswers []string
	checkData    []string
	checkActions []string
	checkEngine  string
	checkRapid   bool
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [template]",
		Short: "Generate projects and run their workflows",
		Long: `Generate and configure one project per answer set, then run workflow
actions against it with the project's own build tool.

Generated projects are kept under the cache directory. In rapid mode a
project persisted by an earlier run is reused without regenerating it.

Answer sets given with --answers are YAML files or names of fixtures in the
configured answersDir. Without --answers the template defaults are used.

Examples:
  # Validate the built-in template with its defaults
  scaffold check

  # Check two fixtures with both actions, regenerating from scratch
  scaffold check ./template --answers basic --answers minimal_typer \
    --action validate --action cli --rapid=false`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCheck,
	}

	cmd.Flags().StringArrayVarP(&checkAnswers, "answers", "a", nil,
		"Answer file or fixture name (repeatable, one project each)")
	cmd.Flags().StringArrayVarP(&checkData, "data", "d", nil,
		"Answer override as key=value applied to every set (repeatable)")
	cmd.Flags().StringArrayVar(&checkActions, "action", []string{string(harness.ActionValidate)},
		"Workflow action: validate or cli (repeatable)")
	cmd.Flags().StringVar(&checkEngine, "engine", "copy", "Template engine: copy or bake")
	cmd.Flags().BoolVar(&checkRapid, "rapid", true, "Reuse persisted projects (env: SCAFFOLD_RAPID, TEST_RAPID)")

	return cmd
}

// answerSet is one named set of answers to check.
type answerSet struct {
	label  string
	values map[string]any
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	templatePath := ""
	if len(args) == 1 {
		templatePath = args[0]
	}

	actions := make([]harness.Action, 0, len(checkActions))
	for _, name := range checkActions {
		action, err := harness.ParseAction(name)
		if err != nil {
			return err
		}
		actions = append(actions, action)
	}

	engine, err := parseEngine(checkEngine)
	if err != nil {
		return err
	}

	overrides, err := answers.ParseAssignments(checkData)
	if err != nil {
		return err
	}

	sets, err := loadAnswerSets(checkAnswers, cfg.AnswersDir)
	if err != nil {
		return err
	}

	rapid := cfg.Rapid
	if cmd.Flags().Changed("rapid") {
		rapid = checkRapid
	}

	// Script output is shown only for failing steps unless verbose.
	var scriptOutput bytes.Buffer
	runner := harness.BashRunner{Stdout: os.Stderr, Stderr: os.Stderr}
	if !verboseFlag {
		runner = harness.BashRunner{Stdout: &scriptOutput, Stderr: &scriptOutput}
	}

	cache := harness.NewCache(harness.Options{
		Engine:        engine,
		Runner:        runner,
		TempDir:       cfg.CacheDir,
		Rapid:         rapid,
		Excludes:      cfg.HashExclude,
		RuntimeMarker: cfg.RuntimeMarker,
	})

	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	step := func(title string, fn func(context.Context) error) error {
		scriptOutput.Reset()
		err := output.RunWithSpinner(ctx, title, fn)
		if err != nil && scriptOutput.Len() > 0 {
			_, _ = io.Copy(cmd.ErrOrStderr(), &scriptOutput)
		}
		return err
	}

	var failed []string
	var firstErr error
	for _, set := range sets {
		data := answers.Resolve(set.values, overrides)

		var result *harness.Result
		err := step("preparing "+set.label, func(ctx context.Context) error {
			var err error
			result, err = cache.GetOrCreate(ctx, templatePath, data)
			return err
		})
		if err != nil {
			fmt.Fprintln(out, output.FormatCross(set.label+": prepare"))
			failed = append(failed, set.label)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		state := "generated"
		if result.Reused {
			state = "reused"
		}
		fmt.Fprintln(out, output.FormatCheckmark(fmt.Sprintf("%s: %s %s",
			set.label, state, output.StyleNoun.Render(result.ProjectDir))))

		for _, action := range actions {
			err := step(fmt.Sprintf("%s: %s", set.label, action), func(ctx context.Context) error {
				return cache.Run(ctx, result, action)
			})
			name := fmt.Sprintf("%s: %s", set.label, action)
			if err != nil {
				fmt.Fprintln(out, output.FormatCross(name))
				failed = append(failed, name)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			fmt.Fprintln(out, output.FormatCheckmark(name))
		}
	}

	if firstErr != nil {
		return fmt.Errorf("%d check(s) failed (%s): %w", len(failed), strings.Join(failed, ", "), firstErr)
	}
	return nil
}

func parseEngine(name string) (harness.Engine, error) {
	switch name {
	case "copy":
		return harness.CopyEngine{}, nil
	case "bake":
		return harness.BakeEngine{}, nil
	}
	return nil, oerrors.NewValidationError(
		fmt.Sprintf("invalid engine %q", name), "", "engine", "Valid engines: copy, bake")
}

// loadAnswerSets resolves each reference: an existing file is loaded
// directly, anything else is a fixture name looked up in fixtureDir.
func loadAnswerSets(refs []string, fixtureDir string) ([]answerSet, error) {
	if len(refs) == 0 {
		return []answerSet{{label: "defaults", values: map[string]any{}}}, nil
	}

	sets := make([]answerSet, 0, len(refs))
	for _, ref := range refs {
		if info, err := os.Stat(ref); err == nil && !info.IsDir() {
			values, err := answers.Load(ref)
			if err != nil {
				return nil, err
			}
			label := strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref))
			sets = append(sets, answerSet{label: label, values: values})
			continue
		}

		if fixtureDir == "" {
			return nil, oerrors.NewNotFoundError(
				fmt.Sprintf("answer file %q not found", ref), ref,
				"Set answersDir in the config file to look up fixtures by name.")
		}
		values, err := answers.LoadNamed(fixtureDir, ref)
		if err != nil {
			return nil, err
		}
		sets = append(sets, answerSet{label: ref, values: values})
	}
	return sets, nil
}
