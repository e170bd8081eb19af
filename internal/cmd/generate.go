package cmd

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aucampia/copier-python/internal/answers"
	"github.com/aucampia/copier-python/internal/output"
	"github.com/aucampia/copier-python/internal/templates"
)

var (
	generateTemplate   string
	generateData       []string
	generateAnswers    []string
	generateForce      bool
	generateSkipHook   bool
	generateSourceRoot string
)

// NewGenerateCmd creates the generate command.
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <dir>",
		Short: "Generate a project from a template",
		Long: `Generate a Python project into <dir>.

Answers are taken from --answers files first, then --data assignments.
Questions without an answer use their template default.

Examples:
  # Generate with the built-in template and default answers
  scaffold generate ./demo

  # Pick a namespaced package, variant and build tool
  scaffold generate ./demo \
    --data python_package_fqname=acme.tools.demo \
    --data variant=minimal_typer --data build_tool=go-task

  # Reuse a recorded answer file
  scaffold generate ./demo --answers answers/basic.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: runGenerate,
	}

	cmd.Flags().StringVarP(&generateTemplate, "template", "t", "",
		fmt.Sprintf("Template name or directory (registered: %s)", strings.Join(templates.Names(), ", ")))
	cmd.Flags().StringArrayVarP(&generateData, "data", "d", nil,
		"Answer as key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&generateAnswers, "answers", "a", nil,
		"YAML answer file (repeatable, later files win)")
	cmd.Flags().BoolVarP(&generateForce, "force", "f", false,
		"Generate into a non-empty directory")
	cmd.Flags().BoolVar(&generateSkipHook, "skip-hook", false,
		"Leave the rendered tree without post-generation steps")
	cmd.Flags().StringVar(&generateSourceRoot, "source-root", "",
		"Package parent directory (default from config)")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	targetDir := args[0]
	cfg := GetConfig()

	tmpl, err := templates.Open(generateTemplate)
	if err != nil {
		return err
	}

	layers := make([]map[string]any, 0, len(generateAnswers))
	for _, path := range generateAnswers {
		values, err := answers.Load(path)
		if err != nil {
			return err
		}
		layers = append(layers, values)
	}

	data, err := answers.ParseAssignments(generateData)
	if err != nil {
		return err
	}

	sourceRoot := generateSourceRoot
	if sourceRoot == "" {
		sourceRoot = cfg.SourceRoot
	}

	gen := templates.NewGenerator(templates.GenerateOptions{
		TargetDir:  targetDir,
		Template:   &tmpl,
		Answers:    layers,
		Data:       data,
		Force:      generateForce,
		SkipHook:   generateSkipHook,
		SourceRoot: sourceRoot,
	})
	result, err := gen.Generate(cmd.Context())
	if err != nil {
		return err
	}

	absDir, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("getting absolute path: %w", err)
	}

	files, err := listProjectFiles(targetDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created project %s (%s) in %s\n\n",
		output.StyleNoun.Render(result.Answers.PythonPackageFQName), result.Answers.Variant, absDir)
	fmt.Fprint(out, output.RenderFileTree(filepath.Base(absDir), describeFiles(files, result.AnswersFile)))

	return nil
}

// listProjectFiles returns the files under dir, slash separated, skipping
// the git directory.
func listProjectFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	return files, nil
}

// describeFiles annotates well-known files for the created-project tree.
func describeFiles(files []string, answersFile string) map[string]string {
	descriptions := map[string]string{
		"pyproject.toml":    "Project metadata",
		"README.md":         "Project readme",
		"Makefile":          "GNU make targets",
		"Taskfile.yml":      "go-task targets",
		"poe_tasks.toml":    "poe tasks",
		answersFile:         "Recorded answers",
		"tests/test_cli.py": "CLI tests",
	}

	result := make(map[string]string, len(files))
	for _, f := range files {
		result[f] = descriptions[f]
	}
	return result
}
