package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aucampia/copier-python/internal/postgen"
	"github.com/aucampia/copier-python/internal/templates"
)

// Engine renders a template into an output directory.
type Engine interface {
	// Name prefixes the cache entry directories of this engine.
	Name() string

	// Render generates the project in outputDir and returns the resolved
	// answers as a YAML document.
	Render(ctx context.Context, templatePath string, data map[string]any, outputDir string) ([]byte, error)
}

// CopyEngine renders with the native generator and reads back the
// recorded answers file.
type CopyEngine struct {
	// VCS is passed to the hook. Nil uses git.
	VCS postgen.VCS
}

// Name implements Engine.
func (CopyEngine) Name() string { return "copied" }

// Render implements Engine.
func (e CopyEngine) Render(ctx context.Context, templatePath string, data map[string]any, outputDir string) ([]byte, error) {
	result, err := generate(ctx, templatePath, data, outputDir, e.VCS, false)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(filepath.Join(outputDir, filepath.FromSlash(result.AnswersFile)))
	if err != nil {
		return nil, fmt.Errorf("reading recorded answers: %w", err)
	}
	return raw, nil
}

// CookiecutterInputFile is the replay file BakeEngine leaves in the project.
const CookiecutterInputFile = "cookiecutter-input.yaml"

// BakeEngine renders like CopyEngine and records the answers cookiecutter
// style, under default_context in cookiecutter-input.yaml, before the hook
// runs so the file is part of any baseline commit. Private keys are left
// out. An existing file is kept.
type BakeEngine struct {
	VCS postgen.VCS
}

// Name implements Engine.
func (BakeEngine) Name() string { return "baked" }

// Render implements Engine.
func (e BakeEngine) Render(ctx context.Context, templatePath string, data map[string]any, outputDir string) ([]byte, error) {
	result, err := generate(ctx, templatePath, data, outputDir, e.VCS, true)
	if err != nil {
		return nil, err
	}

	defaultContext := map[string]any{}
	for k, v := range result.Answers.Values() {
		if strings.HasPrefix(k, "_") {
			continue
		}
		defaultContext[k] = v
	}
	contextYAML, err := yaml.Marshal(defaultContext)
	if err != nil {
		return nil, fmt.Errorf("encoding context: %w", err)
	}

	inputPath := filepath.Join(outputDir, CookiecutterInputFile)
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		doc, err := yaml.Marshal(map[string]any{"default_context": defaultContext})
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", CookiecutterInputFile, err)
		}
		if err := os.WriteFile(inputPath, doc, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", inputPath, err)
		}
	}

	applier := postgen.NewApplier(postgen.Options{ProjectDir: outputDir, VCS: e.VCS})
	if _, err := applier.Apply(ctx, result.Answers); err != nil {
		return nil, err
	}
	return contextYAML, nil
}

func generate(ctx context.Context, templatePath string, data map[string]any, outputDir string, vcs postgen.VCS, skipHook bool) (*templates.GenerateResult, error) {
	tmpl, err := templates.Open(templatePath)
	if err != nil {
		return nil, err
	}
	return templates.NewGenerator(templates.GenerateOptions{
		TargetDir: outputDir,
		Template:  &tmpl,
		Data:      data,
		SkipHook:  skipHook,
		VCS:       vcs,
	}).Generate(ctx)
}
