package templates

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aucampia/copier-python/internal/answers"
	"github.com/aucampia/copier-python/internal/output"
	"github.com/aucampia/copier-python/internal/postgen"
	"github.com/aucampia/copier-python/internal/version"
)

// AnswersHeader precedes the recorded answers.
const AnswersHeader = "# Changes here will be overwritten by scaffold; NEVER EDIT MANUALLY"

// SourceKey records the template location in the answers file.
const SourceKey = "_src_path"

// SourceRootKey carries the package parent directory into rendering and
// the answers file.
const SourceRootKey = "_source_root"

// Generator handles project generation from a template.
type Generator struct {
	opts GenerateOptions
}

// NewGenerator creates a new generator with the given options.
func NewGenerator(opts GenerateOptions) *Generator {
	if opts.Template == nil {
		t := GetDefault()
		opts.Template = &t
	}
	if opts.ToolVersion == "" {
		opts.ToolVersion = version.Version
	}
	return &Generator{opts: opts}
}

// Generate renders the template into the target directory, records the
// answers and runs the post-generation hook.
func (g *Generator) Generate(ctx context.Context) (*GenerateResult, error) {
	tmpl := g.opts.Template

	questions, err := LoadQuestions(tmpl.FS)
	if err != nil {
		return nil, err
	}
	if err := CheckMinVersion(questions.Settings.MinVersion, g.opts.ToolVersion); err != nil {
		return nil, err
	}

	layers := append(append([]map[string]any{}, g.opts.Answers...), g.opts.Data)
	values, err := questions.Resolve(answers.NormalizeAliases(answers.Resolve(layers...)))
	if err != nil {
		return nil, err
	}

	sourceRoot := g.opts.SourceRoot
	if sourceRoot == "" {
		sourceRoot = postgen.DefaultSourceRoot
	}
	values[SourceRootKey] = filepath.ToSlash(sourceRoot)

	ans, err := answers.FromMapping(values)
	if err != nil {
		return nil, err
	}

	if err := checkTargetDir(g.opts.TargetDir, g.opts.Force); err != nil {
		return nil, err
	}

	output.Debug("generating project",
		"template", tmpl.Name,
		"package", ans.PythonPackageFQName,
		"variant", ans.Variant,
		"buildTool", ans.BuildTool,
		"target", g.opts.TargetDir)

	renderer := NewRenderer(values)
	files, err := renderer.RenderTemplate(tmpl.FS, questions.Settings.Exclude)
	if err != nil {
		return nil, fmt.Errorf("rendering template: %w", err)
	}

	created := make([]string, 0, len(files))
	for _, f := range files {
		if err := writeFile(g.opts.TargetDir, f); err != nil {
			return nil, err
		}
		output.Debug("created file", "path", f.TargetPath)
		created = append(created, f.TargetPath)
	}

	recorded := answers.Resolve(values, map[string]any{SourceKey: tmpl.Name})
	answersPath := filepath.Join(g.opts.TargetDir, filepath.FromSlash(questions.Settings.AnswersFile))
	if err := answers.Write(answersPath, AnswersHeader, recorded); err != nil {
		return nil, err
	}

	result := &GenerateResult{
		Files:        created,
		TemplateName: tmpl.Name,
		TargetDir:    g.opts.TargetDir,
		AnswersFile:  questions.Settings.AnswersFile,
		Answers:      ans,
	}

	if g.opts.SkipHook {
		return result, nil
	}

	applier := postgen.NewApplier(postgen.Options{
		ProjectDir: g.opts.TargetDir,
		SourceRoot: sourceRoot,
		VCS:        g.opts.VCS,
	})
	hook, err := applier.Apply(ctx, ans)
	if err != nil {
		return nil, err
	}
	result.Hook = hook

	return result, nil
}

func writeFile(dir string, f TemplateFile) error {
	targetPath := filepath.Join(dir, filepath.FromSlash(f.TargetPath))

	parentDir := filepath.Dir(targetPath)
	if err := os.MkdirAll(parentDir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", parentDir, err)
	}

	if f.LinkTarget != "" {
		if err := os.Remove(targetPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("replacing %s: %w", targetPath, err)
		}
		if err := os.Symlink(f.LinkTarget, targetPath); err != nil {
			return fmt.Errorf("creating link %s: %w", targetPath, err)
		}
		return nil
	}

	if err := os.WriteFile(targetPath, f.Content, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", targetPath, err)
	}
	return nil
}
