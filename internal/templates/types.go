// Package templates provides the project template system behind
// scaffold generate: an embedded Python project template, a questions file
// parser, a text/template renderer and the generator that ties them to the
// post-generation hook.
package templates

import (
	"io/fs"

	"github.com/aucampia/copier-python/internal/answers"
	"github.com/aucampia/copier-python/internal/postgen"
)

// Template is a renderable template tree.
type Template struct {
	// Name is the registry name, or the directory for on-disk templates.
	Name string

	// Description explains the template's purpose.
	Description string

	// Default indicates if this is the default template when --template is omitted.
	Default bool

	// FS is the template tree. The questions file sits at its root.
	FS fs.FS
}

// GenerateOptions configures project generation.
type GenerateOptions struct {
	// TargetDir is the directory to generate the project in.
	TargetDir string

	// Template is the tree to render. Defaults to the embedded template.
	Template *Template

	// Answers are answer layers applied over the question defaults, later
	// layers winning.
	Answers []map[string]any

	// Data holds command-line overrides, applied last.
	Data map[string]any

	// Force allows generating into a non-empty directory.
	Force bool

	// SkipHook leaves pkg_files and every build file in place.
	SkipHook bool

	// SourceRoot overrides the hook's package parent directory.
	SourceRoot string

	// VCS is passed to the hook. Nil uses git.
	VCS postgen.VCS

	// ToolVersion is checked against the template's minimum version.
	// Defaults to the running binary's version.
	ToolVersion string
}

// GenerateResult contains the result of project generation.
type GenerateResult struct {
	// Files lists the rendered files, relative to TargetDir, before the
	// hook moved any of them.
	Files []string

	// TemplateName is the template that was used.
	TemplateName string

	// TargetDir is the directory where files were created.
	TargetDir string

	// AnswersFile is the recorded answers file, relative to TargetDir.
	AnswersFile string

	// Answers is the resolved answer set.
	Answers *answers.AnswerSet

	// Hook is nil when the hook was skipped.
	Hook *postgen.Result
}
