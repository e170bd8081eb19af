// Package postgen implements the post-generation hook: it moves the selected
// variant's packaged files into the namespaced package directory, removes
// the build files of unselected build tools, and optionally initializes
// git.
package postgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/aucampia/copier-python/internal/answers"
	oerrors "github.com/aucampia/copier-python/internal/errors"
	"github.com/aucampia/copier-python/internal/output"
	"github.com/aucampia/copier-python/internal/vcs"
)

const (
	// PkgFilesDir is the staging directory holding the packaged files of
	// every variant.
	PkgFilesDir = "pkg_files"

	// DefaultSourceRoot is the directory the package tree is created under.
	DefaultSourceRoot = "src"
)

// VCS is the subset of git the hook drives.
type VCS interface {
	Init(ctx context.Context) error
	AddAll(ctx context.Context) error
	Commit(ctx context.Context, message string) error
}

// Options configures an Applier.
type Options struct {
	// ProjectDir is the generated project root.
	ProjectDir string

	// TemplateRoot holds pkg_files. Defaults to ProjectDir, where the
	// template engine leaves the staging directory.
	TemplateRoot string

	// SourceRoot is the package parent directory, relative to ProjectDir.
	SourceRoot string

	// NoVariantDimension makes pkg_files itself the source directory.
	NoVariantDimension bool

	// VCS runs git. Defaults to git in ProjectDir.
	VCS VCS

	// Logger defaults to the "hook" component logger.
	Logger *log.Logger
}

// Applier applies the post-generation steps to one generated project.
type Applier struct {
	opts Options
	log  *log.Logger
}

// NewApplier creates an Applier, filling defaults.
func NewApplier(opts Options) *Applier {
	opts.ProjectDir = absPath(opts.ProjectDir)
	if opts.TemplateRoot == "" {
		opts.TemplateRoot = opts.ProjectDir
	}
	opts.TemplateRoot = absPath(opts.TemplateRoot)
	if opts.SourceRoot == "" {
		opts.SourceRoot = DefaultSourceRoot
	}
	if opts.VCS == nil {
		opts.VCS = vcs.New(opts.ProjectDir)
	}
	logger := opts.Logger
	if logger == nil {
		logger = output.ComponentLogger("hook")
	}
	return &Applier{opts: opts, log: logger}
}

// Result describes what Apply did.
type Result struct {
	// PackageDir is the absolute destination of the packaged files.
	PackageDir string

	// Copied lists copied files relative to PackageDir.
	Copied []string

	// Removed lists removed build files relative to ProjectDir.
	Removed []string

	// GitInitialized and GitCommitted report the VCS steps performed.
	GitInitialized bool
	GitCommitted   bool
}

// SourceDir returns the packaged-files directory for variant.
func (a *Applier) SourceDir(variant answers.Variant) string {
	if a.opts.NoVariantDimension {
		return filepath.Join(a.opts.TemplateRoot, PkgFilesDir)
	}
	return filepath.Join(a.opts.TemplateRoot, PkgFilesDir, string(variant))
}

// PackageDir returns the destination package directory for ans.
func (a *Applier) PackageDir(ans *answers.AnswerSet) string {
	parts := append([]string{a.opts.ProjectDir, a.opts.SourceRoot}, ans.NamespaceParts()...)
	return filepath.Join(parts...)
}

// Apply runs the hook steps in order. Nothing is mutated when the answer
// set is nil or the source directory is missing.
func (a *Applier) Apply(ctx context.Context, ans *answers.AnswerSet) (*Result, error) {
	if ans == nil {
		return nil, oerrors.NewValidationError("no answers given", a.opts.ProjectDir, "", "")
	}

	src := a.SourceDir(ans.Variant)
	dst := a.PackageDir(ans)

	a.log.Info("applying post-generation steps", "project", a.opts.ProjectDir)
	a.log.Debug("resolved answers", "answers", ans.String())
	a.log.Debug("resolved paths", "source", src, "destination", dst)

	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, oerrors.NewNotFoundError(
				fmt.Sprintf("packaged files for variant %q not found", ans.Variant), src,
				"The template must provide pkg_files/<variant>.")
		}
		return nil, fmt.Errorf("checking %s: %w", src, err)
	}
	if !info.IsDir() {
		return nil, oerrors.NewNotFoundError("packaged files path is not a directory", src, "")
	}

	result := &Result{PackageDir: dst}

	a.log.Debug("creating package directory", "path", dst)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, fmt.Errorf("creating package directory %s: %w", dst, err)
	}

	a.log.Debug("copying packaged files", "from", src, "to", dst)
	copied, err := CopyTree(src, dst)
	if err != nil {
		return nil, err
	}
	result.Copied = copied

	staging := src
	if !a.opts.NoVariantDimension {
		staging = filepath.Dir(src)
	}
	// The staging directory is only part of the generated tree when the
	// template was rendered into the project.
	if within(staging, a.opts.ProjectDir) {
		a.log.Debug("removing staging directory", "path", staging)
		if err := os.RemoveAll(staging); err != nil {
			return nil, fmt.Errorf("removing %s: %w", staging, err)
		}
	}

	removed, err := a.removeUnusedBuildFiles(ans.BuildTool)
	if err != nil {
		return nil, err
	}
	result.Removed = removed

	if ans.GitInit {
		a.log.Info("initializing git repository")
		if err := a.opts.VCS.Init(ctx); err != nil {
			return nil, err
		}
		result.GitInitialized = true

		if ans.GitCommit {
			a.log.Info("creating baseline commit")
			if err := a.opts.VCS.AddAll(ctx); err != nil {
				return nil, err
			}
			if err := a.opts.VCS.Commit(ctx, vcs.BaselineMessage); err != nil {
				return nil, err
			}
			result.GitCommitted = true
		}
	}

	return result, nil
}

// removeUnusedBuildFiles deletes the marker files of every build tool other
// than keep. A missing marker file is an error.
func (a *Applier) removeUnusedBuildFiles(keep answers.BuildTool) ([]string, error) {
	unused := answers.UnusedBuildToolFiles(keep)
	a.log.Info("removing unused build files", "files", unused)

	for _, name := range unused {
		path := filepath.Join(a.opts.ProjectDir, name)
		a.log.Debug("removing unused build file", "path", path)
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				return nil, oerrors.NewNotFoundError(
					fmt.Sprintf("build file %s does not exist", name), path,
					"The template must provide the build files of every build tool.")
			}
			return nil, fmt.Errorf("removing %s: %w", path, err)
		}
	}
	return unused, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
