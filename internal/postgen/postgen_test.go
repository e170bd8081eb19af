package postgen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aucampia/copier-python/internal/answers"
	oerrors "github.com/aucampia/copier-python/internal/errors"
	"github.com/aucampia/copier-python/internal/testutil"
	"github.com/aucampia/copier-python/internal/vcs"
)

// variantFiles is the packaged-files layout of the fake generated project.
var variantFiles = map[answers.Variant][]string{
	answers.VariantBasic:        {"__init__.py", "_version.py", "cli/__init__.py", "cli/sub.py"},
	answers.VariantMinimal:      {"__init__.py", "_version.py", "cli.py"},
	answers.VariantMinimalTyper: {"__init__.py", "_version.py", "cli.py", "py.typed"},
}

// generatedProject lays out a project the way the template engine leaves
// it right before the hook runs.
func generatedProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"pyproject.toml": "[tool.poetry]\nname = \"abc\"\n",
		"README.md":      "# abc\n",
		"Makefile":       "configure:\n",
		"Taskfile.yml":   "version: '3'\n",
		"poe_tasks.toml": "[tasks]\n",
	})
	for variant, files := range variantFiles {
		for _, f := range files {
			testutil.WriteFile(t, dir, filepath.Join(PkgFilesDir, string(variant), f), string(variant)+":"+f+"\n")
		}
	}
	return dir
}

type recordingVCS struct {
	calls []string
	fail  string
}

func (r *recordingVCS) record(name string) error {
	r.calls = append(r.calls, name)
	if name == r.fail {
		return oerrors.NewProcessError("git "+name, "", errors.New("exit status 128"))
	}
	return nil
}

func (r *recordingVCS) Init(context.Context) error             { return r.record("init") }
func (r *recordingVCS) AddAll(context.Context) error           { return r.record("add") }
func (r *recordingVCS) Commit(_ context.Context, _ string) error { return r.record("commit") }

func mustAnswers(t *testing.T, fqname string, v answers.Variant, b answers.BuildTool, gitInit, gitCommit bool) *answers.AnswerSet {
	t.Helper()
	a, err := answers.New(fqname, v, b, gitInit, gitCommit)
	require.NoError(t, err)
	return a
}

func TestApply_AllVariantsAndBuildTools(t *testing.T) {
	for _, variant := range answers.Variants() {
		for _, tool := range answers.BuildTools() {
			t.Run(string(variant)+"-"+string(tool), func(t *testing.T) {
				dir := generatedProject(t)
				rec := &recordingVCS{}
				applier := NewApplier(Options{ProjectDir: dir, VCS: rec})

				result, err := applier.Apply(context.Background(), mustAnswers(t, "a.b.c", variant, tool, false, false))
				require.NoError(t, err)

				pkgDir := filepath.Join(dir, "src", "a", "b", "c")
				assert.Equal(t, pkgDir, result.PackageDir)
				assert.ElementsMatch(t, variantFiles[variant], testutil.ListFiles(t, pkgDir),
					"package dir should hold exactly the selected variant's files")

				assert.NoDirExists(t, filepath.Join(dir, PkgFilesDir))

				for _, marker := range answers.AllBuildToolFiles() {
					path := filepath.Join(dir, marker)
					if contains(tool.Files(), marker) {
						assert.FileExists(t, path)
					} else {
						assert.NoFileExists(t, path)
					}
				}
				assert.FileExists(t, filepath.Join(dir, "pyproject.toml"))
				assert.Empty(t, rec.calls)
			})
		}
	}
}

func TestApply_CopiedContent(t *testing.T) {
	dir := generatedProject(t)
	// A stale file at the destination is overwritten.
	testutil.WriteFile(t, dir, "src/pkg/cli.py", "stale\n")

	_, err := NewApplier(Options{ProjectDir: dir, VCS: &recordingVCS{}}).
		Apply(context.Background(), mustAnswers(t, "pkg", answers.VariantMinimal, answers.BuildToolGoTask, false, false))
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "src", "pkg", "cli.py"))
	require.NoError(t, err)
	assert.Equal(t, "minimal:cli.py\n", string(content))

	info, err := os.Stat(filepath.Join(dir, "src", "pkg", "cli.py"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm()&0o644)
}

func TestApply_PreservesSymlinks(t *testing.T) {
	dir := generatedProject(t)
	link := filepath.Join(dir, PkgFilesDir, "basic", "main.py")
	if err := os.Symlink("cli/__init__.py", link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	_, err := NewApplier(Options{ProjectDir: dir, VCS: &recordingVCS{}}).
		Apply(context.Background(), mustAnswers(t, "a.b", answers.VariantBasic, answers.BuildToolGNUMake, false, false))
	require.NoError(t, err)

	target, err := os.Readlink(filepath.Join(dir, "src", "a", "b", "main.py"))
	require.NoError(t, err)
	assert.Equal(t, "cli/__init__.py", target)
}

func TestApply_NoVariantDimension(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"Makefile":              "",
		"Taskfile.yml":          "",
		"poe_tasks.toml":        "",
		"pkg_files/__init__.py": "",
		"pkg_files/cli.py":      "",
	})

	applier := NewApplier(Options{ProjectDir: dir, NoVariantDimension: true, VCS: &recordingVCS{}})
	assert.Equal(t, filepath.Join(dir, PkgFilesDir), applier.SourceDir(answers.VariantBasic))

	_, err := applier.Apply(context.Background(), mustAnswers(t, "x", answers.VariantBasic, answers.BuildToolPoe, false, false))
	require.NoError(t, err)

	assert.Equal(t, []string{"__init__.py", "cli.py"}, testutil.ListFiles(t, filepath.Join(dir, "src", "x")))
	assert.NoDirExists(t, filepath.Join(dir, PkgFilesDir))
	assert.FileExists(t, filepath.Join(dir, "poe_tasks.toml"))
	assert.NoFileExists(t, filepath.Join(dir, "Makefile"))
}

func TestApply_CustomSourceRoot(t *testing.T) {
	dir := generatedProject(t)
	result, err := NewApplier(Options{ProjectDir: dir, SourceRoot: "source", VCS: &recordingVCS{}}).
		Apply(context.Background(), mustAnswers(t, "a.b.c", answers.VariantBasic, answers.BuildToolGNUMake, false, false))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "source", "a", "b", "c"), result.PackageDir)
}

func TestApply_MissingSourceDirMutatesNothing(t *testing.T) {
	dir := generatedProject(t)
	require.NoError(t, os.RemoveAll(filepath.Join(dir, PkgFilesDir, "minimal_typer")))
	before := testutil.ListFiles(t, dir)

	_, err := NewApplier(Options{ProjectDir: dir, VCS: &recordingVCS{}}).
		Apply(context.Background(), mustAnswers(t, "a.b.c", answers.VariantMinimalTyper, answers.BuildToolGNUMake, false, false))
	require.Error(t, err)
	assert.True(t, errors.Is(err, oerrors.ErrNotFound))

	assert.Equal(t, before, testutil.ListFiles(t, dir))
	assert.NoDirExists(t, filepath.Join(dir, "src"))
}

func TestApply_MissingBuildFileFails(t *testing.T) {
	dir := generatedProject(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "Taskfile.yml")))

	_, err := NewApplier(Options{ProjectDir: dir, VCS: &recordingVCS{}}).
		Apply(context.Background(), mustAnswers(t, "a", answers.VariantBasic, answers.BuildToolGNUMake, false, false))
	require.Error(t, err)
	assert.True(t, errors.Is(err, oerrors.ErrNotFound))
	assert.Contains(t, err.Error(), "Taskfile.yml")
}

func TestApply_NilAnswers(t *testing.T) {
	_, err := NewApplier(Options{ProjectDir: t.TempDir()}).Apply(context.Background(), nil)
	assert.True(t, errors.Is(err, oerrors.ErrValidation))
}

func TestApply_VCSSteps(t *testing.T) {
	tests := []struct {
		name       string
		gitInit    bool
		gitCommit  bool
		fail       string
		wantCalls  []string
		wantErr    bool
		wantCommit bool
	}{
		{name: "no git", wantCalls: nil},
		{name: "commit without init is ignored", gitCommit: true, wantCalls: nil},
		{name: "init only", gitInit: true, wantCalls: []string{"init"}},
		{name: "init and commit", gitInit: true, gitCommit: true, wantCalls: []string{"init", "add", "commit"}, wantCommit: true},
		{name: "init failure propagates", gitInit: true, gitCommit: true, fail: "init", wantCalls: []string{"init"}, wantErr: true},
		{name: "commit failure propagates", gitInit: true, gitCommit: true, fail: "commit", wantCalls: []string{"init", "add", "commit"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingVCS{fail: tt.fail}
			result, err := NewApplier(Options{ProjectDir: generatedProject(t), VCS: rec}).
				Apply(context.Background(), mustAnswers(t, "a.b.c", answers.VariantBasic, answers.BuildToolGNUMake, tt.gitInit, tt.gitCommit))

			assert.Equal(t, tt.wantCalls, rec.calls)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, oerrors.ErrProcess))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCommit, result.GitCommitted)
		})
	}
}

func TestApply_EndToEnd(t *testing.T) {
	t.Run("without git", func(t *testing.T) {
		dir := generatedProject(t)
		values := map[string]any{
			"python_package_fqname": "a.b.c",
			"variant":               "basic",
			"build_tool":            "gnu-make",
			"git_init":              false,
			"git_commit":            false,
		}
		ans, err := answers.FromMapping(values)
		require.NoError(t, err)

		_, err = NewApplier(Options{ProjectDir: dir}).Apply(context.Background(), ans)
		require.NoError(t, err)

		assert.FileExists(t, filepath.Join(dir, "src", "a", "b", "c", "cli", "__init__.py"))
		assert.FileExists(t, filepath.Join(dir, "Makefile"))
		assert.NoFileExists(t, filepath.Join(dir, "Taskfile.yml"))
		assert.NoDirExists(t, filepath.Join(dir, ".git"))
	})

	t.Run("with git commit", func(t *testing.T) {
		testutil.RequireGit(t)
		dir := generatedProject(t)

		ans := mustAnswers(t, "a.b.c", answers.VariantBasic, answers.BuildToolGNUMake, true, true)
		result, err := NewApplier(Options{ProjectDir: dir}).Apply(context.Background(), ans)
		require.NoError(t, err)
		assert.True(t, result.GitCommitted)

		assert.DirExists(t, filepath.Join(dir, ".git"))
		count, err := vcs.New(dir).CommitCount(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestCopyTree_ReturnsRelativePaths(t *testing.T) {
	src := t.TempDir()
	testutil.WriteTree(t, src, map[string]string{"a.txt": "a", "sub/b.txt": "b"})

	copied, err := CopyTree(src, filepath.Join(t.TempDir(), "dst"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "sub/b.txt"}, copied)
}

func TestWithin(t *testing.T) {
	assert.True(t, within("/p/pkg_files", "/p"))
	assert.True(t, within("/p", "/p"))
	assert.False(t, within("/template/pkg_files", "/p"))
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
