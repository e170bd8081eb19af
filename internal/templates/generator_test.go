package templates

import (
	"context"
	"errors"
	"io/fs"
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

type nopVCS struct{ inits, commits int }

func (n *nopVCS) Init(context.Context) error           { n.inits++; return nil }
func (n *nopVCS) AddAll(context.Context) error         { return nil }
func (n *nopVCS) Commit(context.Context, string) error { n.commits++; return nil }

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"python"}, Names())
	assert.Equal(t, DefaultTemplateName, GetDefault().Name)
	assert.Len(t, List(), 1)

	_, err := Get("nope")
	assert.True(t, errors.Is(err, oerrors.ErrNotFound))
}

func TestEmbeddedTemplateLayout(t *testing.T) {
	fsys := GetDefault().FS
	for _, name := range append([]string{QuestionsFile, "pyproject.toml.tmpl"}, answers.AllBuildToolFiles()...) {
		data, err := fs.ReadFile(fsys, name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}
	for _, variant := range answers.Variants() {
		_, err := fs.ReadFile(fsys, "pkg_files/"+string(variant)+"/__init__.py")
		assert.NoError(t, err, variant)
	}
}

func TestOpen(t *testing.T) {
	t.Run("empty is default", func(t *testing.T) {
		tmpl, err := Open("")
		require.NoError(t, err)
		assert.Equal(t, DefaultTemplateName, tmpl.Name)
	})

	t.Run("directory", func(t *testing.T) {
		dir := t.TempDir()
		testutil.WriteFile(t, dir, QuestionsFile, "name: x\n")
		tmpl, err := Open(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, tmpl.Name)
	})

	t.Run("directory without questions", func(t *testing.T) {
		_, err := Open(t.TempDir())
		assert.True(t, errors.Is(err, oerrors.ErrNotFound))
	})

	t.Run("missing", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "missing"))
		assert.True(t, errors.Is(err, oerrors.ErrNotFound))
	})
}

func TestGenerate_AllVariantsAndBuildTools(t *testing.T) {
	for _, variant := range answers.Variants() {
		for _, tool := range answers.BuildTools() {
			t.Run(string(variant)+"-"+string(tool), func(t *testing.T) {
				dir := filepath.Join(t.TempDir(), "project")
				result, err := NewGenerator(GenerateOptions{
					TargetDir: dir,
					Data: map[string]any{
						"project_name":          "Demo",
						"python_package_fqname": "acme.tools.demo",
						"variant":               string(variant),
						"build_tool":            string(tool),
					},
					VCS: &nopVCS{},
				}).Generate(context.Background())
				require.NoError(t, err)

				assert.Equal(t, variant, result.Answers.Variant)
				require.NotNil(t, result.Hook)
				assert.Equal(t, filepath.Join(dir, "src", "acme", "tools", "demo"), result.Hook.PackageDir)

				assert.FileExists(t, filepath.Join(result.Hook.PackageDir, "__init__.py"))
				assert.NoDirExists(t, filepath.Join(dir, "pkg_files"))
				assert.NoFileExists(t, filepath.Join(dir, QuestionsFile))

				for _, marker := range answers.AllBuildToolFiles() {
					if marker == tool.Files()[0] {
						assert.FileExists(t, filepath.Join(dir, marker))
					} else {
						assert.NoFileExists(t, filepath.Join(dir, marker))
					}
				}

				pyproject, err := os.ReadFile(filepath.Join(dir, "pyproject.toml"))
				require.NoError(t, err)
				assert.Contains(t, string(pyproject), `name = "acme-tools-demo"`)
				assert.Contains(t, string(pyproject), `acme-tools-demo = "acme.tools.demo.cli:main"`)

				testFile, err := os.ReadFile(filepath.Join(dir, "tests", "test_cli.py"))
				require.NoError(t, err)
				assert.Contains(t, string(testFile), "from acme.tools.demo.cli import cli")
			})
		}
	}
}

func TestGenerate_RecordsAnswers(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(t.TempDir(), "answers.yaml")
	testutil.WriteFile(t, filepath.Dir(override), filepath.Base(override),
		"python_package_fqname: from.file\nvariant: minimal\n")
	fromFile, err := answers.Load(override)
	require.NoError(t, err)

	result, err := NewGenerator(GenerateOptions{
		TargetDir: dir,
		Answers:   []map[string]any{fromFile},
		Data:      map[string]any{"variant": "minimal_typer"},
		SkipHook:  true,
	}).Generate(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result.Hook)
	assert.Equal(t, DefaultAnswersFile, result.AnswersFile)

	recorded, err := answers.Load(filepath.Join(dir, DefaultAnswersFile))
	require.NoError(t, err)
	assert.Equal(t, "from.file", recorded["python_package_fqname"])
	assert.Equal(t, "minimal_typer", recorded["variant"])
	assert.Equal(t, "gnu-make", recorded["build_tool"])
	assert.Equal(t, DefaultTemplateName, recorded[SourceKey])

	raw, err := os.ReadFile(filepath.Join(dir, DefaultAnswersFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), AnswersHeader)

	// The hook was skipped, so the staging directory and every build file remain.
	assert.DirExists(t, filepath.Join(dir, "pkg_files", "basic"))
	for _, marker := range answers.AllBuildToolFiles() {
		assert.FileExists(t, filepath.Join(dir, marker))
	}
}

func TestGenerate_InitGitAlias(t *testing.T) {
	tests := []struct {
		name     string
		data     map[string]any
		wantInit bool
	}{
		{"cookiecutter yes", map[string]any{"init_git": "y", "git_commit": true}, true},
		{"cookiecutter no", map[string]any{"init_git": "n"}, false},
		{"git_init wins", map[string]any{"init_git": "y", "git_init": false}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			git := &nopVCS{}
			data := map[string]any{"python_package_fqname": "a.b.c"}
			for k, v := range tt.data {
				data[k] = v
			}

			result, err := NewGenerator(GenerateOptions{TargetDir: dir, Data: data, VCS: git}).Generate(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.wantInit, result.Answers.GitInit)
			assert.Equal(t, tt.wantInit, result.Hook.GitInitialized)
			if tt.wantInit {
				assert.Equal(t, 1, git.inits)
			} else {
				assert.Zero(t, git.inits)
			}

			recorded, err := answers.Load(filepath.Join(dir, DefaultAnswersFile))
			require.NoError(t, err)
			assert.Equal(t, tt.wantInit, recorded["git_init"])
			assert.NotContains(t, recorded, "init_git")
		})
	}

	t.Run("commit follows the alias", func(t *testing.T) {
		git := &nopVCS{}
		result, err := NewGenerator(GenerateOptions{
			TargetDir: t.TempDir(),
			Data:      map[string]any{"python_package_fqname": "a.b.c", "init_git": "y", "git_commit": true},
			VCS:       git,
		}).Generate(context.Background())
		require.NoError(t, err)
		assert.True(t, result.Hook.GitCommitted)
		assert.Equal(t, 1, git.commits)
	})
}

func TestGenerate_SourceRootReachesTemplate(t *testing.T) {
	for _, root := range []string{"", "source", "lib/python"} {
		t.Run("root="+root, func(t *testing.T) {
			dir := t.TempDir()
			result, err := NewGenerator(GenerateOptions{
				TargetDir:  dir,
				Data:       map[string]any{"python_package_fqname": "a.b.c"},
				SourceRoot: root,
				VCS:        &nopVCS{},
			}).Generate(context.Background())
			require.NoError(t, err)

			want := root
			if want == "" {
				want = "src"
			}
			assert.DirExists(t, filepath.Join(dir, filepath.FromSlash(want), "a", "b", "c"))
			assert.Equal(t, filepath.Join(dir, filepath.FromSlash(want), "a", "b", "c"), result.Hook.PackageDir)

			pyproject, err := os.ReadFile(filepath.Join(dir, "pyproject.toml"))
			require.NoError(t, err)
			assert.Contains(t, string(pyproject), `packages = [{ include = "a", from = "`+want+`" }]`)
			assert.Contains(t, string(pyproject), `src_paths = ["`+want+`", "tests"]`)
			assert.Contains(t, string(pyproject), `files = "`+want+`,tests"`)

			recorded, err := answers.Load(filepath.Join(dir, DefaultAnswersFile))
			require.NoError(t, err)
			assert.Equal(t, want, recorded[SourceRootKey])
		})
	}
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("non-empty target", func(t *testing.T) {
		dir := t.TempDir()
		testutil.WriteFile(t, dir, "existing.txt", "x")
		_, err := NewGenerator(GenerateOptions{TargetDir: dir, SkipHook: true}).Generate(context.Background())
		assert.True(t, errors.Is(err, oerrors.ErrValidation))
	})

	t.Run("non-empty target with force", func(t *testing.T) {
		dir := t.TempDir()
		testutil.WriteFile(t, dir, "existing.txt", "x")
		_, err := NewGenerator(GenerateOptions{TargetDir: dir, SkipHook: true, Force: true}).Generate(context.Background())
		assert.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "existing.txt"))
	})

	t.Run("invalid package name", func(t *testing.T) {
		dir := t.TempDir()
		_, err := NewGenerator(GenerateOptions{
			TargetDir: dir,
			Data:      map[string]any{"python_package_fqname": "a..b"},
		}).Generate(context.Background())
		assert.True(t, errors.Is(err, oerrors.ErrValidation))
		assert.Empty(t, testutil.ListFiles(t, dir))
	})

	t.Run("tool too old", func(t *testing.T) {
		_, err := NewGenerator(GenerateOptions{TargetDir: t.TempDir(), ToolVersion: "0.0.1"}).Generate(context.Background())
		assert.True(t, errors.Is(err, oerrors.ErrValidation))
	})
}

func TestGenerate_OnDiskTemplate(t *testing.T) {
	src := t.TempDir()
	testutil.WriteTree(t, src, map[string]string{
		QuestionsFile:                        "python_package_fqname: pkg\nvariant: minimal\nbuild_tool: poe\ngit_init: false\ngit_commit: false\n",
		"Makefile":                           "",
		"Taskfile.yml":                       "",
		"poe_tasks.toml":                     "",
		"pkg_files/minimal/__init__.py.tmpl": "NAME = '{{ .python_package_fqname }}'\n",
	})
	tmpl, err := Open(src)
	require.NoError(t, err)

	dir := t.TempDir()
	_, err = NewGenerator(GenerateOptions{TargetDir: dir, Template: &tmpl}).Generate(context.Background())
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "src", "pkg", "__init__.py"))
	require.NoError(t, err)
	assert.Equal(t, "NAME = 'pkg'\n", string(content))
	assert.FileExists(t, filepath.Join(dir, "poe_tasks.toml"))
}

func TestGenerate_GitBaseline(t *testing.T) {
	testutil.RequireGit(t)
	dir := t.TempDir()

	_, err := NewGenerator(GenerateOptions{
		TargetDir: dir,
		Data:      map[string]any{"git_init": true, "git_commit": true},
	}).Generate(context.Background())
	require.NoError(t, err)

	count, err := vcs.New(dir).CommitCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
