package digest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func standardTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"copier.yml":                 "variant: basic\n",
		"template/Makefile":          "all:\n",
		"template/pkg_files/cli.py":  "print('hi')\n",
		"tests/test_copy.py":         "def test(): pass\n",
		".git/HEAD":                  "ref: refs/heads/main\n",
		"template/.venv/bin/python3": "binary",
	})
	return root
}

func TestHashTree_Format(t *testing.T) {
	d, err := HashTree(standardTree(t), nil)
	require.NoError(t, err)
	assert.Len(t, d, 64, "SHA256 hex should be 64 chars")
	assert.Equal(t, Prefix+d, Format(d))
	assert.Equal(t, Prefix+d, Format(Format(d)))
}

func TestHashTree_Deterministic(t *testing.T) {
	root := standardTree(t)

	d1, err := HashTree(root, DefaultTemplateExcludes)
	require.NoError(t, err)
	d2, err := HashTree(root, DefaultTemplateExcludes)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestHashTree_IndependentOfLocation(t *testing.T) {
	d1, err := HashTree(standardTree(t), nil)
	require.NoError(t, err)
	d2, err := HashTree(standardTree(t), nil)
	require.NoError(t, err)
	assert.Equal(t, d1, d2, "identical trees in different directories should hash equally")
}

func TestHashTree_Changes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, root string)
	}{
		{"modify file", func(t *testing.T, root string) {
			writeTree(t, root, map[string]string{"template/Makefile": "all: build\n"})
		}},
		{"add file", func(t *testing.T, root string) {
			writeTree(t, root, map[string]string{"template/Taskfile.yml": "version: 3\n"})
		}},
		{"remove file", func(t *testing.T, root string) {
			require.NoError(t, os.Remove(filepath.Join(root, "copier.yml")))
		}},
		{"rename file", func(t *testing.T, root string) {
			require.NoError(t, os.Rename(
				filepath.Join(root, "template", "Makefile"),
				filepath.Join(root, "template", "GNUmakefile")))
		}},
		{"add empty directory", func(t *testing.T, root string) {
			require.NoError(t, os.Mkdir(filepath.Join(root, "docs"), 0o755))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := standardTree(t)
			before, err := HashTree(root, DefaultTemplateExcludes)
			require.NoError(t, err)

			tt.mutate(t, root)

			after, err := HashTree(root, DefaultTemplateExcludes)
			require.NoError(t, err)
			assert.NotEqual(t, before, after)
		})
	}
}

func TestHashTree_IgnoresExcludedSubdirs(t *testing.T) {
	root := standardTree(t)
	exclude := []string{"tests", ".git", "template/.venv"}

	before, err := HashTree(root, exclude)
	require.NoError(t, err)

	writeTree(t, root, map[string]string{
		"tests/test_bake.py":      "def test_bake(): pass\n",
		".git/objects/ab":         "blob",
		"template/.venv/pyvenv":   "home = /usr\n",
		"tests/data/answers.yaml": "variant: minimal\n",
	})

	after, err := HashTree(root, exclude)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// Exclusion is by path relative to root, not by base name.
	withoutNested, err := HashTree(root, []string{"tests", ".git", ".venv"})
	require.NoError(t, err)
	assert.NotEqual(t, before, withoutNested)
}

func TestHashTree_Symlink(t *testing.T) {
	root := standardTree(t)
	link := filepath.Join(root, "template", "link.py")
	if err := os.Symlink("pkg_files/cli.py", link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	before, err := HashTree(root, nil)
	require.NoError(t, err)

	require.NoError(t, os.Remove(link))
	require.NoError(t, os.Symlink("Makefile", link))

	after, err := HashTree(root, nil)
	require.NoError(t, err)
	assert.NotEqual(t, before, after, "changing a link target should change the digest")
}

func TestHashFS_MatchesHashTree(t *testing.T) {
	files := map[string]string{
		"copier.yml":          "variant: basic\n",
		"template/Makefile":   "all:\n",
		"template/pkg/cli.py": "print('hi')\n",
		"tests/test_copy.py":  "def test(): pass\n",
	}
	root := t.TempDir()
	writeTree(t, root, files)

	mapFS := fstest.MapFS{}
	for name, content := range files {
		mapFS[name] = &fstest.MapFile{Data: []byte(content)}
	}

	onDisk, err := HashTree(root, DefaultTemplateExcludes)
	require.NoError(t, err)
	inMemory, err := HashFS(mapFS, DefaultTemplateExcludes)
	require.NoError(t, err)
	assert.Equal(t, onDisk, inMemory)
}

func TestHashTree_Errors(t *testing.T) {
	_, err := HashTree(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = HashTree(file, nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "not a directory"))
}

func TestHashValue(t *testing.T) {
	a := map[string]any{"variant": "basic", "build_tool": "gnu-make", "git_init": false}
	b := map[string]any{"git_init": false, "build_tool": "gnu-make", "variant": "basic"}

	da, err := HashValue(a)
	require.NoError(t, err)
	db, err := HashValue(b)
	require.NoError(t, err)
	assert.Equal(t, da, db, "map insertion order must not matter")

	a["git_init"] = true
	dc, err := HashValue(a)
	require.NoError(t, err)
	assert.NotEqual(t, da, dc)

	_, err = HashValue(map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestHashValue_Path(t *testing.T) {
	d1, err := HashValue("/srv/template")
	require.NoError(t, err)
	d2, err := HashValue("/srv/template")
	require.NoError(t, err)
	d3, err := HashValue("/srv/other")
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.NotEqual(t, d1, d3)
}
