package harness

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aucampia/copier-python/internal/answers"
	oerrors "github.com/aucampia/copier-python/internal/errors"
	"github.com/aucampia/copier-python/internal/testutil"
)

func requireBash(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}
}

func TestBashRunner(t *testing.T) {
	requireBash(t)

	t.Run("runs in dir with env and traces", func(t *testing.T) {
		dir := t.TempDir()
		var stderr bytes.Buffer
		r := BashRunner{Stderr: &stderr}

		err := r.Run(context.Background(), dir, []string{"GREETING=hello"}, "echo \"$GREETING\" > out.txt\n")
		require.NoError(t, err)

		content, err := os.ReadFile(filepath.Join(dir, "out.txt"))
		require.NoError(t, err)
		assert.Equal(t, "hello\n", string(content))
		assert.Contains(t, stderr.String(), "+ echo hello", "set -x should trace commands")
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		dir := t.TempDir()
		err := BashRunner{}.Run(context.Background(), dir, nil, "false\ntouch after\n")
		require.Error(t, err)
		assert.True(t, errors.Is(err, oerrors.ErrProcess))
		assert.NoFileExists(t, filepath.Join(dir, "after"))
	})

	t.Run("pipefail", func(t *testing.T) {
		err := BashRunner{}.Run(context.Background(), t.TempDir(), nil, "false | cat\n")
		assert.True(t, errors.Is(err, oerrors.ErrProcess))
	})
}

func TestConfigureScript(t *testing.T) {
	tests := []struct {
		tool answers.BuildTool
		want string
	}{
		{answers.BuildToolGNUMake, "make configure\nmake validate-fix\n"},
		{answers.BuildToolGoTask, "task configure\ntask validate:fix\n"},
		{answers.BuildToolPoe, "poetry install\npoetry run poe validate:fix\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.tool), func(t *testing.T) {
			got, err := ConfigureScript(tt.tool)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ConfigureScript("scons")
	assert.True(t, errors.Is(err, oerrors.ErrValidation))
}

func TestActionScript(t *testing.T) {
	tests := []struct {
		action Action
		tool   answers.BuildTool
		want   string
	}{
		{ActionValidate, answers.BuildToolGNUMake, "make validate\n"},
		{ActionValidate, answers.BuildToolGoTask, "task validate\n"},
		{ActionValidate, answers.BuildToolPoe, "poetry run poe validate\n"},
		{ActionCLI, answers.BuildToolGNUMake, "poetry run demo -vvvv sub leaf\n"},
		{ActionCLI, answers.BuildToolGoTask, "task venv:run -- demo -vvvv sub leaf\n"},
		{ActionCLI, answers.BuildToolPoe, "poetry run demo -vvvv sub leaf\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.action)+"-"+string(tt.tool), func(t *testing.T) {
			got, err := ActionScript(tt.action, &Result{
				BuildTool: tt.tool,
				Answers:   map[string]any{"cli_name": "demo"},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("cli")
	require.NoError(t, err)
	assert.Equal(t, ActionCLI, a)

	_, err = ParseAction("deploy")
	assert.True(t, errors.Is(err, oerrors.ErrValidation))
}

func TestCLIName_FromPyproject(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "pyproject.toml", `
[tool.poetry]
name = "demo"

[tool.poetry.scripts]
zeta = "demo.cli:other"
demo-cli = "demo.cli:main"
`)

	name, err := CLIName(&Result{ProjectDir: dir, Answers: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, "demo-cli", name)

	_, err = CLIName(&Result{ProjectDir: t.TempDir(), Answers: map[string]any{}})
	assert.True(t, errors.Is(err, oerrors.ErrNotFound))
}
