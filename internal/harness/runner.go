package harness

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	oerrors "github.com/aucampia/copier-python/internal/errors"
)

// scriptPreamble traces every command and stops on the first failure.
const scriptPreamble = "set -x\nset -eo pipefail\n"

// Runner runs a shell script in a directory.
type Runner interface {
	Run(ctx context.Context, dir string, env []string, script string) error
}

// BashRunner runs scripts with bash -c.
type BashRunner struct {
	// Binary defaults to "bash".
	Binary string

	Stdout io.Writer
	Stderr io.Writer
}

// Run implements Runner.
func (r BashRunner) Run(ctx context.Context, dir string, env []string, script string) error {
	bin := r.Binary
	if bin == "" {
		bin = "bash"
	}
	cmd := exec.CommandContext(ctx, bin, "-c", scriptPreamble+script)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		return oerrors.NewProcessError(bin+" -c <script>", dir, err)
	}
	return nil
}

// Action is a workflow run against a generated project.
type Action string

const (
	// ActionValidate runs the project's validation target.
	ActionValidate Action = "validate"

	// ActionCLI runs the project's console script.
	ActionCLI Action = "cli"
)

// Actions returns every workflow action.
func Actions() []Action {
	return []Action{ActionValidate, ActionCLI}
}

// ParseAction validates a workflow action name.
func ParseAction(s string) (Action, error) {
	for _, a := range Actions() {
		if string(a) == s {
			return a, nil
		}
	}
	return "", oerrors.NewValidationError(
		fmt.Sprintf("invalid action %q", s), "", "action", "Valid actions: validate, cli")
}
