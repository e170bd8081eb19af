// Package vcs wraps the git executable for the handful of operations the
// post-generation hook and its tests need.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	oerrors "github.com/aucampia/copier-python/internal/errors"
)

// BaselineMessage is the commit message of the initial generated commit.
const BaselineMessage = "baseline"

// Git runs git commands in a working directory.
type Git struct {
	// Dir is the working directory of every command.
	Dir string

	// Env overrides the environment when non-nil.
	Env []string

	// Stdout and Stderr receive command output. When nil, output is captured
	// and included in errors.
	Stdout io.Writer
	Stderr io.Writer

	// Binary is the git executable, "git" when empty.
	Binary string
}

// New returns a Git rooted at dir.
func New(dir string) *Git {
	return &Git{Dir: dir}
}

// Available reports whether the git executable can be found.
func (g *Git) Available() bool {
	_, err := exec.LookPath(g.binary())
	return err == nil
}

// Init runs git init.
func (g *Git) Init(ctx context.Context) error {
	return g.run(ctx, "init")
}

// AddAll stages every file in the working tree.
func (g *Git) AddAll(ctx context.Context) error {
	return g.run(ctx, "add", ".")
}

// Commit creates a commit with the given message.
func (g *Git) Commit(ctx context.Context, message string) error {
	return g.run(ctx, "commit", "-m", message)
}

// IsRepo reports whether Dir is inside a git work tree.
func (g *Git) IsRepo(ctx context.Context) bool {
	_, err := g.output(ctx, "rev-parse", "--git-dir")
	return err == nil
}

// CommitCount returns the number of commits reachable from HEAD.
func (g *Git) CommitCount(ctx context.Context) (int, error) {
	out, err := g.output(ctx, "rev-list", "--count", "HEAD")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("parsing commit count %q: %w", out, err)
	}
	return n, nil
}

// HeadSubject returns the subject line of the HEAD commit.
func (g *Git) HeadSubject(ctx context.Context) (string, error) {
	out, err := g.output(ctx, "log", "-1", "--format=%s")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (g *Git) binary() string {
	if g.Binary != "" {
		return g.Binary
	}
	return "git"
}

func (g *Git) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, g.binary(), args...)
	cmd.Dir = g.Dir
	if g.Env != nil {
		cmd.Env = g.Env
	}
	return cmd
}

func (g *Git) run(ctx context.Context, args ...string) error {
	cmd := g.command(ctx, args...)

	var captured bytes.Buffer
	cmd.Stdout = g.Stdout
	cmd.Stderr = g.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = &captured
	}
	if cmd.Stderr == nil {
		cmd.Stderr = &captured
	}

	if err := cmd.Run(); err != nil {
		return g.processError(args, captured.String(), err)
	}
	return nil
}

func (g *Git) output(ctx context.Context, args ...string) (string, error) {
	cmd := g.command(ctx, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", g.processError(args, stderr.String(), err)
	}
	return string(out), nil
}

func (g *Git) processError(args []string, out string, err error) error {
	command := g.binary() + " " + strings.Join(args, " ")
	if out = strings.TrimSpace(out); out != "" {
		err = fmt.Errorf("%w: %s", err, out)
	}
	return oerrors.NewProcessError(command, g.Dir, err)
}
