package version

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// toolVersionRegex matches version output like "git version 2.43.0" or
// "GNU Make 4.3".
var toolVersionRegex = regexp.MustCompile(`v?\d+\.\d+(?:\.\d+)?(?:-[a-zA-Z0-9.]+)?`)

// DefaultTools are the external programs scaffold drives: git for the
// hook, bash for the harness scripts and the build tools bash invokes.
var DefaultTools = []string{"git", "bash", "make", "task", "poetry"}

// ToolInfo describes an external tool found (or not) in PATH.
type ToolInfo struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Version string `json:"version"`
	Found   bool   `json:"found"`
	Message string `json:"message,omitempty"`
}

// String returns a human-readable tool line.
func (t ToolInfo) String() string {
	if !t.Found {
		return fmt.Sprintf("  %-7s not found", t.Name)
	}
	if t.Version == "" {
		return fmt.Sprintf("  %-7s %s (%s)", t.Name, t.Path, t.Message)
	}
	return fmt.Sprintf("  %-7s %s (%s)", t.Name, t.Version, t.Path)
}

// DetectTool finds name in PATH and asks it for its version.
func DetectTool(ctx context.Context, name string) ToolInfo {
	path, err := exec.LookPath(name)
	if err != nil {
		return ToolInfo{Name: name, Message: name + " not found in PATH"}
	}

	cmd := exec.CommandContext(ctx, path, "--version")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return ToolInfo{Name: name, Path: path, Found: true, Message: "version check failed: " + err.Error()}
	}

	version, err := extractVersion(out.String())
	if err != nil {
		return ToolInfo{Name: name, Path: path, Found: true, Message: err.Error()}
	}
	return ToolInfo{Name: name, Path: path, Version: version, Found: true}
}

// DetectTools runs DetectTool for every name.
func DetectTools(ctx context.Context, names ...string) []ToolInfo {
	infos := make([]ToolInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, DetectTool(ctx, name))
	}
	return infos
}

// extractVersion finds the first version number in output and normalizes
// it to vMAJOR.MINOR.PATCH.
func extractVersion(output string) (string, error) {
	match := toolVersionRegex.FindString(output)
	if match == "" {
		return "", &versionParseError{output: output}
	}
	v, err := semver.NewVersion(match)
	if err != nil {
		return "", &versionParseError{output: output}
	}
	return "v" + v.String(), nil
}

// versionParseError indicates failure to parse a tool's version output.
type versionParseError struct {
	output string
}

func (e *versionParseError) Error() string {
	return "failed to parse version from output: " + e.output
}
