package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/aucampia/copier-python/internal/answers"
	oerrors "github.com/aucampia/copier-python/internal/errors"
)

// configureScripts install a fresh project and run its fixing validation.
var configureScripts = map[answers.BuildTool]string{
	answers.BuildToolGNUMake: "make configure\nmake validate-fix\n",
	answers.BuildToolGoTask:  "task configure\ntask validate:fix\n",
	answers.BuildToolPoe:     "poetry install\npoetry run poe validate:fix\n",
}

var validateScripts = map[answers.BuildTool]string{
	answers.BuildToolGNUMake: "make validate\n",
	answers.BuildToolGoTask:  "task validate\n",
	answers.BuildToolPoe:     "poetry run poe validate\n",
}

// cliScripts take the console script name.
var cliScripts = map[answers.BuildTool]string{
	answers.BuildToolGNUMake: "poetry run %s -vvvv sub leaf\n",
	answers.BuildToolGoTask:  "task venv:run -- %s -vvvv sub leaf\n",
	answers.BuildToolPoe:     "poetry run %s -vvvv sub leaf\n",
}

// ConfigureScript returns the script run after rendering.
func ConfigureScript(tool answers.BuildTool) (string, error) {
	script, ok := configureScripts[tool]
	if !ok {
		return "", unknownBuildTool(tool)
	}
	return script, nil
}

// ActionScript returns the script for action against result.
func ActionScript(action Action, result *Result) (string, error) {
	switch action {
	case ActionValidate:
		script, ok := validateScripts[result.BuildTool]
		if !ok {
			return "", unknownBuildTool(result.BuildTool)
		}
		return script, nil
	case ActionCLI:
		format, ok := cliScripts[result.BuildTool]
		if !ok {
			return "", unknownBuildTool(result.BuildTool)
		}
		name, err := CLIName(result)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(format, name), nil
	default:
		return "", oerrors.NewValidationError(fmt.Sprintf("invalid action %q", action), "", "action", "")
	}
}

// CLIName returns the project's console script: the cli_name answer, or
// else the first script declared in pyproject.toml.
func CLIName(result *Result) (string, error) {
	if name, ok := result.Answers["cli_name"].(string); ok && name != "" {
		return name, nil
	}

	path := filepath.Join(result.ProjectDir, "pyproject.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", oerrors.NewNotFoundError("no cli_name answer and no pyproject.toml", path, "")
	}

	var project struct {
		Tool struct {
			Poetry struct {
				Scripts map[string]string `toml:"scripts"`
			} `toml:"poetry"`
		} `toml:"tool"`
		Project struct {
			Scripts map[string]string `toml:"scripts"`
		} `toml:"project"`
	}
	if err := toml.Unmarshal(data, &project); err != nil {
		return "", oerrors.NewValidationError(fmt.Sprintf("invalid pyproject.toml: %v", err), path, "", "")
	}

	for _, scripts := range []map[string]string{project.Project.Scripts, project.Tool.Poetry.Scripts} {
		if len(scripts) == 0 {
			continue
		}
		names := make([]string, 0, len(scripts))
		for name := range scripts {
			names = append(names, name)
		}
		sort.Strings(names)
		return names[0], nil
	}
	return "", oerrors.NewNotFoundError("pyproject.toml declares no console scripts", path, "")
}

func unknownBuildTool(tool answers.BuildTool) error {
	return oerrors.NewValidationError(fmt.Sprintf("unknown build tool %q", tool), "", answers.KeyBuildTool, "")
}
