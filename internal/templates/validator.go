package templates

import (
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"

	oerrors "github.com/aucampia/copier-python/internal/errors"
)

// CheckMinVersion fails when current is older than required. Development
// builds, whose version is not semver, always pass.
func CheckMinVersion(required, current string) error {
	if required == "" {
		return nil
	}
	min, err := semver.NewVersion(required)
	if err != nil {
		return oerrors.NewValidationError(
			fmt.Sprintf("invalid minimum version %q: %v", required, err),
			QuestionsFile, "_min_scaffold_version", "")
	}
	have, err := semver.NewVersion(current)
	if err != nil {
		return nil
	}
	if have.LessThan(min) {
		return oerrors.NewValidationError(
			fmt.Sprintf("template requires scaffold %s or newer, this is %s", min, have),
			QuestionsFile, "_min_scaffold_version",
			"Upgrade scaffold to render this template.")
	}
	return nil
}

// checkTargetDir validates the target directory.
func checkTargetDir(dir string, force bool) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking target directory: %w", err)
	}

	if !info.IsDir() {
		return oerrors.NewValidationError(fmt.Sprintf("%s is not a directory", dir), dir, "", "")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading target directory: %w", err)
	}

	if len(entries) > 0 && !force {
		return oerrors.NewValidationError(
			fmt.Sprintf("directory %s is not empty", dir), dir, "",
			"Use --force to overwrite existing files.")
	}

	return nil
}
