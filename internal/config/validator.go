package config

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// envNameRegex matches portable environment variable names.
var envNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// Validate checks a loaded configuration.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	if strings.TrimSpace(cfg.CacheDir) == "" {
		errs = append(errs, ValidationError{
			Field:   KeyCacheDir,
			Message: "must not be empty or whitespace only",
		})
	}

	if !envNameRegex.MatchString(cfg.RuntimeMarker) {
		errs = append(errs, ValidationError{
			Field:   KeyRuntimeMarker,
			Message: fmt.Sprintf("%q is not a valid environment variable name", cfg.RuntimeMarker),
		})
	}

	for _, exclude := range cfg.HashExclude {
		clean := path.Clean(filepath.ToSlash(exclude))
		if exclude == "" || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
			errs = append(errs, ValidationError{
				Field:   KeyHashExclude,
				Message: fmt.Sprintf("%q must be a path relative to the template root", exclude),
			})
		}
	}

	if cfg.SourceRoot == "" || filepath.IsAbs(cfg.SourceRoot) {
		errs = append(errs, ValidationError{
			Field:   KeySourceRoot,
			Message: "must be a relative directory",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
