package answers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	oerrors "github.com/aucampia/copier-python/internal/errors"
)

// Load reads a YAML (or JSON) answers file into a raw mapping.
func Load(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, oerrors.NewNotFoundError("answers file does not exist", path, "")
		}
		return nil, fmt.Errorf("reading answers file %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes YAML answers. location is used in error messages only.
func Parse(data []byte, location string) (map[string]any, error) {
	values := map[string]any{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, oerrors.NewValidationError(
			fmt.Sprintf("answers are not a YAML mapping: %v", err), location, "", "")
	}
	return values, nil
}

// LoadNamed loads <dir>/<name>.yaml, the layout used for answer fixtures.
func LoadNamed(dir, name string) (map[string]any, error) {
	return Load(filepath.Join(dir, name+".yaml"))
}

// Resolve merges answer layers; later layers win. The result never aliases
// any input map.
func Resolve(layers ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

// ParseAssignments parses key=value pairs as given on the command line.
// Values are decoded as YAML scalars so "true" becomes a bool.
func ParseAssignments(pairs []string) (map[string]any, error) {
	out := map[string]any{}
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, oerrors.NewValidationError(
				fmt.Sprintf("invalid answer %q", pair), "", "", "Use key=value")
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
			value = raw
		}
		out[key] = value
	}
	return out, nil
}

// Write stores values as a YAML answers file, preceded by header when it is
// not empty.
func Write(path, header string, values map[string]any) error {
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encoding answers: %w", err)
	}
	if header != "" {
		data = append([]byte(header+"\n"), data...)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing answers file %s: %w", path, err)
	}
	return nil
}
