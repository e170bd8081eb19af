// Package environ prepares process environments for subprocesses that must
// not inherit the caller's isolated Python runtime.
package environ

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMarker is the variable naming the active isolated runtime root.
const DefaultMarker = "VIRTUAL_ENV"

// Sanitize returns a copy of env with the isolated runtime removed: the
// marker variable is dropped and every PATH entry under the runtime root is
// filtered out. PATH order is preserved. env is in os.Environ form.
//
// When the marker variable is absent or empty, the copy is returned
// unchanged.
func Sanitize(env []string, marker string) []string {
	if marker == "" {
		marker = DefaultMarker
	}

	root := lookup(env, marker)
	out := make([]string, 0, len(env))
	if root == "" {
		return append(out, env...)
	}

	for _, kv := range env {
		key, value, _ := strings.Cut(kv, "=")
		switch key {
		case marker:
			continue
		case "PATH":
			out = append(out, "PATH="+filterPath(value, root))
		default:
			out = append(out, kv)
		}
	}
	return out
}

// SanitizeCurrent sanitizes the current process environment.
func SanitizeCurrent(marker string) []string {
	return Sanitize(os.Environ(), marker)
}

func filterPath(pathList, root string) string {
	parts := filepath.SplitList(pathList)
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if isWithin(p, root) {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, string(os.PathListSeparator))
}

// isWithin reports whether path equals root or lies beneath it.
func isWithin(path, root string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func lookup(env []string, key string) string {
	var value string
	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k == key {
			value = v
		}
	}
	return value
}

// ToMap converts an os.Environ style slice to a map. Later entries win.
func ToMap(env []string) map[string]string {
	m := make(map[string]string, len(env))
	for _, kv := range env {
		k, v, _ := strings.Cut(kv, "=")
		m[k] = v
	}
	return m
}

// FromMap converts a map to an os.Environ style slice, sorted by key.
func FromMap(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(m))
	for _, k := range keys {
		env = append(env, k+"="+m[k])
	}
	return env
}
