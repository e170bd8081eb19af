package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	oerrors "github.com/aucampia/copier-python/internal/errors"
)

// DefaultTemplateName is the template used when --template is not specified.
const DefaultTemplateName = "python"

// templates is the internal registry of embedded templates.
var templates = map[string]Template{
	"python": {
		Name:        "python",
		Description: "Poetry based Python project with a typer CLI",
		Default:     true,
		FS:          projectRoot(),
	},
}

// Get returns an embedded template by name.
func Get(name string) (Template, error) {
	t, ok := templates[name]
	if !ok {
		return Template{}, oerrors.NewNotFoundError(
			fmt.Sprintf("unknown template %q", name), "",
			"Valid templates: "+strings.Join(Names(), ", "))
	}
	return t, nil
}

// GetDefault returns the default template.
func GetDefault() Template {
	return templates[DefaultTemplateName]
}

// Names returns all embedded template names.
func Names() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns all embedded templates.
func List() []Template {
	names := Names()
	list := make([]Template, 0, len(names))
	for _, name := range names {
		list = append(list, templates[name])
	}
	return list
}

// Open resolves location to a template: an embedded template name, or a
// directory holding a questions file.
func Open(location string) (Template, error) {
	if location == "" {
		return GetDefault(), nil
	}
	if t, ok := templates[location]; ok {
		return t, nil
	}

	dir, err := filepath.Abs(location)
	if err != nil {
		return Template{}, fmt.Errorf("resolving template %s: %w", location, err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Template{}, oerrors.NewNotFoundError(
			fmt.Sprintf("template %q not found", location), dir,
			"Pass an embedded template name ("+strings.Join(Names(), ", ")+") or a template directory.")
	}
	if _, err := os.Stat(filepath.Join(dir, QuestionsFile)); err != nil {
		return Template{}, oerrors.NewNotFoundError(
			"template directory has no "+QuestionsFile, dir, "")
	}

	return Template{Name: dir, FS: os.DirFS(dir)}, nil
}
