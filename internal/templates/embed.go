package templates

import (
	"embed"
	"io/fs"
)

//go:embed all:project
var projectFS embed.FS

// projectRoot is the embedded Python project template.
func projectRoot() fs.FS {
	sub, err := fs.Sub(projectFS, "project")
	if err != nil {
		// fs.Sub only fails on an invalid path.
		panic(err)
	}
	return sub
}
