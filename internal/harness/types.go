// Package harness bakes a template with answer sets, validates the result
// with the generated project's own build tool and memoizes the outcome,
// in-process and on disk.
package harness

import (
	"github.com/aucampia/copier-python/internal/answers"
	"github.com/aucampia/copier-python/internal/digest"
)

// Key identifies one generation. Two generations with the same template
// fingerprint and the same answers share a key.
type Key struct {
	// TemplatePath is the template location as given, made absolute for
	// directories.
	TemplatePath string `json:"templatePath"`

	// TemplateDigest is the content digest of the template, or the digest
	// of TemplatePath in rapid mode.
	TemplateDigest string `json:"templateDigest"`

	// DataDigest is the digest of the caller supplied answers.
	DataDigest string `json:"dataDigest"`
}

// Digest returns the key's own digest, used to name the output directory.
func (k Key) Digest() (string, error) {
	return digest.HashValue(k)
}

// Result is a generated and validated project.
type Result struct {
	Key Key

	// ProjectDir is the generated project root.
	ProjectDir string

	// Answers are the resolved answers recorded by the engine.
	Answers map[string]any

	// BuildTool is the project's build tool.
	BuildTool answers.BuildTool

	// Reused is set when the result was reconstructed from a persisted
	// output instead of rendered.
	Reused bool
}

// AnswersSidecar is the JSON file written next to each persisted project.
const AnswersSidecar = "project-answers.json"

// ProjectDirName is the project directory inside each cache entry.
const ProjectDirName = "project"
