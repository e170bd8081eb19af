package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCheckmark(t *testing.T) {
	out := FormatCheckmark("project generated")
	assert.Contains(t, out, "✔")
	assert.Contains(t, out, "project generated")
}

func TestFormatCross(t *testing.T) {
	out := FormatCross("validate failed")
	assert.Contains(t, out, "✘")
	assert.Contains(t, out, "validate failed")
}

func TestStyleNounKeepsText(t *testing.T) {
	assert.Contains(t, StyleNoun.Render("src/a/b/c"), "src/a/b/c")
}
