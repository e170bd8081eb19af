package templates

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"text/template"
	"unicode"
)

// TemplateSuffix marks files whose content is rendered. Other files are
// copied verbatim.
const TemplateSuffix = ".tmpl"

// Renderer handles template rendering with answer substitution.
type Renderer struct {
	data map[string]any
}

// NewRenderer creates a new renderer over the given answers.
func NewRenderer(data map[string]any) *Renderer {
	return &Renderer{data: data}
}

var funcs = template.FuncMap{
	"lower":   strings.ToLower,
	"upper":   strings.ToUpper,
	"replace": strings.ReplaceAll,
	"split":   strings.Split,
	"snake":   func(s string) string { return identifierCase(s, '_') },
	"kebab":   func(s string) string { return identifierCase(s, '-') },
}

// identifierCase lowercases s and joins its alphanumeric runs with sep.
func identifierCase(s string, sep rune) string {
	var b strings.Builder
	pending := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteRune(sep)
			}
			pending = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pending = true
	}
	return b.String()
}

// RenderFile renders a single template file and returns the content. A
// reference to a missing answer is an error.
func (r *Renderer) RenderFile(name string, content []byte) ([]byte, error) {
	tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, r.data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	return buf.Bytes(), nil
}

// RenderString renders a template string and returns the result.
func (r *Renderer) RenderString(content string) (string, error) {
	if !strings.Contains(content, "{{") {
		return content, nil
	}
	result, err := r.RenderFile("string", []byte(content))
	if err != nil {
		return "", err
	}
	return string(result), nil
}

// RenderPath renders the slash-separated relative path p. ok is false when
// a segment renders empty, meaning the entry is skipped.
func (r *Renderer) RenderPath(p string) (rendered string, ok bool, err error) {
	segments := strings.Split(p, "/")
	for i, segment := range segments {
		out, err := r.RenderString(segment)
		if err != nil {
			return "", false, fmt.Errorf("rendering path %s: %w", p, err)
		}
		if strings.TrimSpace(out) == "" {
			return "", false, nil
		}
		segments[i] = out
	}
	return strings.Join(segments, "/"), true, nil
}

// TemplateFile represents a file to be generated from a template.
type TemplateFile struct {
	// SourcePath is the path within the template filesystem.
	SourcePath string

	// TargetPath is the rendered output path, with the .tmpl suffix removed.
	TargetPath string

	// Content is the rendered content. Empty for symlinks.
	Content []byte

	// LinkTarget is set for symlinks, which are recreated and not followed.
	LinkTarget string
}

// RenderTemplate renders every file of fsys except the questions file and
// the excluded patterns. Patterns match the relative path or the base name.
func (r *Renderer) RenderTemplate(fsys fs.FS, exclude []string) ([]TemplateFile, error) {
	var files []TemplateFile

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}
		if p == QuestionsFile || excluded(p, exclude) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		target, ok, err := r.RenderPath(p)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			link, err := fs.ReadLink(fsys, p)
			if err != nil {
				return fmt.Errorf("reading link %s: %w", p, err)
			}
			files = append(files, TemplateFile{SourcePath: p, TargetPath: target, LinkTarget: link})
			return nil
		}

		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}

		if strings.HasSuffix(target, TemplateSuffix) {
			content, err = r.RenderFile(p, content)
			if err != nil {
				return fmt.Errorf("rendering %s: %w", p, err)
			}
			target = strings.TrimSuffix(target, TemplateSuffix)
		}

		files = append(files, TemplateFile{
			SourcePath: p,
			TargetPath: target,
			Content:    content,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking template: %w", err)
	}

	return files, nil
}

func excluded(p string, patterns []string) bool {
	base := path.Base(p)
	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, p); ok {
			return true
		}
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
