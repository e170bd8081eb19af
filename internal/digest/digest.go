// Package digest computes stable content digests over directory trees and
// structured values. The digests are used as cache key ingredients.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Prefix is prepended by Format for display.
const Prefix = "sha256:"

// DefaultTemplateExcludes are the template subdirectories ignored when
// fingerprinting a template by content.
var DefaultTemplateExcludes = []string{
	".mypy_cache",
	".pytest_cache",
	".venv",
	".git",
	"var",
	"tests",
}

// HashTree computes a SHA-256 digest over the tree rooted at root.
//
// Directory and file names are sorted at every level, so traversal order
// never affects the result. Directories whose slash-separated path relative
// to root appears in exclude are pruned entirely. Each directory contributes
// its relative path; each file contributes its relative path followed by its
// content. Symlinks contribute their target and are never followed.
func HashTree(root string, exclude []string) (string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("hashing %s: not a directory", root)
	}
	return HashFS(os.DirFS(root), exclude)
}

// HashFS is HashTree over an fs.FS, such as an embedded template.
func HashFS(fsys fs.FS, exclude []string) (string, error) {
	excluded := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		excluded[path.Clean(filepath.ToSlash(e))] = true
	}

	h := sha256.New()
	if err := hashDir(h, fsys, ".", excluded); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashDir(h hash.Hash, fsys fs.FS, rel string, excluded map[string]bool) error {
	entries, err := fs.ReadDir(fsys, rel)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", rel, err)
	}

	var dirs, files []string
	links := map[string]bool{}
	for _, e := range entries {
		childRel := joinRel(rel, e.Name())
		switch {
		case e.IsDir():
			if excluded[childRel] {
				continue
			}
			dirs = append(dirs, childRel)
		case e.Type()&fs.ModeSymlink != 0:
			links[childRel] = true
			files = append(files, childRel)
		default:
			files = append(files, childRel)
		}
	}
	sort.Strings(dirs)
	sort.Strings(files)

	for _, d := range dirs {
		writeRecord(h, "d", d)
	}
	for _, f := range files {
		if err := hashFile(h, fsys, f, links[f]); err != nil {
			return err
		}
	}
	for _, d := range dirs {
		if err := hashDir(h, fsys, d, excluded); err != nil {
			return err
		}
	}
	return nil
}

func hashFile(h hash.Hash, fsys fs.FS, rel string, link bool) error {
	if link {
		target, err := fs.ReadLink(fsys, rel)
		if err != nil {
			return fmt.Errorf("reading link %s: %w", rel, err)
		}
		writeRecord(h, "l", rel)
		writeRecord(h, "t", target)
		return nil
	}

	content, err := fs.ReadFile(fsys, rel)
	if err != nil {
		return fmt.Errorf("reading %s: %w", rel, err)
	}
	writeRecord(h, "f", rel)
	fmt.Fprintf(h, "%d\x00", len(content))
	h.Write(content)
	return nil
}

// writeRecord writes a tagged, NUL-terminated record so that concatenated
// paths and contents cannot collide.
func writeRecord(h hash.Hash, tag, value string) {
	h.Write([]byte(tag))
	h.Write([]byte{0})
	h.Write([]byte(value))
	h.Write([]byte{0})
}

func joinRel(parent, name string) string {
	if parent == "." {
		return name
	}
	return parent + "/" + name
}

// HashValue serializes v deterministically and digests it. Map keys are
// sorted by encoding/json, so equal maps always hash equally.
func HashValue(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("serializing value for digest: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Format returns the display form "sha256:<hex>".
func Format(hexDigest string) string {
	if strings.HasPrefix(hexDigest, Prefix) {
		return hexDigest
	}
	return Prefix + hexDigest
}
