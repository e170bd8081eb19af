// Package answers models the resolved answer set that drives project
// generation and the post-generation hook.
package answers

import (
	"fmt"
	"sort"
	"strings"

	oerrors "github.com/aucampia/copier-python/internal/errors"
)

// Answer keys recognized by the post-generation hook.
const (
	KeyPythonPackageFQName = "python_package_fqname"
	KeyVariant             = "variant"
	KeyBuildTool           = "build_tool"
	KeyGitInit             = "git_init"
	KeyGitCommit           = "git_commit"

	// keyInitGit is the cookiecutter-era spelling of git_init ("y"/"n").
	keyInitGit = "init_git"
)

// Variant selects which packaged-files subtree becomes the package source.
type Variant string

const (
	VariantBasic        Variant = "basic"
	VariantMinimal      Variant = "minimal"
	VariantMinimalTyper Variant = "minimal_typer"
)

// Variants returns all valid variants in declaration order.
func Variants() []Variant {
	return []Variant{VariantBasic, VariantMinimal, VariantMinimalTyper}
}

// ParseVariant converts s to a Variant.
func ParseVariant(s string) (Variant, error) {
	for _, v := range Variants() {
		if string(v) == s {
			return v, nil
		}
	}
	return "", oerrors.NewValidationError(
		fmt.Sprintf("unknown variant %q", s), "", KeyVariant,
		"Valid variants: "+joinStrings(Variants()))
}

// BuildTool selects which build-orchestration file is kept.
type BuildTool string

const (
	BuildToolGNUMake BuildTool = "gnu-make"
	BuildToolGoTask  BuildTool = "go-task"
	BuildToolPoe     BuildTool = "poe"
)

// BuildTools returns all valid build tools in declaration order.
func BuildTools() []BuildTool {
	return []BuildTool{BuildToolGNUMake, BuildToolGoTask, BuildToolPoe}
}

// ParseBuildTool converts s to a BuildTool.
func ParseBuildTool(s string) (BuildTool, error) {
	for _, b := range BuildTools() {
		if string(b) == s {
			return b, nil
		}
	}
	return "", oerrors.NewValidationError(
		fmt.Sprintf("unknown build tool %q", s), "", KeyBuildTool,
		"Valid build tools: "+joinStrings(BuildTools()))
}

// buildToolFiles lists the marker files owned by each build tool.
var buildToolFiles = map[BuildTool][]string{
	BuildToolGNUMake: {"Makefile"},
	BuildToolGoTask:  {"Taskfile.yml"},
	BuildToolPoe:     {"poe_tasks.toml"},
}

// Files returns the marker files belonging to b.
func (b BuildTool) Files() []string {
	return append([]string(nil), buildToolFiles[b]...)
}

// AllBuildToolFiles returns every known marker file, sorted.
func AllBuildToolFiles() []string {
	var files []string
	for _, fs := range buildToolFiles {
		files = append(files, fs...)
	}
	sort.Strings(files)
	return files
}

// UnusedBuildToolFiles returns the marker files of every build tool except
// b, sorted.
func UnusedBuildToolFiles(b BuildTool) []string {
	keep := make(map[string]bool)
	for _, f := range buildToolFiles[b] {
		keep[f] = true
	}

	var files []string
	for _, f := range AllBuildToolFiles() {
		if !keep[f] {
			files = append(files, f)
		}
	}
	return files
}

// AnswerSet is the typed, validated view of one generation's answers.
// It is immutable once constructed.
type AnswerSet struct {
	PythonPackageFQName string
	Variant             Variant
	BuildTool           BuildTool
	GitInit             bool
	GitCommit           bool

	namespaceParts []string
	values         map[string]any
}

// New constructs an AnswerSet and computes its derived fields.
func New(fqname string, variant Variant, buildTool BuildTool, gitInit, gitCommit bool) (*AnswerSet, error) {
	if err := validateFQName(fqname); err != nil {
		return nil, err
	}
	if _, err := ParseVariant(string(variant)); err != nil {
		return nil, err
	}
	if _, err := ParseBuildTool(string(buildTool)); err != nil {
		return nil, err
	}

	a := &AnswerSet{
		PythonPackageFQName: fqname,
		Variant:             variant,
		BuildTool:           buildTool,
		GitInit:             gitInit,
		GitCommit:           gitCommit,
		namespaceParts:      strings.Split(fqname, "."),
	}
	a.values = map[string]any{
		KeyPythonPackageFQName: fqname,
		KeyVariant:             string(variant),
		KeyBuildTool:           string(buildTool),
		KeyGitInit:             gitInit,
		KeyGitCommit:           gitCommit,
	}
	return a, nil
}

// FromMapping validates a raw answer mapping and returns the typed set.
// Unknown keys are carried in Values but otherwise ignored.
func FromMapping(values map[string]any) (*AnswerSet, error) {
	fqname, err := requireString(values, KeyPythonPackageFQName)
	if err != nil {
		return nil, err
	}
	variantStr, err := requireString(values, KeyVariant)
	if err != nil {
		return nil, err
	}
	variant, err := ParseVariant(variantStr)
	if err != nil {
		return nil, err
	}
	buildToolStr, err := requireString(values, KeyBuildTool)
	if err != nil {
		return nil, err
	}
	buildTool, err := ParseBuildTool(buildToolStr)
	if err != nil {
		return nil, err
	}

	gitInit, err := gitInitValue(values)
	if err != nil {
		return nil, err
	}
	gitCommit, err := requireBool(values, KeyGitCommit)
	if err != nil {
		return nil, err
	}

	a, err := New(fqname, variant, buildTool, gitInit, gitCommit)
	if err != nil {
		return nil, err
	}
	for k, v := range values {
		if _, ok := a.values[k]; !ok {
			a.values[k] = v
		}
	}
	return a, nil
}

// NamespaceParts returns the dot-separated components of the package name.
func (a *AnswerSet) NamespaceParts() []string {
	return append([]string(nil), a.namespaceParts...)
}

// Values returns a copy of the full answer mapping, including keys the
// hook does not interpret.
func (a *AnswerSet) Values() map[string]any {
	out := make(map[string]any, len(a.values))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}

// String returns a short description for logging.
func (a *AnswerSet) String() string {
	return fmt.Sprintf("%s variant=%s build_tool=%s git_init=%t git_commit=%t",
		a.PythonPackageFQName, a.Variant, a.BuildTool, a.GitInit, a.GitCommit)
}

func validateFQName(fqname string) error {
	if fqname == "" {
		return oerrors.NewValidationError("package name cannot be empty", "", KeyPythonPackageFQName, "")
	}
	for _, part := range strings.Split(fqname, ".") {
		if !isIdentifier(part) {
			return oerrors.NewValidationError(
				fmt.Sprintf("invalid package name %q: component %q is not a Python identifier", fqname, part),
				"", KeyPythonPackageFQName,
				"Use dot-separated identifiers, e.g. example.tools.cli")
		}
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func requireString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", missing(key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", oerrors.NewValidationError(
			fmt.Sprintf("answer %q must be a string, got %T", key, raw), "", key, "")
	}
	return s, nil
}

func requireBool(values map[string]any, key string) (bool, error) {
	raw, ok := values[key]
	if !ok {
		return false, missing(key)
	}
	return toBool(key, raw)
}

// NormalizeAliases returns a copy of values with the cookiecutter-era
// init_git renamed to git_init. An explicit git_init wins.
func NormalizeAliases(values map[string]any) map[string]any {
	out := Resolve(values)
	if raw, ok := out[keyInitGit]; ok {
		if _, set := out[KeyGitInit]; !set {
			out[KeyGitInit] = raw
		}
		delete(out, keyInitGit)
	}
	return out
}

// gitInitValue reads git_init, falling back to the cookiecutter init_git key.
func gitInitValue(values map[string]any) (bool, error) {
	if raw, ok := values[KeyGitInit]; ok {
		return toBool(KeyGitInit, raw)
	}
	if raw, ok := values[keyInitGit]; ok {
		return toBool(keyInitGit, raw)
	}
	return false, missing(KeyGitInit)
}

func toBool(key string, raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(v) {
		case "y", "yes", "true":
			return true, nil
		case "n", "no", "false", "":
			return false, nil
		}
	}
	return false, oerrors.NewValidationError(
		fmt.Sprintf("answer %q must be a boolean, got %v", key, raw), "", key,
		`Use true/false or "y"/"n"`)
}

func missing(key string) error {
	return oerrors.NewValidationError(
		fmt.Sprintf("missing required answer %q", key), "", key, "")
}

func joinStrings[T ~string](items []T) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = string(item)
	}
	return strings.Join(parts, ", ")
}
