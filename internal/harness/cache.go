package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/aucampia/copier-python/internal/answers"
	"github.com/aucampia/copier-python/internal/digest"
	"github.com/aucampia/copier-python/internal/environ"
	"github.com/aucampia/copier-python/internal/output"
	"github.com/aucampia/copier-python/internal/templates"
)

// Options configures a Cache.
type Options struct {
	// Engine renders templates. Defaults to CopyEngine.
	Engine Engine

	// Runner runs the configure and action scripts. Defaults to bash with
	// output on stderr.
	Runner Runner

	// TempDir holds the persisted entries. Defaults to os.TempDir().
	TempDir string

	// Rapid fingerprints templates by location instead of content and
	// reuses persisted entries across processes.
	Rapid bool

	// Excludes are pruned when fingerprinting by content. Nil uses
	// digest.DefaultTemplateExcludes.
	Excludes []string

	// Env is the script environment. Defaults to the current environment
	// with the RuntimeMarker runtime removed.
	Env []string

	// RuntimeMarker defaults to environ.DefaultMarker.
	RuntimeMarker string

	// Logger defaults to the "harness" component logger.
	Logger *log.Logger
}

// Cache memoizes generated and configured projects. It never coordinates
// with other processes sharing TempDir.
type Cache struct {
	opts Options
	log  *log.Logger

	mu   sync.Mutex
	memo map[string]*Result
}

// NewCache creates a Cache, filling defaults.
func NewCache(opts Options) *Cache {
	if opts.Engine == nil {
		opts.Engine = CopyEngine{}
	}
	if opts.Runner == nil {
		opts.Runner = BashRunner{Stdout: os.Stderr, Stderr: os.Stderr}
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.Excludes == nil {
		opts.Excludes = digest.DefaultTemplateExcludes
	}
	if opts.RuntimeMarker == "" {
		opts.RuntimeMarker = environ.DefaultMarker
	}
	if opts.Env == nil {
		opts.Env = environ.SanitizeCurrent(opts.RuntimeMarker)
	}
	logger := opts.Logger
	if logger == nil {
		logger = output.ComponentLogger("harness")
	}
	return &Cache{opts: opts, log: logger, memo: map[string]*Result{}}
}

// Key computes the cache key of one generation.
func (c *Cache) Key(templatePath string, data map[string]any) (Key, error) {
	location, err := canonicalLocation(templatePath)
	if err != nil {
		return Key{}, err
	}

	var templateDigest string
	if c.opts.Rapid {
		templateDigest, err = digest.HashValue(location)
	} else {
		var tmpl templates.Template
		tmpl, err = templates.Open(location)
		if err != nil {
			return Key{}, err
		}
		templateDigest, err = digest.HashFS(tmpl.FS, c.opts.Excludes)
	}
	if err != nil {
		return Key{}, fmt.Errorf("fingerprinting template %s: %w", location, err)
	}

	if data == nil {
		data = map[string]any{}
	}
	dataDigest, err := digest.HashValue(data)
	if err != nil {
		return Key{}, err
	}

	return Key{TemplatePath: location, TemplateDigest: templateDigest, DataDigest: dataDigest}, nil
}

// EntryDir is the persisted entry directory of key. The project lives in
// its ProjectDirName subdirectory, the answers sidecar next to it.
func (c *Cache) EntryDir(key Key) (string, error) {
	keyDigest, err := key.Digest()
	if err != nil {
		return "", err
	}
	return filepath.Join(c.opts.TempDir, c.opts.Engine.Name()+"-"+keyDigest), nil
}

// GetOrCreate returns the configured project for templatePath and data,
// generating it on a miss. A failing configure script removes the output
// and nothing is memoized.
func (c *Cache) GetOrCreate(ctx context.Context, templatePath string, data map[string]any) (*Result, error) {
	key, err := c.Key(templatePath, data)
	if err != nil {
		return nil, err
	}
	memoKey, err := key.Digest()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	cached, ok := c.memo[memoKey]
	c.mu.Unlock()
	if ok {
		c.log.Debug("memo hit", "project", cached.ProjectDir)
		return cached, nil
	}

	entry, err := c.EntryDir(key)
	if err != nil {
		return nil, err
	}
	projectDir := filepath.Join(entry, ProjectDirName)
	sidecar := filepath.Join(entry, AnswersSidecar)

	if c.opts.Rapid && nonEmptyDir(projectDir) {
		result, err := loadPersisted(key, projectDir, sidecar)
		if err == nil {
			c.log.Info("reusing persisted project", "project", projectDir)
			c.store(memoKey, result)
			return result, nil
		}
		c.log.Warn("persisted project unusable, regenerating", "project", projectDir, "err", err)
	}

	result, err := c.create(ctx, key, data, projectDir, sidecar)
	if err != nil {
		return nil, err
	}
	c.store(memoKey, result)
	return result, nil
}

func (c *Cache) create(ctx context.Context, key Key, data map[string]any, projectDir, sidecar string) (*Result, error) {
	if err := os.MkdirAll(filepath.Dir(projectDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache entry: %w", err)
	}
	if err := os.RemoveAll(projectDir); err != nil {
		c.log.Warn("clearing stale output", "project", projectDir, "err", err)
	}

	c.log.Info("rendering template", "template", key.TemplatePath, "engine", c.opts.Engine.Name(), "project", projectDir)
	answersYAML, err := c.opts.Engine.Render(ctx, key.TemplatePath, data, projectDir)
	if err != nil {
		c.discard(projectDir, sidecar)
		return nil, err
	}

	answersJSON, err := sigsyaml.YAMLToJSON(answersYAML)
	if err != nil {
		c.discard(projectDir, sidecar)
		return nil, fmt.Errorf("converting answers: %w", err)
	}
	if err := os.WriteFile(sidecar, answersJSON, 0o644); err != nil {
		c.discard(projectDir, sidecar)
		return nil, fmt.Errorf("writing %s: %w", sidecar, err)
	}

	result, err := newResult(key, projectDir, answersJSON)
	if err != nil {
		c.discard(projectDir, sidecar)
		return nil, err
	}

	script, err := ConfigureScript(result.BuildTool)
	if err != nil {
		c.discard(projectDir, sidecar)
		return nil, err
	}
	c.log.Info("configuring project", "buildTool", result.BuildTool)
	if err := c.opts.Runner.Run(ctx, projectDir, c.opts.Env, script); err != nil {
		c.log.Error("configure failed, removing output", "project", projectDir)
		c.discard(projectDir, sidecar)
		return nil, err
	}
	return result, nil
}

// Run executes a workflow action against a generated project.
func (c *Cache) Run(ctx context.Context, result *Result, action Action) error {
	script, err := ActionScript(action, result)
	if err != nil {
		return err
	}
	c.log.Info("running action", "action", action, "project", result.ProjectDir)
	return c.opts.Runner.Run(ctx, result.ProjectDir, c.opts.Env, script)
}

// Len returns the number of memoized results.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.memo)
}

func (c *Cache) store(memoKey string, result *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memo[memoKey] = result
}

func (c *Cache) discard(projectDir, sidecar string) {
	if err := os.RemoveAll(projectDir); err != nil {
		c.log.Warn("removing output", "project", projectDir, "err", err)
	}
	if err := os.Remove(sidecar); err != nil && !os.IsNotExist(err) {
		c.log.Warn("removing sidecar", "path", sidecar, "err", err)
	}
}

func loadPersisted(key Key, projectDir, sidecar string) (*Result, error) {
	data, err := os.ReadFile(sidecar)
	if err != nil {
		return nil, err
	}
	result, err := newResult(key, projectDir, data)
	if err != nil {
		return nil, err
	}
	result.Reused = true
	return result, nil
}

func newResult(key Key, projectDir string, answersJSON []byte) (*Result, error) {
	values := map[string]any{}
	if err := json.Unmarshal(answersJSON, &values); err != nil {
		return nil, fmt.Errorf("decoding answers: %w", err)
	}
	raw, _ := values[answers.KeyBuildTool].(string)
	tool, err := answers.ParseBuildTool(raw)
	if err != nil {
		return nil, err
	}
	return &Result{Key: key, ProjectDir: projectDir, Answers: values, BuildTool: tool}, nil
}

// canonicalLocation keeps embedded template names and makes directories
// absolute.
func canonicalLocation(templatePath string) (string, error) {
	if templatePath == "" {
		return templates.DefaultTemplateName, nil
	}
	if _, err := templates.Get(templatePath); err == nil {
		return templatePath, nil
	}
	abs, err := filepath.Abs(templatePath)
	if err != nil {
		return "", fmt.Errorf("resolving template %s: %w", templatePath, err)
	}
	return abs, nil
}

func nonEmptyDir(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}
