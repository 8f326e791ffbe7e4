package template

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/ynput/ayon-jira/internal/api"
	"github.com/ynput/ayon-jira/pkg/logging"
)

// Format is the encoding of a template document on disk.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// RawDocument is an unparsed template document.
type RawDocument struct {
	Path   string
	Format Format
	Data   []byte
}

// Source provides the raw documents of templates.
type Source interface {
	Read(name string, side Side) (RawDocument, error)
	List() ([]string, error)
}

// DirSource reads templates from a directory using the naming scheme
// <name>_<side>_Template.<json|yaml|yml>.
type DirSource struct {
	Dir string
}

// NewDirSource creates a source reading from dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

// FileName returns the JSON file name of a template document.
func FileName(name string, side Side) string {
	return fmt.Sprintf("%s_%s_Template.json", name, side)
}

// Read returns the document for name and side. JSON takes precedence over YAML.
func (s *DirSource) Read(name string, side Side) (RawDocument, error) {
	jsonPath := filepath.Join(s.Dir, FileName(name, side))
	if name == "" || filepath.Base(name) != name || strings.Contains(name, "..") {
		return RawDocument{}, &api.TemplateNotFoundError{Name: name, Side: string(side), Path: jsonPath}
	}

	stem := strings.TrimSuffix(jsonPath, ".json")
	candidates := []struct {
		path   string
		format Format
	}{
		{jsonPath, FormatJSON},
		{stem + ".yaml", FormatYAML},
		{stem + ".yml", FormatYAML},
	}

	for _, c := range candidates {
		data, err := os.ReadFile(c.path)
		if err == nil {
			return RawDocument{Path: c.path, Format: c.format, Data: data}, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return RawDocument{}, fmt.Errorf("failed to read template %s: %w", c.path, err)
		}
	}

	return RawDocument{}, &api.TemplateNotFoundError{Name: name, Side: string(side), Path: jsonPath}
}

// List returns the names of templates that have a remote-side document.
func (s *DirSource) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	suffix := "_" + string(SideRemote) + "_Template"
	seen := make(map[string]bool)
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if !strings.HasSuffix(stem, suffix) {
			continue
		}
		name := strings.TrimSuffix(stem, suffix)
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

type cacheKey struct {
	name string
	side Side
}

// CachedSource memoizes documents of an underlying DirSource and drops the
// cache whenever the template directory changes.
type CachedSource struct {
	source *DirSource
	read   func(name string, side Side) (RawDocument, error)

	mu      sync.RWMutex
	entries map[cacheKey]RawDocument
	// generation is bumped by Invalidate; a read started before an
	// invalidation does not store its result.
	generation uint64
}

// NewCachedSource wraps source with an in-memory cache.
func NewCachedSource(source *DirSource) *CachedSource {
	return &CachedSource{
		source:  source,
		read:    source.Read,
		entries: make(map[cacheKey]RawDocument),
	}
}

// Read returns the cached document or reads it from disk.
func (c *CachedSource) Read(name string, side Side) (RawDocument, error) {
	key := cacheKey{name: name, side: side}

	c.mu.RLock()
	doc, ok := c.entries[key]
	generation := c.generation
	c.mu.RUnlock()
	if ok {
		return doc, nil
	}

	doc, err := c.read(name, side)
	if err != nil {
		return RawDocument{}, err
	}

	c.mu.Lock()
	if c.generation == generation {
		c.entries[key] = doc
	}
	c.mu.Unlock()
	return doc, nil
}

// List delegates to the underlying directory.
func (c *CachedSource) List() ([]string, error) {
	return c.source.List()
}

// Invalidate drops every cached document.
func (c *CachedSource) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[cacheKey]RawDocument)
	c.generation++
	c.mu.Unlock()
}

// Len returns the number of cached documents.
func (c *CachedSource) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Watch invalidates the cache on any change in the template directory until
// ctx is cancelled. It returns once the watch is established.
func (c *CachedSource) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(c.source.Dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", c.source.Dir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				logging.Debug("Template", "Template directory changed (%s), dropping cache", event.Name)
				c.Invalidate()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Error("Template", err, "Template watcher error")
			}
		}
	}()

	logging.Info("Template", "Watching %s for template changes", c.source.Dir)
	return nil
}
