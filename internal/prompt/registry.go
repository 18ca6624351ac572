package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Registry caches parsed templates from a prompts directory.
type Registry struct {
	dir string

	mu        sync.RWMutex
	templates map[string]*Template
}

// NewRegistry creates a registry rooted at dir. Templates are parsed lazily
// on first Get and cached.
func NewRegistry(dir string) *Registry {
	return &Registry{
		dir:       dir,
		templates: make(map[string]*Template),
	}
}

// Get returns the template at the given path (relative to the registry dir,
// or absolute).
func (r *Registry) Get(path string) (*Template, error) {
	r.mu.RLock()
	tmpl, ok := r.templates[path]
	r.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(r.dir, path)
	}
	tmpl, err := ParseFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt %s: %w", path, err)
	}
	tmpl.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	r.mu.Lock()
	r.templates[path] = tmpl
	r.mu.Unlock()
	return tmpl, nil
}

// List returns the template file paths available under the registry dir,
// relative to it, sorted.
func (r *Registry) List() ([]string, error) {
	var paths []string
	err := filepath.Walk(r.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".md" && ext != ".txt" {
			return nil
		}
		rel, relErr := filepath.Rel(r.dir, path)
		if relErr != nil {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// Reload drops all cached templates.
func (r *Registry) Reload() {
	r.mu.Lock()
	r.templates = make(map[string]*Template)
	r.mu.Unlock()
}
