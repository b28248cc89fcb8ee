package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrModelNotFound means the backing artifact is absent. It signals "run
// training first": a deployment problem, not a runtime bug.
var ErrModelNotFound = errors.New("model artifact not found")

// Registry loads trained models by score-type name.
type Registry interface {
	Load(name string) (Model, error)
}

// FileRegistry loads artifacts from disk, one JSON file per score type,
// named <score-type>_model.json.
type FileRegistry struct {
	dir string
}

// NewFileRegistry creates a registry over the given artifact directory.
func NewFileRegistry(dir string) *FileRegistry {
	return &FileRegistry{dir: dir}
}

func (r *FileRegistry) path(name string) string {
	return filepath.Join(r.dir, fmt.Sprintf("%s_model.json", name))
}

// Load reads, validates, and builds the artifact for the given score type.
// A malformed or schema-less artifact fails here, not at prediction time.
func (r *FileRegistry) Load(name string) (Model, error) {
	filePath := r.path(name)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%q: %w", name, ErrModelNotFound)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open model artifact: %w", err)
	}
	defer file.Close()

	var artifact Artifact
	if err := json.NewDecoder(file).Decode(&artifact); err != nil {
		return nil, fmt.Errorf("failed to decode model artifact %q: %w", name, err)
	}

	m, err := artifact.Build()
	if err != nil {
		return nil, fmt.Errorf("invalid model artifact %q: %w", name, err)
	}
	return m, nil
}

// Save writes an artifact for the given score type. Used by seeding and
// tests; production artifacts are produced by the offline training jobs.
func (r *FileRegistry) Save(name string, artifact *Artifact) error {
	if err := artifact.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid artifact %q: %w", name, err)
	}

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	file, err := os.Create(r.path(name))
	if err != nil {
		return fmt.Errorf("failed to create model artifact: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(artifact); err != nil {
		return fmt.Errorf("failed to encode model artifact: %w", err)
	}

	return nil
}

// CachedRegistry wraps a Registry with a process-wide, read-mostly cache:
// each artifact is loaded once per process and never invalidated. Picking up
// a retrained artifact requires a process restart.
type CachedRegistry struct {
	inner  Registry
	mu     sync.RWMutex
	models map[string]Model
}

// NewCachedRegistry wraps the given registry.
func NewCachedRegistry(inner Registry) *CachedRegistry {
	return &CachedRegistry{inner: inner, models: make(map[string]Model)}
}

// Load returns the cached model, loading it on first use. Load failures are
// not cached so a redeployed artifact is picked up on the next call.
func (c *CachedRegistry) Load(name string) (Model, error) {
	c.mu.RLock()
	m, ok := c.models[name]
	c.mu.RUnlock()
	if ok {
		return m, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.models[name]; ok {
		return m, nil
	}

	m, err := c.inner.Load(name)
	if err != nil {
		return nil, err
	}
	c.models[name] = m
	return m, nil
}
