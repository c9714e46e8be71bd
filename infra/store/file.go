// Package store persists plan snapshots on disk, either as JSON files or in
// a SQLite database.
package store

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/natefinch/atomic"

	"github.com/kilianp07/fleetmaint/core/model"
	"github.com/kilianp07/fleetmaint/core/plan"
)

const indexFile = "index.json"

// Config selects the snapshot store backend.
type Config struct {
	// Kind is "memory", "file" or "sqlite".
	Kind string `json:"kind" yaml:"kind" koanf:"kind"`
	Dir  string `json:"dir" yaml:"dir" koanf:"dir"`
	// Path is the database file for the sqlite backend.
	Path string `json:"path" yaml:"path" koanf:"path"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Kind == "" {
		c.Kind = "memory"
	}
	if c.Kind == "file" && c.Dir == "" {
		c.Dir = "data/plans"
	}
	if c.Kind == "sqlite" && c.Path == "" {
		c.Path = "data/plans.db"
	}
}

// Validate checks the backend is known.
func (c Config) Validate() error {
	switch c.Kind {
	case "memory", "file", "sqlite":
		return nil
	default:
		return fmt.Errorf("store.kind: unknown backend %q", c.Kind)
	}
}

// New builds the store described by cfg.
func New(cfg Config) (plan.Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Kind {
	case "file":
		return NewFileStore(cfg.Dir)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	default:
		return plan.NewMemoryStore(), nil
	}
}

type indexEntry struct {
	ID      string           `json:"id"`
	Version int              `json:"version"`
	Status  model.PlanStatus `json:"status"`
	When    time.Time        `json:"when"`
}

// FileStore writes one JSON document per snapshot plus an index. Every write
// replaces the target file atomically, so a crash leaves either the old or
// the new content.
type FileStore struct {
	mu    sync.Mutex
	dir   string
	index map[string]indexEntry
}

var _ plan.Store = (*FileStore)(nil)

// NewFileStore opens dir, creating it if needed, and reads its index.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	s := &FileStore{dir: dir, index: map[string]indexEntry{}}
	raw, err := os.ReadFile(filepath.Join(dir, indexFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read index: %w", err)
	}
	var entries []indexEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	for _, e := range entries {
		s.index[e.ID] = e
	}
	return s, nil
}

func (s *FileStore) Save(ctx context.Context, snap model.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(snap.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", snap.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write snapshot %s: %w", snap.ID, err)
	}
	prev, had := s.index[snap.ID]
	s.index[snap.ID] = indexEntry{ID: snap.ID, Version: snap.Version, Status: snap.Status, When: snap.When}
	if err := s.writeIndex(); err != nil {
		if had {
			s.index[snap.ID] = prev
		} else {
			delete(s.index, snap.ID)
		}
		return err
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, id string) (model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(id)
}

func (s *FileStore) List(ctx context.Context) ([]model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Snapshot, 0, len(s.index))
	for id := range s.index {
		snap, err := s.read(id)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	plan.SortSnapshots(out)
	return out, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.index[id]
	if !ok {
		return fmt.Errorf("snapshot %s: %w", id, plan.ErrNotFound)
	}
	delete(s.index, id)
	if err := s.writeIndex(); err != nil {
		s.index[id] = entry
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove snapshot %s: %w", id, err)
	}
	return nil
}

func (s *FileStore) read(id string) (model.Snapshot, error) {
	path, err := s.path(id)
	if err != nil {
		return model.Snapshot{}, err
	}
	if _, ok := s.index[id]; !ok {
		return model.Snapshot{}, fmt.Errorf("snapshot %s: %w", id, plan.ErrNotFound)
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.Snapshot{}, fmt.Errorf("snapshot %s: %w", id, plan.ErrNotFound)
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("read snapshot %s: %w", id, err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return snap, nil
}

func (s *FileStore) writeIndex() error {
	entries := make([]indexEntry, 0, len(s.index))
	for _, e := range s.index {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b indexEntry) int {
		if c := cmp.Compare(a.Version, b.Version); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := atomic.WriteFile(filepath.Join(s.dir, indexFile), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

func (s *FileStore) path(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || id+".json" == indexFile {
		return "", fmt.Errorf("invalid snapshot id %q", id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}
