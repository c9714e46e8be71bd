package plan

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kilianp07/fleetmaint/core/model"
)

// Store persists snapshots by id. Implementations must return copies so
// callers can never alias stored state.
type Store interface {
	Save(ctx context.Context, s model.Snapshot) error
	Load(ctx context.Context, id string) (model.Snapshot, error)
	List(ctx context.Context) ([]model.Snapshot, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]model.Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]model.Snapshot{}}
}

func (m *MemoryStore) Save(_ context.Context, s model.Snapshot) error {
	if s.ID == "" {
		return fmt.Errorf("save snapshot: empty id")
	}
	m.mu.Lock()
	m.data[s.ID] = s.Clone()
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (model.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.data[id]
	if !ok {
		return model.Snapshot{}, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	return s.Clone(), nil
}

func (m *MemoryStore) List(_ context.Context) ([]model.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Snapshot, 0, len(m.data))
	for _, s := range m.data {
		out = append(out, s.Clone())
	}
	SortSnapshots(out)
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[id]; !ok {
		return fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	delete(m.data, id)
	return nil
}

// SortSnapshots orders snapshots by version, then creation time, then id.
func SortSnapshots(s []model.Snapshot) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Version != s[j].Version {
			return s[i].Version < s[j].Version
		}
		if !s[i].When.Equal(s[j].When) {
			return s[i].When.Before(s[j].When)
		}
		return s[i].ID < s[j].ID
	})
}
