package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/gridlookout/pkg/schema"
)

// MemoryStore keeps snapshots in process memory. Snapshots share the
// caller's *schema.Schema, which is safe because schemas are never mutated.
type MemoryStore struct {
	mu     sync.RWMutex
	byName map[string][]Snapshot // oldest first
	byID   map[string]Snapshot
	now    func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byName: make(map[string][]Snapshot),
		byID:   make(map[string]Snapshot),
		now:    time.Now,
	}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, name string, s *schema.Schema, opts ...SaveOption) (Snapshot, error) {
	cfg := newSaveConfig(opts)
	snap, _, err := newSnapshot(name, s, m.now(), cfg)
	if err != nil {
		return Snapshot{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var latest string
	if snaps := m.byName[name]; len(snaps) > 0 {
		latest = snaps[len(snaps)-1].ID
	}
	if err := cfg.checkParent(name, latest); err != nil {
		return Snapshot{}, err
	}
	m.byName[name] = append(m.byName[name], snap)
	m.byID[snap.ID] = snap
	return snap, nil
}

// Latest implements Store.
func (m *MemoryStore) Latest(_ context.Context, name string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snaps := m.byName[name]
	if len(snaps) == 0 {
		return Snapshot{}, notFound("no snapshot of schema %q", name)
	}
	return snaps[len(snaps)-1], nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.byID[id]
	if !ok {
		return Snapshot{}, notFound("snapshot %q not found", id)
	}
	return snap, nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, name string, limit int) ([]Snapshot, error) {
	m.mu.RLock()
	snaps := slices.Clone(m.byName[name])
	m.mu.RUnlock()

	slices.Reverse(snaps)
	if n := listLimit(limit); len(snaps) > n {
		snaps = snaps[:n]
	}
	return snaps, nil
}

// Names returns every schema name with at least one snapshot, sorted.
func (m *MemoryStore) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.byName))
	for n := range m.byName {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Close implements Store.
func (m *MemoryStore) Close(context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
