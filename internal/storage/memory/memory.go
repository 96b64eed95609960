// internal/storage/memory/memory.go
package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/markershare/markershare/internal/storage"
	"github.com/markershare/markershare/pkg/core"
)

// record is one saved set with its bookkeeping
type record struct {
	set     *core.MarkerSet
	encoded string
	savedAt time.Time
}

// Backend keeps the library in process memory. Nothing survives Close.
type Backend struct {
	sets map[string]*record // keyed by set name
	now  func() time.Time
	mu   sync.RWMutex
}

// New creates a new memory backend
func New() *Backend {
	return &Backend{
		sets: make(map[string]*record),
		now:  time.Now,
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close drops every stored set
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sets = make(map[string]*record)
	return nil
}

// SaveSet stores a deep copy of set under name
func (b *Backend) SaveSet(name string, set *core.MarkerSet, encoded string) error {
	if name == "" {
		return fmt.Errorf("set name is empty")
	}
	if set == nil {
		return fmt.Errorf("save %q: set is nil", name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.sets[name] = &record{
		set:     set.Clone(),
		encoded: encoded,
		savedAt: b.now(),
	}
	return nil
}

// GetSet returns a deep copy of the named set
func (b *Backend) GetSet(name string) (*core.MarkerSet, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	r, ok := b.sets[name]
	if !ok {
		return nil, fmt.Errorf("get %q: %w", name, storage.ErrSetNotFound)
	}
	set := r.set.Clone()
	set.OriginalEncodedString = r.encoded
	return set, nil
}

// ListSets returns summaries ordered by name
func (b *Backend) ListSets() ([]storage.SetInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]storage.SetInfo, 0, len(b.sets))
	for name, r := range b.sets {
		out = append(out, storage.SetInfo{
			Name:        name,
			ZoneID:      r.set.ZoneID,
			Dialect:     r.set.Dialect,
			MarkerCount: r.set.Len(),
			SavedAt:     r.savedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DeleteSet removes the named set
func (b *Backend) DeleteSet(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.sets[name]; !ok {
		return fmt.Errorf("delete %q: %w", name, storage.ErrSetNotFound)
	}
	delete(b.sets, name)
	return nil
}
