// Package snapshot publishes immutable catalog snapshots for lock-free reads.
//
// A build computes a whole new Snapshot off to the side and swaps it in with one atomic store.
// Readers load the pointer and never observe a partially built catalog. Writers are serialized
// so epochs become visible in order.
package snapshot

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/fbettag/llmdb/internal/catalog"
	"github.com/fbettag/llmdb/internal/filter"
	"github.com/fbettag/llmdb/internal/index"
	"github.com/fbettag/llmdb/internal/provider"
)

// Meta describes how a snapshot was produced.
type Meta struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Epoch       uint64         `json:"epoch"`
	BuildID     string         `json:"build_id"`
	Sources     []string       `json:"sources"`
	Dropped     map[string]int `json:"dropped,omitempty"`
}

// Snapshot is the published catalog. Treat every field as read-only.
type Snapshot struct {
	Providers []catalog.Provider
	Models    []catalog.Model
	Indexes   index.Indexes
	Filter    filter.Set
	// Prefer orders providers when selection has several candidates.
	Prefer []provider.ID
	Meta   Meta
}

// New indexes providers and models into an unpublished snapshot.
func New(providers []catalog.Provider, models []catalog.Model, set filter.Set, prefer []provider.ID) *Snapshot {
	return &Snapshot{
		Providers: providers,
		Models:    models,
		Indexes:   index.Build(providers, models),
		Filter:    set,
		Prefer:    prefer,
		Meta:      Meta{GeneratedAt: time.Now().UTC()},
	}
}

// Store holds at most one current snapshot.
type Store struct {
	current atomic.Pointer[Snapshot]
	epoch   atomic.Uint64
	mu      sync.Mutex
}

// Default is the process-wide store.
var Default = &Store{}

// Publish stamps a copy of snap with the next epoch and makes it current.
func (s *Store) Publish(snap *Snapshot) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publishLocked(snap)
}

func (s *Store) publishLocked(snap *Snapshot) *Snapshot {
	next := *snap
	next.Meta.Epoch = s.epoch.Add(1)
	s.current.Store(&next)
	return &next
}

// Current returns the published snapshot, if any. It never blocks.
func (s *Store) Current() (*Snapshot, bool) {
	snap := s.current.Load()
	return snap, snap != nil
}

// Clear drops the current snapshot. Epochs keep counting from where they were.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Store(nil)
}

// Epoch returns the last epoch handed out, 0 before the first publish.
func (s *Store) Epoch() uint64 {
	return s.epoch.Load()
}

// Update runs build and publishes its result while holding the writer lock. Nothing is
// published when build fails.
func (s *Store) Update(build func() (*Snapshot, error)) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := build()
	if err != nil {
		return nil, err
	}
	return s.publishLocked(snap), nil
}

func Publish(snap *Snapshot) *Snapshot { return Default.Publish(snap) }

func Current() (*Snapshot, bool) { return Default.Current() }

func Clear() { Default.Clear() }

func Epoch() uint64 { return Default.Epoch() }

func Update(build func() (*Snapshot, error)) (*Snapshot, error) { return Default.Update(build) }
