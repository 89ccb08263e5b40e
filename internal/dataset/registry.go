package dataset

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotLoaded indicates an unknown dataset name.
var ErrNotLoaded = errors.New("dataset not loaded")

// Entry is a registry record owning one loaded dataset plus load metadata.
type Entry struct {
	Name        string
	LoadID      string
	SourcePath  string
	Sheet       string
	LoadedAt    time.Time
	RowCount    int
	ColumnCount int
	Dataset     *Dataset
}

// NewEntry constructs an Entry with counts derived from the dataset.
func NewEntry(name, loadID, sourcePath, sheet string, loadedAt time.Time, ds *Dataset) *Entry {
	return &Entry{
		Name:        name,
		LoadID:      loadID,
		SourcePath:  sourcePath,
		Sheet:       sheet,
		LoadedAt:    loadedAt,
		RowCount:    ds.RowCount(),
		ColumnCount: ds.ColumnCount(),
		Dataset:     ds,
	}
}

// Summary is the listing projection of an Entry.
type Summary struct {
	Name        string    `json:"dataset"`
	SourcePath  string    `json:"source_path"`
	Sheet       string    `json:"sheet,omitempty"`
	RowCount    int       `json:"rows"`
	ColumnCount int       `json:"columns"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// Registry is the session-scoped mapping from dataset name to Entry.
// Mutations are serialized under a single mutex; readers never observe a
// partially replaced entry. Insertion order is preserved for listing, and
// replacing an existing name keeps its original position.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Put registers entry under its name, atomically replacing any prior entry.
func (r *Registry) Put(entry *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[entry.Name]; !exists {
		r.order = append(r.order, entry.Name)
	}
	r.entries[entry.Name] = entry
}

// Get returns the entry for name, or ErrNotLoaded naming the missing key.
func (r *Registry) Get(name string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNotLoaded)
	}
	return e, nil
}

// List returns summaries in insertion order.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Summary, 0, len(r.order))
	for _, name := range r.order {
		e := r.entries[name]
		out = append(out, Summary{
			Name:        e.Name,
			SourcePath:  e.SourcePath,
			Sheet:       e.Sheet,
			RowCount:    e.RowCount,
			ColumnCount: e.ColumnCount,
			LoadedAt:    e.LoadedAt,
		})
	}
	return out
}

// Names returns the registered dataset names in insertion order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Remove deletes the entry for name. Removing an absent name is a no-op;
// the return value reports whether anything was deleted.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; !ok {
		return false
	}
	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Reset drops every entry, returning the registry to its initial state.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[string]*Entry)
	r.order = nil
}

// Len returns the number of registered datasets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
