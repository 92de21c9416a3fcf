package dialect

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages the registration and retrieval of dialects.
type Registry struct {
	dialects map[ID]Dialect
	mu       sync.RWMutex
}

// NewRegistry creates a new dialect registry.
func NewRegistry() *Registry {
	return &Registry{
		dialects: make(map[ID]Dialect),
	}
}

// Register registers a dialect, replacing any previous one with the same ID.
func (r *Registry) Register(d Dialect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dialects[d.ID()] = d
}

// Get retrieves a registered dialect by ID.
func (r *Registry) Get(id ID) (Dialect, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, exists := r.dialects[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDialect, id)
	}
	return d, nil
}

// GetByName retrieves a registered dialect by name or alias.
func (r *Registry) GetByName(name string) (Dialect, error) {
	id, ok := ParseID(name)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownDialect, name)
	}
	return r.Get(id)
}

// ListRegistered returns the registered dialect IDs in sorted order.
func (r *Registry) ListRegistered() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]ID, 0, len(r.dialects))
	for id := range r.dialects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

var globalRegistry = NewRegistry()

// Register registers a dialect in the global registry.
func Register(d Dialect) {
	globalRegistry.Register(d)
}

// Get retrieves a dialect from the global registry.
func Get(id ID) (Dialect, error) {
	return globalRegistry.Get(id)
}

// GetByName retrieves a dialect from the global registry by name.
func GetByName(name string) (Dialect, error) {
	return globalRegistry.GetByName(name)
}

// ListRegistered returns all dialects in the global registry.
func ListRegistered() []ID {
	return globalRegistry.ListRegistered()
}
