package indexdef

import (
	"sync"

	"github.com/redbco/redb-indexmeta/pkg/logger"
)

// Provider receives the definitions registered so far and returns the
// updated collection. Providers may add, replace or remove entries.
type Provider func(RawSet) RawSet

type namedProvider struct {
	name string
	fn   Provider
}

// Registry collects definitions from independent providers at startup.
type Registry struct {
	mu        sync.Mutex
	providers []namedProvider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends a provider. Providers run in the order they were added.
func (r *Registry) Add(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append(r.providers, namedProvider{name: name, fn: p})
}

// AddSet registers a fixed collection of definitions, overriding earlier entries with the same name.
func (r *Registry) AddSet(name string, defs RawSet) {
	r.Add(name, func(in RawSet) RawSet {
		for k, v := range defs {
			in[k] = v
		}
		return in
	})
}

// Collect runs every provider and returns the combined raw definitions.
func (r *Registry) Collect() RawSet {
	r.mu.Lock()
	providers := append([]namedProvider(nil), r.providers...)
	r.mu.Unlock()

	raw := RawSet{}
	for _, p := range providers {
		if out := p.fn(raw); out != nil {
			raw = out
		} else {
			raw = RawSet{}
		}
	}
	return raw
}

// Build collects and validates the definitions. A composite definition
// without an index field produces one warning naming the index.
func (r *Registry) Build(log *logger.Logger) (*Set, []Rejection) {
	set, rejections := Validate(r.Collect())

	if log != nil {
		for _, rej := range rejections {
			fields := map[string]string{"index": rej.Index, "reason": string(rej.Reason)}
			if rej.Column != "" {
				fields["column"] = rej.Column
			}
			if rej.Reason == ReasonMissingIndexField {
				log.WithFields(fields).Warn("index definition has no index field, ignoring it")
				continue
			}
			log.WithFields(fields).Debug("dropped invalid index definition entry")
		}
		log.Infof("registered %d index definitions", set.Len())
	}

	return set, rejections
}
