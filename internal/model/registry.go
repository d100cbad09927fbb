package model

import (
	"slices"
	"strings"
	"sync"

	"github.com/hlop3z/schemasync/internal/alerr"
)

// Registry stores entity descriptors. Registration order does not affect
// Entities, which is sorted by name.
type Registry struct {
	entities map[string]Entity // key: lower-cased entity name
	mu       sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entities: make(map[string]Entity)}
}

// Register adds an entity. Names must be unique, ignoring case.
func (r *Registry) Register(e Entity) error {
	if strings.TrimSpace(e.Name) == "" {
		return alerr.New(alerr.ErrModelInvalid, "entity name cannot be empty")
	}
	if len(e.Properties) == 0 {
		return alerr.New(alerr.ErrModelInvalid, "entity must declare at least one property").
			With("entity", e.Name)
	}

	key := strings.ToLower(e.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entities[key]; exists {
		return alerr.New(alerr.ErrSchemaDuplicate, "entity already registered").
			With("entity", e.Name)
	}

	r.entities[key] = e
	return nil
}

// MustRegister registers each entity and panics on the first error.
// Intended for package-level model declarations.
func (r *Registry) MustRegister(entities ...Entity) *Registry {
	for _, e := range entities {
		if err := r.Register(e); err != nil {
			panic(err)
		}
	}
	return r
}

// Get returns the entity with the given name.
func (r *Registry) Get(name string) (Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entities[strings.ToLower(name)]
	return e, ok
}

// Entities returns all registered entities sorted by name.
func (r *Registry) Entities() []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entity, 0, len(r.entities))
	for _, e := range r.entities {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entity) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}
