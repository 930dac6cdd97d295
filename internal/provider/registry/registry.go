package registry

import (
	"sort"
	"sync"

	"github.com/paysynclabs/paysync/internal/provider/domain"
)

// Registry is the process-lifetime table of configured provider
// adapters. It is populated once during Initialize and read-only
// afterwards; the mutex only guards the startup window.
type Registry struct {
	mu          sync.RWMutex
	providers   map[string]domain.Provider
	initialized bool
}

func New() *Registry {
	return &Registry{
		providers: make(map[string]domain.Provider),
	}
}

func (r *Registry) Register(p domain.Provider) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
}

func (r *Registry) Get(id string) (domain.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// All returns registered providers in stable id order.
func (r *Registry) All() []domain.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]domain.Provider, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.providers[id])
	}
	return out
}

// Enabled returns providers that are both configured and enabled.
func (r *Registry) Enabled() []domain.Provider {
	all := r.All()
	out := make([]domain.Provider, 0, len(all))
	for _, p := range all {
		if p.IsConfigured() && p.IsEnabled() {
			out = append(out, p)
		}
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

func (r *Registry) EnabledCount() int {
	return len(r.Enabled())
}

func (r *Registry) markInitialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialized {
		return false
	}
	r.initialized = true
	return true
}
