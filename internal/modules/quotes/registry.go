package quotes

import (
	"sort"

	"github.com/portfoliodb/portfoliodb/internal/domain"
)

// Registry maps provider identifiers to providers. It is built once and
// never modified.
type Registry struct {
	providers map[string]domain.QuoteProvider
}

// NewRegistry registers each provider under its Name(). A later provider
// with the same name replaces an earlier one.
func NewRegistry(providers ...domain.QuoteProvider) *Registry {
	m := make(map[string]domain.QuoteProvider, len(providers))
	for _, p := range providers {
		if p == nil {
			continue
		}
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Get returns the provider registered under id
func (r *Registry) Get(id string) (domain.QuoteProvider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

// IDs returns the registered identifiers in sorted order
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
