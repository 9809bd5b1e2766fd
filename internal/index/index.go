// Package index builds the lookup tables every catalog read goes through.
package index

import (
	"fmt"
	"sort"

	"github.com/fbettag/llmdb/internal/catalog"
	"github.com/fbettag/llmdb/internal/provider"
)

// Indexes are read-only once built.
type Indexes struct {
	ProvidersByID    map[provider.ID]*catalog.Provider
	ModelsByKey      map[catalog.Key]*catalog.Model
	ModelsByProvider map[provider.ID][]*catalog.Model
	// AliasesByKey maps (provider, alias) to the owning model's canonical id.
	AliasesByKey map[catalog.Key]string
}

// Build indexes providers and models. The slices are retained; callers must not modify them
// afterwards. A duplicate (provider, id) pair panics: merge guarantees uniqueness.
func Build(providers []catalog.Provider, models []catalog.Model) Indexes {
	idx := Indexes{
		ProvidersByID:    make(map[provider.ID]*catalog.Provider, len(providers)),
		ModelsByKey:      make(map[catalog.Key]*catalog.Model, len(models)),
		ModelsByProvider: make(map[provider.ID][]*catalog.Model),
		AliasesByKey:     make(map[catalog.Key]string),
	}
	for i := range providers {
		p := &providers[i]
		idx.ProvidersByID[p.ID] = p
	}
	for i := range models {
		m := &models[i]
		key := m.Key()
		if _, dup := idx.ModelsByKey[key]; dup {
			panic(fmt.Sprintf("index: duplicate model %s", key))
		}
		idx.ModelsByKey[key] = m
		idx.ModelsByProvider[m.Provider] = append(idx.ModelsByProvider[m.Provider], m)
		for _, alias := range m.Aliases {
			ak := catalog.Key{Provider: m.Provider, ID: alias}
			if _, taken := idx.AliasesByKey[ak]; !taken {
				idx.AliasesByKey[ak] = m.ID
			}
		}
	}
	for _, list := range idx.ModelsByProvider {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}
	return idx
}

// Canonical maps id to the canonical id under p through the alias table. Unknown ids are
// returned unchanged.
func (idx Indexes) Canonical(p provider.ID, id string) string {
	if canonical, ok := idx.AliasesByKey[catalog.Key{Provider: p, ID: id}]; ok {
		return canonical
	}
	return id
}

// Lookup finds a model by canonical id or alias.
func (idx Indexes) Lookup(p provider.ID, id string) (*catalog.Model, bool) {
	m, ok := idx.ModelsByKey[catalog.Key{Provider: p, ID: idx.Canonical(p, id)}]
	return m, ok
}

// ProviderIDs returns indexed provider ids in sorted order.
func (idx Indexes) ProviderIDs() []provider.ID {
	ids := make([]provider.ID, 0, len(idx.ProvidersByID))
	for id := range idx.ProvidersByID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
