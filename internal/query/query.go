// Package query answers catalog reads from the published snapshot.
package query

import (
	"fmt"
	"strings"

	"github.com/fbettag/llmdb/internal/catalog"
	"github.com/fbettag/llmdb/internal/provider"
	"github.com/fbettag/llmdb/internal/snapshot"
	"github.com/fbettag/llmdb/internal/spec"
)

// Catalog reads from one snapshot store. With no snapshot published every read is empty,
// false or not found.
type Catalog struct {
	store    *snapshot.Store
	resolver *spec.Resolver
}

// New returns a reader over store, or snapshot.Default when store is nil.
func New(store *snapshot.Store) *Catalog {
	if store == nil {
		store = snapshot.Default
	}
	return &Catalog{store: store, resolver: spec.New(store)}
}

// Resolver exposes the spec resolver bound to the same store.
func (c *Catalog) Resolver() *spec.Resolver { return c.resolver }

func (c *Catalog) Providers() []catalog.Provider {
	snap, ok := c.store.Current()
	if !ok {
		return nil
	}
	out := make([]catalog.Provider, 0, len(snap.Providers))
	for _, id := range snap.Indexes.ProviderIDs() {
		out = append(out, *snap.Indexes.ProvidersByID[id])
	}
	return out
}

func (c *Catalog) Provider(id provider.ID) (catalog.Provider, bool) {
	snap, ok := c.store.Current()
	if !ok {
		return catalog.Provider{}, false
	}
	p, ok := snap.Indexes.ProvidersByID[id]
	if !ok {
		return catalog.Provider{}, false
	}
	return *p, true
}

// Models lists the models of p sorted by id, or every model when p is empty.
func (c *Catalog) Models(p provider.ID) []catalog.Model {
	snap, ok := c.store.Current()
	if !ok {
		return nil
	}
	var out []catalog.Model
	for _, id := range snap.Indexes.ProviderIDs() {
		if p != "" && id != p {
			continue
		}
		for _, m := range snap.Indexes.ModelsByProvider[id] {
			out = append(out, *m)
		}
	}
	return out
}

// Model finds a model by canonical id or alias.
func (c *Catalog) Model(p provider.ID, id string) (catalog.Model, bool) {
	snap, ok := c.store.Current()
	if !ok {
		return catalog.Model{}, false
	}
	m, ok := snap.Indexes.Lookup(p, id)
	if !ok {
		return catalog.Model{}, false
	}
	return *m, true
}

// ModelSpec resolves a spec string.
func (c *Catalog) ModelSpec(s string, opts ...spec.Option) (spec.Resolved, error) {
	return c.resolver.Resolve(s, opts...)
}

// Allowed reports whether the snapshot's filters admit the model a spec names. The model does
// not need to exist.
func (c *Catalog) Allowed(s string) bool {
	snap, ok := c.store.Current()
	if !ok {
		return false
	}
	p, id, err := c.resolver.Parse(s)
	if err != nil {
		return false
	}
	if _, rest, ok := provider.SplitRegionPrefix(p, id); ok {
		id = rest
	}
	return snap.Filter.Allowed(p, snap.Indexes.Canonical(p, id))
}

// SelectOptions narrows selection. Require and Forbid take capability keys.
type SelectOptions struct {
	Require           []string
	Forbid            []string
	Prefer            []provider.ID
	Scope             provider.ID
	IncludeDeprecated bool
}

// Candidates returns every model satisfying opts, in provider preference order: opts.Prefer,
// then the snapshot preference, then the rest alphabetically. Models within a provider are
// ordered by id.
func (c *Catalog) Candidates(opts SelectOptions) ([]catalog.Model, error) {
	if err := checkKeys(opts.Require); err != nil {
		return nil, err
	}
	if err := checkKeys(opts.Forbid); err != nil {
		return nil, err
	}
	snap, ok := c.store.Current()
	if !ok {
		return nil, nil
	}
	var out []catalog.Model
	for _, p := range providerOrder(snap, opts.Prefer) {
		if opts.Scope != "" && p != opts.Scope {
			continue
		}
		for _, m := range snap.Indexes.ModelsByProvider[p] {
			if m.Deprecated && !opts.IncludeDeprecated {
				continue
			}
			if matches(*m, opts) {
				out = append(out, *m)
			}
		}
	}
	return out, nil
}

// Select returns the first candidate, or a no_match error.
func (c *Catalog) Select(opts SelectOptions) (catalog.Model, error) {
	candidates, err := c.Candidates(opts)
	if err != nil {
		return catalog.Model{}, err
	}
	if len(candidates) == 0 {
		return catalog.Model{}, &spec.Error{Kind: spec.KindNoMatch, Detail: describe(opts)}
	}
	return candidates[0], nil
}

func matches(m catalog.Model, opts SelectOptions) bool {
	for _, k := range opts.Require {
		if ok, _ := HasCapability(m, k); !ok {
			return false
		}
	}
	for _, k := range opts.Forbid {
		if ok, _ := HasCapability(m, k); ok {
			return false
		}
	}
	return true
}

func providerOrder(snap *snapshot.Snapshot, prefer []provider.ID) []provider.ID {
	seen := map[provider.ID]struct{}{}
	var order []provider.ID
	add := func(p provider.ID) {
		if _, ok := snap.Indexes.ProvidersByID[p]; !ok {
			return
		}
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		order = append(order, p)
	}
	for _, p := range prefer {
		add(p)
	}
	for _, p := range snap.Prefer {
		add(p)
	}
	for _, p := range snap.Indexes.ProviderIDs() {
		add(p)
	}
	return order
}

func describe(opts SelectOptions) string {
	var parts []string
	if len(opts.Require) > 0 {
		parts = append(parts, "require "+strings.Join(opts.Require, ","))
	}
	if len(opts.Forbid) > 0 {
		parts = append(parts, "forbid "+strings.Join(opts.Forbid, ","))
	}
	if opts.Scope != "" {
		parts = append(parts, fmt.Sprintf("scope %s", opts.Scope))
	}
	if len(parts) == 0 {
		return "no models in catalog"
	}
	return "no model satisfies " + strings.Join(parts, "; ")
}
