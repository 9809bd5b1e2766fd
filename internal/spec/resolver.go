// Package spec parses provider:model and model@provider strings and resolves them against the
// published catalog snapshot, following aliases and provider region prefixes.
package spec

import (
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"github.com/fbettag/llmdb/internal/catalog"
	"github.com/fbettag/llmdb/internal/metrics"
	"github.com/fbettag/llmdb/internal/provider"
	"github.com/fbettag/llmdb/internal/snapshot"
)

// Resolved is a canonical (provider, id) pair. ID keeps any region prefix the caller supplied;
// Model carries the canonical record.
type Resolved struct {
	Provider provider.ID
	ID       string
	Model    *catalog.Model
}

// Spec renders the resolved pair in form f.
func (r Resolved) Spec(f Format) string {
	return FormatSpec(r.Provider, r.ID, f)
}

// Option tunes a single Parse or Resolve call.
type Option func(*options)

type options struct {
	format Format
	scope  provider.ID
}

// WithFormat forces a spec form instead of auto-detection.
func WithFormat(f Format) Option {
	return func(o *options) { o.format = f }
}

// WithScope resolves input as a bare id under p when it is not itself a valid spec.
func WithScope(p provider.ID) Option {
	return func(o *options) { o.scope = p }
}

const bareCacheSize = 1024

type bareKey struct {
	epoch uint64
	id    string
}

type bareResult struct {
	res Resolved
	err error
}

// Resolver reads from one snapshot store.
type Resolver struct {
	store *snapshot.Store
	bare  *lru.Cache
}

// New returns a resolver over store, or over snapshot.Default when store is nil.
func New(store *snapshot.Store) *Resolver {
	if store == nil {
		store = snapshot.Default
	}
	cache, err := lru.New(bareCacheSize)
	if err != nil {
		panic(err)
	}
	return &Resolver{store: store, bare: cache}
}

// Default resolves against snapshot.Default.
var Default = New(nil)

// ParseProvider validates a provider segment against the closed set and the current snapshot.
func (r *Resolver) ParseProvider(s string) (provider.ID, error) {
	snap, _ := r.store.Current()
	return parseProvider(snap, s)
}

func parseProvider(snap *snapshot.Snapshot, s string) (provider.ID, error) {
	id, err := provider.Check(s)
	if err != nil {
		return "", newError(KindBadProvider, s, "%v", err)
	}
	if !provider.IsKnown(id) {
		return "", newError(KindUnknownProvider, s, "%s is not a known provider", id)
	}
	if snap == nil {
		return "", newError(KindUnknownProvider, s, "no catalog loaded")
	}
	if _, ok := snap.Indexes.ProvidersByID[id]; !ok {
		return "", newError(KindUnknownProvider, s, "%s is not in the catalog", id)
	}
	return id, nil
}

// Parse splits input and validates its provider. The model segment is returned as written.
func (r *Resolver) Parse(input string, opts ...Option) (provider.ID, string, error) {
	o := collect(opts)
	provSeg, modelSeg, _, err := Split(input, o.format)
	if err != nil {
		return "", "", err
	}
	p, err := r.ParseProvider(provSeg)
	if err != nil {
		return "", "", withInput(err, input)
	}
	return p, modelSeg, nil
}

// Resolve turns a spec into a canonical pair. Input without a separator is looked up as a bare
// id, under the scope when one is given. With a scope, input that does not parse to a
// catalog provider, or whose qualified lookup finds nothing, is also tried as a bare id under
// the scope, which lets Bedrock ids such as "anthropic.claude-3-haiku-20240307-v1:0" pass
// unqualified. A qualified match wins over the scope.
func (r *Resolver) Resolve(input string, opts ...Option) (Resolved, error) {
	res, err := r.resolve(input, collect(opts))
	observe(err)
	return res, err
}

func (r *Resolver) resolve(input string, o options) (Resolved, error) {
	snap, ok := r.store.Current()
	if !ok {
		return Resolved{}, newError(KindNotFound, input, "no catalog loaded")
	}
	if strings.TrimSpace(input) == "" {
		return Resolved{}, newError(KindInvalidFormat, input, "empty spec")
	}
	provSeg, modelSeg, _, err := Split(input, o.format)
	if err != nil {
		if o.scope != "" || KindOf(err) == KindInvalidFormat {
			return r.resolveBare(snap, strings.TrimSpace(input), o.scope)
		}
		return Resolved{}, err
	}
	p, err := parseProvider(snap, provSeg)
	if err != nil {
		if o.scope != "" {
			return r.resolveBare(snap, strings.TrimSpace(input), o.scope)
		}
		return Resolved{}, withInput(err, input)
	}
	res, err := lookup(snap, p, modelSeg, input)
	if err != nil && o.scope != "" {
		// "mistral:7b" under scope ollama is an Ollama id, not a Mistral spec.
		if scoped, serr := r.resolveBare(snap, strings.TrimSpace(input), o.scope); serr == nil {
			return scoped, nil
		}
	}
	return res, err
}

// ResolvePair resolves a structured pair without parsing.
func (r *Resolver) ResolvePair(p provider.ID, id string) (Resolved, error) {
	res, err := r.resolvePair(p, id)
	observe(err)
	return res, err
}

func (r *Resolver) resolvePair(p provider.ID, id string) (Resolved, error) {
	input := FormatSpec(p, id, FormatColon)
	snap, ok := r.store.Current()
	if !ok {
		return Resolved{}, newError(KindNotFound, input, "no catalog loaded")
	}
	if id == "" {
		return Resolved{}, newError(KindEmptySegment, input, "model id is empty")
	}
	pid, err := parseProvider(snap, string(p))
	if err != nil {
		return Resolved{}, withInput(err, input)
	}
	return lookup(snap, pid, id, input)
}

// ResolveBare looks id up under scope, or across every provider when scope is empty. More
// than one match without a scope is ambiguous.
func (r *Resolver) ResolveBare(id string, scope provider.ID) (Resolved, error) {
	snap, ok := r.store.Current()
	var (
		res Resolved
		err error
	)
	if !ok {
		err = newError(KindNotFound, id, "no catalog loaded")
	} else {
		res, err = r.resolveBare(snap, strings.TrimSpace(id), scope)
	}
	observe(err)
	return res, err
}

func (r *Resolver) resolveBare(snap *snapshot.Snapshot, id string, scope provider.ID) (Resolved, error) {
	if id == "" {
		return Resolved{}, newError(KindEmptySegment, id, "model id is empty")
	}
	if scope != "" {
		p, err := parseProvider(snap, string(scope))
		if err != nil {
			return Resolved{}, err
		}
		return lookup(snap, p, id, id)
	}

	key := bareKey{epoch: snap.Meta.Epoch, id: id}
	if v, ok := r.bare.Get(key); ok {
		hit := v.(bareResult)
		return hit.res, hit.err
	}
	res, err := searchAll(snap, id)
	r.bare.Add(key, bareResult{res: res, err: err})
	return res, err
}

func searchAll(snap *snapshot.Snapshot, id string) (Resolved, error) {
	var matches []Resolved
	for _, p := range snap.Indexes.ProviderIDs() {
		if res, ok := find(snap, p, id); ok {
			matches = append(matches, res)
		}
	}
	switch len(matches) {
	case 0:
		return Resolved{}, newError(KindNotFound, id, "no provider serves this model")
	case 1:
		return matches[0], nil
	}
	e := newError(KindAmbiguous, id, "served by %d providers, qualify it or pass a scope", len(matches))
	for _, m := range matches {
		e.Matches = append(e.Matches, m.Model.Key())
	}
	return Resolved{}, e
}

func lookup(snap *snapshot.Snapshot, p provider.ID, id, input string) (Resolved, error) {
	if res, ok := find(snap, p, id); ok {
		return res, nil
	}
	return Resolved{}, newError(KindNotFound, input, "no model %q under %s", id, p)
}

// find strips a region prefix declared by p, follows aliases and re-attaches the prefix to the
// canonical id. An id that only matches unstripped is returned as is.
func find(snap *snapshot.Snapshot, p provider.ID, id string) (Resolved, bool) {
	idx := snap.Indexes
	if prefix, rest, ok := provider.SplitRegionPrefix(p, id); ok {
		if m, found := idx.Lookup(p, rest); found {
			return Resolved{Provider: p, ID: prefix + m.ID, Model: m}, true
		}
	}
	if m, found := idx.Lookup(p, id); found {
		return Resolved{Provider: p, ID: m.ID, Model: m}, true
	}
	return Resolved{}, false
}

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func observe(err error) {
	result := "ok"
	if err != nil {
		if kind := KindOf(err); kind != "" {
			result = string(kind)
		} else {
			result = "error"
		}
	}
	metrics.Resolutions.WithLabelValues(result).Inc()
}

// Parse splits and validates input against snapshot.Default.
func Parse(input string, opts ...Option) (provider.ID, string, error) {
	return Default.Parse(input, opts...)
}

// Resolve resolves input against snapshot.Default.
func Resolve(input string, opts ...Option) (Resolved, error) {
	return Default.Resolve(input, opts...)
}
