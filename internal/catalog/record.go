// Package catalog defines the provider and model records the build pipeline works on, in both
// their raw (Record) and typed (Provider, Model) shapes.
package catalog

import (
	"fmt"

	"github.com/fbettag/llmdb/internal/provider"
)

// Record is a canonical-keyed raw record: nested maps are map[string]any and lists are []any.
type Record map[string]any

// Layer is one ranked contribution to the catalog. Later layers take precedence.
type Layer struct {
	Name      string
	Providers []Record
	Models    []Record
}

// Empty reports whether the layer contributes nothing.
func (l Layer) Empty() bool {
	return len(l.Providers) == 0 && len(l.Models) == 0
}

// Key addresses one model within a catalog.
type Key struct {
	Provider provider.ID
	ID       string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Provider, k.ID)
}

// Str returns the string stored under key, or "" when absent or not a string.
func (r Record) Str(key string) string {
	s, _ := r[key].(string)
	return s
}

// ProviderKey returns the key of a provider record.
func (r Record) ProviderKey() provider.ID {
	return provider.ID(r.Str("id"))
}

// ModelKey returns the (provider, id) key of a model record.
func (r Record) ModelKey() Key {
	return Key{Provider: provider.ID(r.Str("provider")), ID: r.Str("id")}
}

// Clone deep-copies r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return Record(cloneMap(r))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies maps and lists; scalars are returned as is.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case Record:
		return Record(cloneMap(t))
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = CloneValue(item)
		}
		return out
	default:
		return v
	}
}
