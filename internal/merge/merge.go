// Package merge combines ranked catalog layers into one provider list and one model list.
package merge

import (
	"fmt"
	"sort"

	"github.com/fbettag/llmdb/internal/catalog"
	"github.com/fbettag/llmdb/internal/provider"
)

// AliasRemoval records an alias dropped after merging.
type AliasRemoval struct {
	Key    catalog.Key
	Alias  string
	Reason string
}

const (
	// ReasonCanonical marks an alias equal to a canonical id under the same provider.
	ReasonCanonical = "shadows canonical id"
	// ReasonClaimed marks an alias already owned by another model of the same provider.
	ReasonClaimed = "claimed by another model"
)

// Result is the outcome of merging layers.
type Result struct {
	Providers []catalog.Record
	Models    []catalog.Record
	Removed   []AliasRemoval
}

// Merge reduces layers left to right; later layers take precedence. Providers are keyed by id,
// models by (provider, id). Output is sorted by provider id, then model id.
func Merge(layers []catalog.Layer) ([]catalog.Record, []catalog.Record) {
	r := Layers(layers)
	return r.Providers, r.Models
}

// Layers is Merge with alias cleanup reported.
func Layers(layers []catalog.Layer) Result {
	providers := map[provider.ID]catalog.Record{}
	models := map[catalog.Key]catalog.Record{}
	for _, layer := range layers {
		for _, rec := range layer.Providers {
			id := rec.ProviderKey()
			if id == "" {
				continue
			}
			if prev, ok := providers[id]; ok {
				providers[id] = Records(prev, rec)
			} else {
				providers[id] = rec.Clone()
			}
		}
		for _, rec := range layer.Models {
			key := rec.ModelKey()
			if key.Provider == "" || key.ID == "" {
				continue
			}
			if prev, ok := models[key]; ok {
				models[key] = Records(prev, rec)
			} else {
				models[key] = rec.Clone()
			}
		}
	}

	var res Result
	res.Providers = make([]catalog.Record, 0, len(providers))
	for _, rec := range providers {
		res.Providers = append(res.Providers, rec)
	}
	sort.Slice(res.Providers, func(i, j int) bool {
		return res.Providers[i].ProviderKey() < res.Providers[j].ProviderKey()
	})

	keys := make([]catalog.Key, 0, len(models))
	for k := range models {
		keys = append(keys, k)
	}
	SortKeys(keys)
	res.Models = make([]catalog.Record, 0, len(keys))
	for _, k := range keys {
		res.Models = append(res.Models, models[k])
	}
	res.Removed = cleanAliases(res.Models)
	return res
}

// SortKeys orders keys by provider, then id.
func SortKeys(keys []catalog.Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Provider != keys[j].Provider {
			return keys[i].Provider < keys[j].Provider
		}
		return keys[i].ID < keys[j].ID
	})
}

// Records deep-merges over onto a copy of base.
func Records(base, over catalog.Record) catalog.Record {
	return catalog.Record(mergeMaps(base, over))
}

func mergeMaps(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		out[k] = catalog.CloneValue(v)
	}
	for k, v := range over {
		prev, ok := out[k]
		if !ok {
			out[k] = catalog.CloneValue(v)
			continue
		}
		out[k] = mergeValue(k, prev, v)
	}
	return out
}

func mergeValue(key string, base, over any) any {
	bm, baseIsMap := asMap(base)
	om, overIsMap := asMap(over)
	if baseIsMap && overIsMap {
		return mergeMaps(bm, om)
	}
	bl, baseIsList := base.([]any)
	ol, overIsList := over.([]any)
	if baseIsList && overIsList && key == "aliases" {
		return union(ol, bl)
	}
	return catalog.CloneValue(over)
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case catalog.Record:
		return t, true
	}
	return nil, false
}

// union keeps first occurrences: every entry of first, then the unseen entries of rest.
func union(first, rest []any) []any {
	seen := make(map[string]struct{}, len(first)+len(rest))
	out := make([]any, 0, len(first)+len(rest))
	for _, list := range [][]any{first, rest} {
		for _, v := range list {
			s := fmt.Sprint(v)
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// cleanAliases removes aliases that collide with canonical ids or with an earlier model's
// alias under the same provider. models must be sorted.
func cleanAliases(models []catalog.Record) []AliasRemoval {
	canonical := map[catalog.Key]struct{}{}
	for _, m := range models {
		canonical[m.ModelKey()] = struct{}{}
	}
	owners := map[catalog.Key]string{}
	var removed []AliasRemoval
	for _, m := range models {
		raw, ok := m["aliases"].([]any)
		if !ok {
			continue
		}
		key := m.ModelKey()
		kept := make([]any, 0, len(raw))
		for _, v := range raw {
			alias := fmt.Sprint(v)
			ak := catalog.Key{Provider: key.Provider, ID: alias}
			if _, clash := canonical[ak]; clash {
				removed = append(removed, AliasRemoval{Key: key, Alias: alias, Reason: ReasonCanonical})
				continue
			}
			if owner, taken := owners[ak]; taken {
				if owner != key.ID {
					removed = append(removed, AliasRemoval{Key: key, Alias: alias, Reason: ReasonClaimed})
				}
				continue
			}
			owners[ak] = key.ID
			kept = append(kept, alias)
		}
		m["aliases"] = kept
	}
	return removed
}
