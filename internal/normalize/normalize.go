// Package normalize coerces loosely keyed source bundles into canonical catalog records.
package normalize

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/fbettag/llmdb/internal/catalog"
	"github.com/fbettag/llmdb/internal/provider"
	"github.com/fbettag/llmdb/internal/source"
)

// Layer canonicalizes bundles into a named layer. Model records inherit the bundle's provider
// id when they carry none. Input bundles are not modified.
func Layer(name string, bundles []source.Bundle) catalog.Layer {
	layer := catalog.Layer{Name: name}
	for _, b := range bundles {
		var pid string
		if b.Provider != nil {
			rec := Record(b.Provider)
			if id, ok := ProviderID(rec["id"]); ok {
				rec["id"] = id
				pid = id
			}
			layer.Providers = append(layer.Providers, rec)
		}
		for _, raw := range b.Models {
			rec := Record(raw)
			if id, ok := ProviderID(rec["provider"]); ok {
				rec["provider"] = id
			} else if pid != "" {
				rec["provider"] = pid
			}
			if id, ok := rec["id"].(string); ok {
				rec["id"] = strings.TrimSpace(id)
			}
			if aliases, ok := rec["aliases"]; ok {
				rec["aliases"] = Strings(aliases)
			}
			layer.Models = append(layer.Models, rec)
		}
	}
	return layer
}

// Record returns a copy of r with every key canonicalized, recursively.
func Record(r catalog.Record) catalog.Record {
	return catalog.Record(canonicalMap(r))
}

func canonicalMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[Key(k)] = canonicalValue(v)
	}
	return out
}

func canonicalValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return canonicalMap(t)
	case catalog.Record:
		return canonicalMap(t)
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = val
		}
		return canonicalMap(m)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = canonicalValue(item)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = item
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = canonicalMap(item)
		}
		return out
	default:
		return v
	}
}

// Key canonicalizes a field name: trimmed, camelCase split to snake_case, hyphens and spaces
// mapped to underscores, lowercased.
func Key(k string) string {
	k = strings.TrimSpace(k)
	runes := []rune(k)
	var b strings.Builder
	b.Grow(len(k) + 4)
	for i, r := range runes {
		switch {
		case r == '-' || r == ' ':
			b.WriteByte('_')
			continue
		case unicode.IsUpper(r) && i > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// ProviderID coerces a provider identifier given as a string, provider.ID or fmt.Stringer.
func ProviderID(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case provider.ID:
		s = string(t)
	case fmt.Stringer:
		s = t.String()
	default:
		return "", false
	}
	s = strings.ToLower(provider.Normalize(s))
	if s == "" {
		return "", false
	}
	return s, true
}

// Strings coerces a scalar or list into a list of non-empty trimmed strings.
func Strings(v any) []any {
	var items []any
	switch t := v.(type) {
	case nil:
		return []any{}
	case string:
		items = []any{t}
	case []any:
		items = t
	case []string:
		for _, s := range t {
			items = append(items, s)
		}
	default:
		items = []any{t}
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		s := strings.TrimSpace(fmt.Sprint(item))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
