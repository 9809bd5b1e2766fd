package catalog

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	providerFields = fieldSet("id", "name", "base_url", "env", "config_schema", "doc", "extra")
	modelFields    = fieldSet("id", "provider", "name", "family", "aliases", "modalities",
		"capabilities", "limits", "cost", "tags", "deprecated", "extra")
)

func fieldSet(names ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

// DecodeProvider converts a merged provider record into its typed form. Keys the type does not
// declare are kept in Extra.
func DecodeProvider(r Record) (Provider, error) {
	var p Provider
	known, extra := splitKnown(r, providerFields)
	if err := roundTrip(known, &p); err != nil {
		return Provider{}, fmt.Errorf("decoding provider %q: %w", r.Str("id"), err)
	}
	p.Extra = mergeExtra(p.Extra, extra)
	return p, nil
}

// DecodeModel converts a merged model record into its typed form with capability defaults
// applied underneath the record's own values.
func DecodeModel(r Record) (Model, error) {
	m := Model{Capabilities: DefaultCapabilities()}
	known, extra := splitKnown(r, modelFields)
	if err := roundTrip(known, &m); err != nil {
		return Model{}, fmt.Errorf("decoding model %s: %w", r.ModelKey(), err)
	}
	m.Extra = mergeExtra(m.Extra, extra)
	return m, nil
}

func splitKnown(r Record, fields map[string]struct{}) (map[string]any, map[string]any) {
	known := make(map[string]any, len(r))
	var extra map[string]any
	for k, v := range r {
		if _, ok := fields[k]; ok {
			known[k] = v
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return known, extra
}

func mergeExtra(dst, src map[string]any) map[string]any {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
	return dst
}

func roundTrip(in map[string]any, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

var dateSuffix = regexp.MustCompile(`-(\d{8}|\d{4}-\d{2}-\d{2}|\d{4})$`)

// DeriveFamily guesses a family from a model id: date-like suffixes are dropped, then the last
// dash segment. Ids with a single segment have no family.
func DeriveFamily(id string) string {
	base := strings.TrimSpace(id)
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	base = dateSuffix.ReplaceAllString(base, "")
	i := strings.LastIndex(base, "-")
	if i <= 0 {
		return ""
	}
	return base[:i]
}

// Enrich fills derived fields. Supplied values are never overridden.
func Enrich(m Model) Model {
	if m.Family == "" {
		m.Family = DeriveFamily(m.ID)
	}
	if m.Name == "" {
		m.Name = m.ID
	}
	return m
}
