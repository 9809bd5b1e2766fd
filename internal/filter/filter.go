// Package filter compiles allow/deny glob configuration and applies it to models.
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/fbettag/llmdb/internal/catalog"
	"github.com/fbettag/llmdb/internal/provider"
)

// ErrEmptyCatalog is returned when a non-universal allow filter removes every model.
var ErrEmptyCatalog = errors.New("filters removed every model")

// Pattern is one compiled glob. '*' matches any run of characters; the match is anchored.
type Pattern struct {
	Glob string
	re   *regexp.Regexp
}

// Match reports whether id matches the whole pattern.
func (p Pattern) Match(id string) bool {
	return p.re != nil && p.re.MatchString(id)
}

func (p Pattern) String() string { return p.Glob }

// CompileGlob turns a glob into an anchored pattern. Everything but '*' is literal.
func CompileGlob(glob string) Pattern {
	parts := strings.Split(glob, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return Pattern{Glob: glob, re: regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")}
}

// AllowSpec is either universal or an explicit provider to globs map.
type AllowSpec struct {
	all     bool
	entries map[string][]string
}

// All allows every model not denied.
func All() AllowSpec { return AllowSpec{all: true} }

// Only allows the listed globs per provider. An empty map is universal.
func Only(entries map[string][]string) AllowSpec {
	if len(entries) == 0 {
		return All()
	}
	return AllowSpec{entries: entries}
}

// Universal reports whether everything is allowed.
func (a AllowSpec) Universal() bool { return a.all || len(a.entries) == 0 }

// Set is a compiled filter. Allow is ignored when Universal is set.
type Set struct {
	Universal bool
	Allow     map[provider.ID][]Pattern
	Deny      map[provider.ID][]Pattern
}

// Compile builds a Set. Keys are normalized; those known rejects are returned sorted and are
// still compiled. A nil known uses the closed provider set.
func Compile(allow AllowSpec, deny map[string][]string, known func(provider.ID) bool) (Set, []string) {
	if known == nil {
		known = provider.IsKnown
	}
	unknown := map[string]struct{}{}
	compile := func(in map[string][]string) map[provider.ID][]Pattern {
		out := make(map[provider.ID][]Pattern, len(in))
		for key, globs := range in {
			id := provider.ID(provider.Normalize(key))
			if !known(id) {
				unknown[string(id)] = struct{}{}
			}
			patterns := out[id]
			if patterns == nil {
				patterns = []Pattern{}
			}
			for _, g := range globs {
				patterns = append(patterns, CompileGlob(g))
			}
			out[id] = patterns
		}
		return out
	}

	set := Set{Universal: allow.Universal(), Deny: compile(deny)}
	if !set.Universal {
		set.Allow = compile(allow.entries)
	}
	names := make([]string, 0, len(unknown))
	for n := range unknown {
		names = append(names, n)
	}
	sort.Strings(names)
	return set, names
}

// Allowed decides a single model. Deny wins over allow.
func (s Set) Allowed(p provider.ID, id string) bool {
	for _, pat := range s.Deny[p] {
		if pat.Match(id) {
			return false
		}
	}
	if s.Universal {
		return true
	}
	patterns, ok := s.Allow[p]
	if !ok {
		return false
	}
	if len(patterns) == 0 {
		return true
	}
	for _, pat := range patterns {
		if pat.Match(id) {
			return true
		}
	}
	return false
}

// Allowed is Set.Allowed as a function.
func Allowed(set Set, p provider.ID, id string) bool {
	return set.Allowed(p, id)
}

// Apply keeps the models set allows, preserving order.
func Apply(models []catalog.Model, set Set) ([]catalog.Model, error) {
	out := make([]catalog.Model, 0, len(models))
	for _, m := range models {
		if set.Allowed(m.Provider, m.ID) {
			out = append(out, m)
		}
	}
	if len(models) > 0 && len(out) == 0 && !set.Universal {
		return nil, fmt.Errorf("%w: %d models in, none allowed", ErrEmptyCatalog, len(models))
	}
	return out, nil
}
