package provider

import (
	"sort"
	"strings"
)

// regionPrefixes lists the routing prefixes a provider accepts in front of a canonical model
// id, e.g. "us.anthropic.claude-3-haiku-20240307-v1:0" on Bedrock. Longest first.
var regionPrefixes = map[ID][]string{
	Bedrock: sortLongestFirst([]string{"us.", "eu.", "ap.", "apac.", "ca.", "us-gov.", "global."}),
}

func sortLongestFirst(prefixes []string) []string {
	out := append([]string(nil), prefixes...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

// RegionPrefixes returns the prefixes declared by id, or nil when the provider does not use
// region routing.
func RegionPrefixes(id ID) []string {
	return append([]string(nil), regionPrefixes[id]...)
}

// SplitRegionPrefix strips a prefix declared by id from modelID. Prefixes are only recognized
// for the provider that declares them.
func SplitRegionPrefix(id ID, modelID string) (prefix, rest string, ok bool) {
	for _, p := range regionPrefixes[id] {
		if strings.HasPrefix(modelID, p) && len(modelID) > len(p) {
			return p, modelID[len(p):], true
		}
	}
	return "", modelID, false
}
