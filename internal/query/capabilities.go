package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fbettag/llmdb/internal/catalog"
)

// ErrUnknownCapability is returned for capability keys outside the fixed set.
var ErrUnknownCapability = errors.New("unknown capability key")

var capabilityKeys = map[string]func(catalog.Capabilities) bool{
	"chat":                 func(c catalog.Capabilities) bool { return c.Chat },
	"embeddings":           func(c catalog.Capabilities) bool { return c.Embeddings },
	"reasoning":            func(c catalog.Capabilities) bool { return c.Reasoning.Enabled },
	"tools":                func(c catalog.Capabilities) bool { return c.Tools.Enabled },
	"tools_streaming":      func(c catalog.Capabilities) bool { return c.Tools.Streaming },
	"tools_strict":         func(c catalog.Capabilities) bool { return c.Tools.Strict },
	"tools_parallel":       func(c catalog.Capabilities) bool { return c.Tools.Parallel },
	"json_native":          func(c catalog.Capabilities) bool { return c.JSON.Native },
	"json_schema":          func(c catalog.Capabilities) bool { return c.JSON.Schema },
	"json_strict":          func(c catalog.Capabilities) bool { return c.JSON.Strict },
	"streaming_text":       func(c catalog.Capabilities) bool { return c.Streaming.Text },
	"streaming_tool_calls": func(c catalog.Capabilities) bool { return c.Streaming.ToolCalls },
}

// CapabilityKeys lists the accepted capability keys in sorted order.
func CapabilityKeys() []string {
	keys := make([]string, 0, len(capabilityKeys))
	for k := range capabilityKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HasCapability reports whether m has the capability named key.
func HasCapability(m catalog.Model, key string) (bool, error) {
	get, ok := capabilityKeys[strings.TrimSpace(key)]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownCapability, key)
	}
	return get(m.Capabilities), nil
}

func checkKeys(keys []string) error {
	for _, k := range keys {
		if _, ok := capabilityKeys[strings.TrimSpace(k)]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownCapability, k)
		}
	}
	return nil
}
