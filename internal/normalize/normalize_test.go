package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbettag/llmdb/internal/catalog"
	"github.com/fbettag/llmdb/internal/provider"
	"github.com/fbettag/llmdb/internal/source"
)

func TestKey(t *testing.T) {
	cases := map[string]string{
		"baseURL":       "base_url",
		"contextWindow": "context_window",
		"ToolCalls":     "tool_calls",
		"JSON":          "json",
		" cache-read ":  "cache_read",
		"config schema": "config_schema",
		"already_snake": "already_snake",
		"gpt4Mode":      "gpt4_mode",
	}
	for in, want := range cases {
		assert.Equal(t, want, Key(in), in)
	}
}

type stringer string

func (s stringer) String() string { return string(s) }

func TestProviderIDAcceptsStringers(t *testing.T) {
	for _, v := range []any{"google-vertex", provider.GoogleVertex, stringer("Google-Vertex")} {
		id, ok := ProviderID(v)
		require.True(t, ok)
		assert.Equal(t, "google_vertex", id)
	}
	_, ok := ProviderID(42)
	assert.False(t, ok)
}

func TestLayerCanonicalizesBundles(t *testing.T) {
	bundles := []source.Bundle{{
		Provider: catalog.Record{"id": "fireworks-ai", "baseURL": "https://api.fireworks.ai"},
		Models: []catalog.Record{
			{
				"id":           " llama-v3p1-8b ",
				"aliases":      "llama-8b",
				"Capabilities": map[string]any{"toolCalls": map[string]any{"isStrict": true}},
			},
			{"id": "other", "provider": "openai", "aliases": []string{"x", " "}},
		},
	}}

	layer := Layer("test", bundles)
	assert.Equal(t, "test", layer.Name)
	require.Len(t, layer.Providers, 1)
	assert.Equal(t, "fireworks_ai", layer.Providers[0]["id"])
	assert.Equal(t, "https://api.fireworks.ai", layer.Providers[0]["base_url"])

	require.Len(t, layer.Models, 2)
	m := layer.Models[0]
	assert.Equal(t, "fireworks_ai", m["provider"])
	assert.Equal(t, "llama-v3p1-8b", m["id"])
	assert.Equal(t, []any{"llama-8b"}, m["aliases"])
	caps := m["capabilities"].(map[string]any)
	assert.Equal(t, true, caps["tool_calls"].(map[string]any)["is_strict"])

	assert.Equal(t, "openai", layer.Models[1]["provider"])
	assert.Equal(t, []any{"x"}, layer.Models[1]["aliases"])

	// input untouched
	assert.Contains(t, bundles[0].Provider, "baseURL")
}

func TestLayerOfNothingIsEmpty(t *testing.T) {
	assert.True(t, Layer("empty", nil).Empty())
}
