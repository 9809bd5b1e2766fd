package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbettag/llmdb/internal/catalog"
	"github.com/fbettag/llmdb/internal/filter"
	"github.com/fbettag/llmdb/internal/provider"
	"github.com/fbettag/llmdb/internal/snapshot"
	"github.com/fbettag/llmdb/internal/spec"
)

func caps(mutate func(*catalog.Capabilities)) catalog.Capabilities {
	c := catalog.DefaultCapabilities()
	if mutate != nil {
		mutate(&c)
	}
	return c
}

func fixture(t *testing.T, prefer ...provider.ID) *Catalog {
	t.Helper()
	providers := []catalog.Provider{{ID: provider.OpenAI}, {ID: provider.Anthropic}, {ID: provider.Groq}, {ID: provider.Bedrock}}
	models := []catalog.Model{
		{Provider: provider.OpenAI, ID: "gpt-4o", Aliases: []string{"gpt-4o-2024-08-06"}, Capabilities: caps(func(c *catalog.Capabilities) {
			c.Tools.Enabled = true
			c.JSON.Native = true
		})},
		{Provider: provider.OpenAI, ID: "gpt-4", Deprecated: true, Capabilities: caps(func(c *catalog.Capabilities) { c.Tools.Enabled = true })},
		{Provider: provider.OpenAI, ID: "text-embedding-3-small", Capabilities: caps(func(c *catalog.Capabilities) {
			c.Chat = false
			c.Embeddings = true
		})},
		{Provider: provider.Anthropic, ID: "claude-sonnet-4", Capabilities: caps(func(c *catalog.Capabilities) {
			c.Tools.Enabled = true
			c.Reasoning.Enabled = true
		})},
		{Provider: provider.Groq, ID: "llama-3.3-70b", Capabilities: caps(func(c *catalog.Capabilities) { c.Tools.Enabled = true })},
		{Provider: provider.Bedrock, ID: "anthropic.claude-3-haiku-20240307-v1:0", Capabilities: caps(nil)},
	}
	set, _ := filter.Compile(filter.All(), map[string][]string{"openai": {"gpt-3*"}}, nil)
	store := &snapshot.Store{}
	store.Publish(snapshot.New(providers, models, set, prefer))
	return New(store)
}

func TestProvidersAndModels(t *testing.T) {
	c := fixture(t)
	ps := c.Providers()
	require.Len(t, ps, 4)
	assert.Equal(t, provider.Anthropic, ps[0].ID)

	p, ok := c.Provider(provider.Groq)
	require.True(t, ok)
	assert.Equal(t, provider.Groq, p.ID)
	_, ok = c.Provider(provider.Mistral)
	assert.False(t, ok)

	openai := c.Models(provider.OpenAI)
	require.Len(t, openai, 3)
	assert.Equal(t, "gpt-4", openai[0].ID)
	assert.Len(t, c.Models(""), 6)
}

func TestModelFollowsAliases(t *testing.T) {
	c := fixture(t)
	m, ok := c.Model(provider.OpenAI, "gpt-4o-2024-08-06")
	require.True(t, ok)
	assert.Equal(t, "gpt-4o", m.ID)
	_, ok = c.Model(provider.Anthropic, "gpt-4o")
	assert.False(t, ok)
}

func TestModelSpecAndAllowed(t *testing.T) {
	c := fixture(t)
	res, err := c.ModelSpec("gpt-4o-2024-08-06@openai")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", res.ID)

	assert.True(t, c.Allowed("openai:gpt-4o"))
	assert.False(t, c.Allowed("openai:gpt-3.5-turbo"))
	assert.True(t, c.Allowed("bedrock:us.anthropic.claude-3-haiku-20240307-v1:0"))
	assert.False(t, c.Allowed("not a spec"))
	assert.False(t, c.Allowed("mistral:mistral-large"), "provider absent from the catalog")
}

func TestCandidatesOrdering(t *testing.T) {
	c := fixture(t, provider.Groq)
	got, err := c.Candidates(SelectOptions{Require: []string{"tools"}, Prefer: []provider.ID{provider.Anthropic}})
	require.NoError(t, err)
	var keys []string
	for _, m := range got {
		keys = append(keys, m.Key().String())
	}
	assert.Equal(t, []string{"anthropic:claude-sonnet-4", "groq:llama-3.3-70b", "openai:gpt-4o"}, keys)
}

func TestCandidatesDeprecatedAndForbid(t *testing.T) {
	c := fixture(t)
	got, err := c.Candidates(SelectOptions{Scope: provider.OpenAI, Require: []string{"tools"}, IncludeDeprecated: true})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = c.Candidates(SelectOptions{Scope: provider.OpenAI, Forbid: []string{"chat"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "text-embedding-3-small", got[0].ID)
}

func TestSelect(t *testing.T) {
	c := fixture(t)
	m, err := c.Select(SelectOptions{Require: []string{"reasoning", "tools_streaming"}})
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4", m.ID)

	_, err = c.Select(SelectOptions{Require: []string{"json_strict"}})
	require.ErrorIs(t, err, spec.ErrNoMatch)

	_, err = c.Select(SelectOptions{Require: []string{"telepathy"}})
	require.ErrorIs(t, err, ErrUnknownCapability)
}

func TestAbsentSnapshot(t *testing.T) {
	c := New(&snapshot.Store{})
	assert.Empty(t, c.Providers())
	assert.Empty(t, c.Models(""))
	_, ok := c.Model(provider.OpenAI, "gpt-4")
	assert.False(t, ok)
	assert.False(t, c.Allowed("openai:gpt-4"))
	got, err := c.Candidates(SelectOptions{})
	require.NoError(t, err)
	assert.Empty(t, got)
	_, err = c.Select(SelectOptions{})
	assert.Equal(t, spec.KindNoMatch, spec.KindOf(err))
}

func TestCapabilityKeys(t *testing.T) {
	keys := CapabilityKeys()
	assert.Len(t, keys, 12)
	m := catalog.Model{Capabilities: catalog.DefaultCapabilities()}
	for _, k := range keys {
		_, err := HasCapability(m, k)
		require.NoError(t, err, k)
	}
	ok, _ := HasCapability(m, "streaming_text")
	assert.True(t, ok)
	ok, _ = HasCapability(m, "embeddings")
	assert.False(t, ok)
}
