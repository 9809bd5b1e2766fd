package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/fbettag/llmdb/internal/provider"
)

// Provider describes an upstream API that serves models.
type Provider struct {
	ID   provider.ID `json:"id" jsonschema:"required"`
	Name string      `json:"name,omitempty"`
	// BaseURL may contain {variable} placeholders that callers fill in.
	BaseURL      string         `json:"base_url,omitempty"`
	Env          []string       `json:"env,omitempty"`
	ConfigSchema []ConfigField  `json:"config_schema,omitempty"`
	Doc          string         `json:"doc,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// ConfigField declares one runtime option a provider accepts.
type ConfigField struct {
	Name     string `json:"name" jsonschema:"required"`
	Type     string `json:"type,omitempty"`
	Required bool   `json:"required,omitempty"`
	Default  any    `json:"default,omitempty"`
	Doc      string `json:"doc,omitempty"`
}

// Model describes one model served by a provider.
type Model struct {
	ID           string         `json:"id" jsonschema:"required"`
	Provider     provider.ID    `json:"provider" jsonschema:"required"`
	Name         string         `json:"name,omitempty"`
	Family       string         `json:"family,omitempty"`
	Aliases      []string       `json:"aliases,omitempty"`
	Modalities   Modalities     `json:"modalities"`
	Capabilities Capabilities   `json:"capabilities"`
	Limits       Limits         `json:"limits"`
	Cost         *Cost          `json:"cost,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	Deprecated   bool           `json:"deprecated,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// Key returns the model's catalog key.
func (m Model) Key() Key {
	return Key{Provider: m.Provider, ID: m.ID}
}

// Modalities lists accepted input and produced output kinds ("text", "image", ...).
type Modalities struct {
	Input  []string `json:"input,omitempty"`
	Output []string `json:"output,omitempty"`
}

type Capabilities struct {
	Chat       bool          `json:"chat"`
	Embeddings bool          `json:"embeddings"`
	Reasoning  ReasoningCaps `json:"reasoning"`
	Tools      ToolCaps      `json:"tools"`
	JSON       JSONCaps      `json:"json"`
	Streaming  StreamingCaps `json:"streaming"`
}

type ReasoningCaps struct {
	Enabled     bool   `json:"enabled"`
	Effort      string `json:"effort,omitempty"`
	TokenBudget int    `json:"token_budget,omitempty"`
}

type ToolCaps struct {
	Enabled   bool `json:"enabled"`
	Streaming bool `json:"streaming"`
	Strict    bool `json:"strict"`
	Parallel  bool `json:"parallel"`
}

type JSONCaps struct {
	Native bool `json:"native"`
	Schema bool `json:"schema"`
	Strict bool `json:"strict"`
}

type StreamingCaps struct {
	Text      bool `json:"text"`
	ToolCalls bool `json:"tool_calls"`
}

// DefaultCapabilities is applied before a record's own capabilities are decoded over it.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		Chat:      true,
		Tools:     ToolCaps{Streaming: true},
		Streaming: StreamingCaps{Text: true},
	}
}

// Limits are token limits; zero means unknown.
type Limits struct {
	Context int `json:"context,omitempty"`
	Output  int `json:"output,omitempty"`
}

// Cost is USD per million tokens.
type Cost struct {
	Input      decimal.Decimal  `json:"input" jsonschema:"type=number"`
	Output     decimal.Decimal  `json:"output" jsonschema:"type=number"`
	CacheRead  *decimal.Decimal `json:"cache_read,omitempty" jsonschema:"type=number"`
	CacheWrite *decimal.Decimal `json:"cache_write,omitempty" jsonschema:"type=number"`
}
