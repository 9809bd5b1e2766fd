package provider

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ID identifies a provider. Valid values come from the closed set returned by Known.
type ID string

const (
	OpenAI       ID = "openai"
	Anthropic    ID = "anthropic"
	Google       ID = "google"
	GoogleVertex ID = "google_vertex"
	Bedrock      ID = "bedrock"
	Azure        ID = "azure"
	Mistral      ID = "mistral"
	Groq         ID = "groq"
	XAI          ID = "xai"
	DeepSeek     ID = "deepseek"
	OpenRouter   ID = "openrouter"
	Cohere       ID = "cohere"
	TogetherAI   ID = "togetherai"
	FireworksAI  ID = "fireworks_ai"
	Cerebras     ID = "cerebras"
	Ollama       ID = "ollama"
	Perplexity   ID = "perplexity"
	Alibaba      ID = "alibaba"
	ZAI          ID = "zai"
	VLLM         ID = "vllm"
)

// MaxIDLength bounds provider identifiers accepted from callers.
const MaxIDLength = 64

// Joiner is the canonical word separator inside provider identifiers.
const Joiner = "_"

var (
	// ErrMalformed reports a provider identifier that is empty, oversized or uses characters
	// outside [a-z0-9_].
	ErrMalformed = errors.New("malformed provider id")
	// ErrUnknown reports a well-formed identifier that is not a known provider.
	ErrUnknown = errors.New("unknown provider")
)

var known = []ID{
	OpenAI, Anthropic, Google, GoogleVertex, Bedrock, Azure, Mistral, Groq, XAI, DeepSeek,
	OpenRouter, Cohere, TogetherAI, FireworksAI, Cerebras, Ollama, Perplexity, Alibaba, ZAI, VLLM,
}

var knownSet = func() map[ID]struct{} {
	set := make(map[ID]struct{}, len(known))
	for _, id := range known {
		set[id] = struct{}{}
	}
	return set
}()

// Known returns every provider identifier in sorted order.
func Known() []ID {
	out := append([]ID(nil), known...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsKnown reports whether id belongs to the closed provider set.
func IsKnown(id ID) bool {
	_, ok := knownSet[id]
	return ok
}

func (id ID) String() string {
	return string(id)
}

// Normalize trims s and maps hyphens to the canonical joiner. It does not validate.
func Normalize(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "-", Joiner)
}

// Check normalizes s and verifies its syntax without consulting the known set.
func Check(s string) (ID, error) {
	n := Normalize(s)
	if n == "" {
		return "", fmt.Errorf("%w: empty", ErrMalformed)
	}
	if len(n) > MaxIDLength {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrMalformed, len(n), MaxIDLength)
	}
	for i := 0; i < len(n); i++ {
		c := n[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
		default:
			return "", fmt.Errorf("%w: invalid character %q in %q", ErrMalformed, c, s)
		}
	}
	return ID(n), nil
}

// Parse checks s and rejects identifiers outside the known set.
func Parse(s string) (ID, error) {
	id, err := Check(s)
	if err != nil {
		return "", err
	}
	if !IsKnown(id) {
		return "", fmt.Errorf("%w: %s", ErrUnknown, id)
	}
	return id, nil
}
