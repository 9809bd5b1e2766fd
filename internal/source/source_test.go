package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestPackagedLoadsEmbeddedBundles(t *testing.T) {
	src := Packaged()
	bundles, err := src.Load(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, bundles)

	ids := map[any]int{}
	for _, b := range bundles {
		ids[b.Provider["id"]] = len(b.Models)
	}
	assert.Contains(t, ids, "openai")
	assert.Contains(t, ids, "bedrock")
	assert.Contains(t, ids, "google-vertex")
	for _, b := range bundles {
		assert.Equal(t, "1.0.0", b.SchemaVersion)
	}
}

func TestFileDecodesSingleProviderToml(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "local.toml", `
schema_version = "1.2.0"

[provider]
id = "ollama"
name = "Local Ollama"

[[models]]
id = "qwen2.5:7b"
aliases = ["qwen"]
`)
	src := File(path)
	bundles, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, bundles, 1)
	assert.Equal(t, "ollama", bundles[0].Provider["id"])
	require.Len(t, bundles[0].Models, 1)
	assert.Equal(t, "qwen2.5:7b", bundles[0].Models[0]["id"])
	assert.Equal(t, "1.2.0", bundles[0].SchemaVersion)
}

func TestFileDecodesProviderListJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "catalog.json", `{
  "providers": [
    {"id": "openai", "models": [{"id": "gpt-4"}]},
    {"id": "groq", "models": []}
  ]
}`)
	bundles, err := File(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, bundles, 2)
	assert.NotContains(t, bundles[0].Provider, "models")
	assert.Len(t, bundles[0].Models, 1)
	assert.Empty(t, bundles[1].Models)
}

func TestFileRejectsUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "catalog.ini", "id=openai")
	_, err := File(path).Load(context.Background())
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFileRejectsNonTableModels(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.yaml", "provider: {id: openai}\nmodels: [gpt-4]\n")
	_, err := File(path).Load(context.Background())
	require.Error(t, err)
}

func TestDirLoadsInLexicalOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", "provider: {id: openai}\n")
	writeFile(t, dir, "a.yaml", "provider: {id: anthropic}\n")
	writeFile(t, dir, "notes.txt", "ignored")

	bundles, err := Dir(dir).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, bundles, 2)
	assert.Equal(t, "anthropic", bundles[0].Provider["id"])
	assert.Equal(t, "openai", bundles[1].Provider["id"])
}

func TestDirMissingIsEmpty(t *testing.T) {
	bundles, err := Dir(filepath.Join(t.TempDir(), "absent")).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, bundles)
}

func TestDirRejectsMixedSchemaVersions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "schema_version: \"1.0.0\"\nprovider: {id: openai}\n")
	writeFile(t, dir, "b.yaml", "schema_version: \"2.0.0\"\nprovider: {id: groq}\n")
	_, err := Dir(dir).Load(context.Background())
	require.Error(t, err)
}

func TestStaticHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Static("test").Load(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSchemaVersionTravelsWithBundles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "catalog.yaml", "schema_version: \"1.0.0\"\nprovider: {id: openai}\n")
	src := File(path)

	first, err := src.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("provider: {id: openai}\n"), 0o644))
	second, err := src.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", first[0].SchemaVersion)
	assert.Empty(t, second[0].SchemaVersion)
	_, versioned := src.(Versioned)
	assert.False(t, versioned)
}
