package modelcatalog

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbettag/llmdb/internal/catalog"
	"github.com/fbettag/llmdb/internal/config"
	"github.com/fbettag/llmdb/internal/filter"
	"github.com/fbettag/llmdb/internal/metrics"
	"github.com/fbettag/llmdb/internal/provider"
	"github.com/fbettag/llmdb/internal/snapshot"
	"github.com/fbettag/llmdb/internal/source"
)

func baseLayer() *source.StaticSource {
	return source.Static("base",
		source.Bundle{
			Provider: catalog.Record{"id": "openai", "name": "OpenAI"},
			Models: []catalog.Record{
				{"id": "gpt-4", "aliases": []any{"gpt-4-0613"}, "limits": map[string]any{"context": 8192}},
				{"id": "gpt-4o", "aliases": []any{"gpt-4"}},
			},
		},
		source.Bundle{
			Provider: catalog.Record{"id": "anthropic"},
			Models: []catalog.Record{
				{"id": "claude-3-5-sonnet-20241022", "aliases": []any{"claude-3-5-sonnet-latest"}},
			},
		},
	)
}

func overrideLayer() *source.StaticSource {
	return source.Static("override", source.Bundle{
		Models: []catalog.Record{
			{"id": "gpt-4", "provider": "openai", "aliases": []any{"gpt4"}, "deprecated": true},
			{"id": "llama-3.1-8b", "provider": "groq"},
		},
	})
}

func TestBuildMergesLayersAndPublishes(t *testing.T) {
	store := &snapshot.Store{}
	report, err := Build(context.Background(), Options{
		Sources: []source.Source{baseLayer(), overrideLayer()},
		Prefer:  []provider.ID{provider.Anthropic},
		Store:   store,
	})
	require.NoError(t, err)

	snap, ok := store.Current()
	require.True(t, ok)
	assert.Same(t, snap, report.Snapshot)
	assert.Equal(t, uint64(1), snap.Meta.Epoch)
	assert.NotEmpty(t, snap.Meta.BuildID)
	assert.Equal(t, []string{"base", "override"}, snap.Meta.Sources)
	assert.Equal(t, []provider.ID{provider.Anthropic}, snap.Prefer)
	assert.Len(t, snap.Providers, 2)
	assert.Len(t, snap.Models, 3)

	gpt4, ok := snap.Indexes.Lookup(provider.OpenAI, "gpt4")
	require.True(t, ok)
	assert.Equal(t, "gpt-4", gpt4.ID)
	assert.True(t, gpt4.Deprecated)
	assert.Equal(t, 8192, gpt4.Limits.Context)
	assert.ElementsMatch(t, []string{"gpt4", "gpt-4-0613"}, gpt4.Aliases)
	assert.True(t, gpt4.Capabilities.Chat)

	claude, ok := snap.Indexes.Lookup(provider.Anthropic, "claude-3-5-sonnet-latest")
	require.True(t, ok)
	assert.Equal(t, "claude-3-5", claude.Family)
	assert.Equal(t, claude.ID, claude.Name)

	assert.Equal(t, 1, report.Dropped["orphan"])
	assert.Equal(t, 1, report.Dropped["alias"])
	require.Len(t, report.Removed, 1)
	assert.Equal(t, "gpt-4", report.Removed[0].Alias)
	assert.Zero(t, report.Filtered)
}

func TestBuildAppliesFilters(t *testing.T) {
	store := &snapshot.Store{}
	report, err := Build(context.Background(), Options{
		Sources: []source.Source{baseLayer()},
		Allow:   filter.Only(map[string][]string{"openai": {"gpt-4*"}, "acme": {"*"}}),
		Deny:    map[string][]string{"openai": {"gpt-4o"}},
		Store:   store,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"acme"}, report.Unknown)
	assert.Equal(t, 2, report.Filtered)

	snap, _ := store.Current()
	require.Len(t, snap.Models, 1)
	assert.Equal(t, "gpt-4", snap.Models[0].ID)
	assert.Len(t, snap.Providers, 2)
}

func TestBuildKeepsPreviousSnapshotWhenFiltersEmptyCatalog(t *testing.T) {
	store := &snapshot.Store{}
	first, err := Build(context.Background(), Options{Sources: []source.Source{baseLayer()}, Store: store})
	require.NoError(t, err)

	before := testutil.ToFloat64(metrics.BuildsTotal.WithLabelValues("empty"))
	_, err = Build(context.Background(), Options{
		Sources: []source.Source{baseLayer()},
		Allow:   filter.Only(map[string][]string{"mistral": {"*"}}),
		Store:   store,
	})
	require.ErrorIs(t, err, filter.ErrEmptyCatalog)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.BuildsTotal.WithLabelValues("empty")))

	snap, ok := store.Current()
	require.True(t, ok)
	assert.Same(t, first.Snapshot, snap)
	assert.Equal(t, uint64(1), store.Epoch())
}

func TestBuildChecksSchemaVersion(t *testing.T) {
	cases := map[string]bool{
		"":       true,
		"1.0.0":  true,
		"1.4.2":  true,
		"2.0.0":  false,
		"0.9.0":  false,
		"banana": false,
	}
	for version, ok := range cases {
		src := baseLayer()
		src.Version = version
		_, err := Build(context.Background(), Options{Sources: []source.Source{src}, Store: &snapshot.Store{}})
		if ok {
			assert.NoError(t, err, version)
		} else {
			assert.ErrorIs(t, err, ErrSchemaVersion, version)
		}
	}
}

func TestBuildChecksDocumentSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schema_version: \"2.0.0\"\nprovider: {id: openai}\nmodels: [{id: gpt-4}]\n"), 0o644))
	src := source.File(path)

	_, err := Build(context.Background(), Options{Sources: []source.Source{src}, Store: &snapshot.Store{}})
	require.ErrorIs(t, err, ErrSchemaVersion)

	require.NoError(t, os.WriteFile(path, []byte("schema_version: \"1.1.0\"\nprovider: {id: openai}\nmodels: [{id: gpt-4}]\n"), 0o644))
	_, err = Build(context.Background(), Options{Sources: []source.Source{src}, Store: &snapshot.Store{}})
	require.NoError(t, err)
}

func TestConcurrentBuildsShareSources(t *testing.T) {
	shared := []source.Source{source.Packaged(), baseLayer()}
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = Build(context.Background(), Options{Sources: shared, Store: &snapshot.Store{}})
		}()
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestBuildHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := &snapshot.Store{}
	_, err := Build(ctx, Options{Sources: []source.Source{baseLayer()}, Store: store})
	require.ErrorIs(t, err, context.Canceled)
	_, ok := store.Current()
	assert.False(t, ok)
}

func TestBuildPackagedCatalog(t *testing.T) {
	store := &snapshot.Store{}
	report, err := Build(context.Background(), Options{Sources: []source.Source{source.Packaged()}, Store: store})
	require.NoError(t, err)
	assert.Empty(t, report.Dropped)

	m, ok := report.Snapshot.Indexes.Lookup(provider.OpenAI, "gpt-4-0613")
	require.True(t, ok)
	assert.Equal(t, "gpt-4", m.ID)
	_, ok = report.Snapshot.Indexes.ProvidersByID[provider.Bedrock]
	assert.True(t, ok)
}

func TestOptionsFromConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("LLMDB_HOME", home)

	cfg := config.Default()
	cfg.Sources.Dirs = []string{"/srv/catalog"}
	cfg.Sources.Files = []string{"/srv/extra.yaml"}
	cfg.Prefer = []string{"Google-Vertex", "openai"}
	cfg.Filter.Allow = map[string][]string{"openai": {"gpt-*"}}

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	names := make([]string, len(opts.Sources))
	for i, s := range opts.Sources {
		names[i] = s.Name()
	}
	assert.Equal(t, []string{
		source.PackagedName,
		"dir:/srv/catalog",
		"file:/srv/extra.yaml",
		"dir:" + filepath.Join(home, config.ProvidersDirName),
	}, names)
	assert.Equal(t, []provider.ID{provider.GoogleVertex, provider.OpenAI}, opts.Prefer)
	assert.False(t, opts.Allow.Universal())

	cfg.Sources.Packaged = false
	opts, err = OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Len(t, opts.Sources, 3)
}
