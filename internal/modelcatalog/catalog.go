// Package modelcatalog builds catalog snapshots from layered sources and publishes them.
//
// A build loads every source, canonicalizes and validates the records, merges the layers in
// rank order, decodes the result into typed providers and models, applies the allow/deny
// filters and indexes what is left. The snapshot is published only when every stage succeeds.
package modelcatalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fbettag/llmdb/internal/catalog"
	"github.com/fbettag/llmdb/internal/filter"
	"github.com/fbettag/llmdb/internal/logger"
	"github.com/fbettag/llmdb/internal/merge"
	"github.com/fbettag/llmdb/internal/metrics"
	"github.com/fbettag/llmdb/internal/normalize"
	"github.com/fbettag/llmdb/internal/provider"
	"github.com/fbettag/llmdb/internal/snapshot"
	"github.com/fbettag/llmdb/internal/source"
	"github.com/fbettag/llmdb/internal/validate"
)

// SchemaConstraint is the range of source schema versions a build accepts.
const SchemaConstraint = "^1"

// ErrSchemaVersion marks a source whose declared schema version is outside SchemaConstraint.
var ErrSchemaVersion = errors.New("unsupported schema version")

// Options configures a build. Sources are listed lowest precedence first.
type Options struct {
	Sources   []source.Source
	Allow     filter.AllowSpec
	Deny      map[string][]string
	Prefer    []provider.ID
	Validator validate.Validator
	// Store receives the snapshot; nil means snapshot.Default.
	Store *snapshot.Store
}

// Report describes a finished build.
type Report struct {
	Snapshot *snapshot.Snapshot
	// Unknown lists filter keys that name no known provider.
	Unknown  []string
	Dropped  map[string]int
	Removed  []merge.AliasRemoval
	Filtered int
}

// Build runs the pipeline and publishes the result. On error the current snapshot is left
// untouched.
func Build(ctx context.Context, opts Options) (*Report, error) {
	store := opts.Store
	if store == nil {
		store = snapshot.Default
	}
	report := &Report{Dropped: map[string]int{}}
	snap, err := store.Update(func() (*snapshot.Snapshot, error) {
		return build(ctx, opts, report)
	})
	if err != nil {
		result := "error"
		if errors.Is(err, filter.ErrEmptyCatalog) {
			result = "empty"
		}
		metrics.BuildsTotal.WithLabelValues(result).Inc()
		return nil, err
	}
	report.Snapshot = snap
	metrics.BuildsTotal.WithLabelValues("ok").Inc()
	metrics.Models.Set(float64(len(snap.Models)))
	metrics.SnapshotEpoch.Set(float64(snap.Meta.Epoch))
	logger.With("catalog").Info("published snapshot",
		"epoch", snap.Meta.Epoch,
		"providers", len(snap.Providers),
		"models", len(snap.Models),
		"build", snap.Meta.BuildID,
	)
	return report, nil
}

func build(ctx context.Context, opts Options, report *Report) (*snapshot.Snapshot, error) {
	log := logger.With("catalog")

	layers, err := loadLayers(ctx, opts.Sources)
	if err != nil {
		return nil, err
	}

	v := opts.Validator
	if v == nil {
		v = validate.New()
	}
	for i, layer := range layers {
		var n int
		layer.Providers, n = v.Providers(layer.Providers)
		report.drop("provider", n)
		layer.Models, n = v.Models(layer.Models)
		report.drop("model", n)
		layers[i] = layer
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged := merge.Layers(layers)
	report.Removed = merged.Removed
	report.drop("alias", len(merged.Removed))
	for _, r := range merged.Removed {
		log.Debug("removed alias", "model", r.Key, "alias", r.Alias, "reason", r.Reason)
	}

	providers := make([]catalog.Provider, 0, len(merged.Providers))
	served := make(map[provider.ID]struct{}, len(merged.Providers))
	for _, rec := range merged.Providers {
		p, err := catalog.DecodeProvider(rec)
		if err != nil {
			log.Warn("dropping provider", "err", err)
			report.drop("provider", 1)
			continue
		}
		providers = append(providers, p)
		served[p.ID] = struct{}{}
	}

	models := make([]catalog.Model, 0, len(merged.Models))
	for _, rec := range merged.Models {
		m, err := catalog.DecodeModel(rec)
		if err != nil {
			log.Warn("dropping model", "err", err)
			report.drop("model", 1)
			continue
		}
		if _, ok := served[m.Provider]; !ok {
			log.Warn("dropping model without provider", "model", m.Key())
			report.drop("orphan", 1)
			continue
		}
		models = append(models, catalog.Enrich(m))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	set, unknown := filter.Compile(opts.Allow, opts.Deny, nil)
	report.Unknown = unknown
	if len(unknown) > 0 {
		log.Warn("filter names unknown providers", "providers", unknown)
	}
	kept, err := filter.Apply(models, set)
	if err != nil {
		return nil, err
	}
	report.Filtered = len(models) - len(kept)
	metrics.ModelsFiltered.Add(float64(report.Filtered))

	snap := snapshot.New(providers, kept, set, opts.Prefer)
	snap.Meta.BuildID = uuid.NewString()
	snap.Meta.Sources = sourceNames(opts.Sources)
	snap.Meta.Dropped = report.Dropped
	return snap, nil
}

// loadLayers loads sources concurrently and returns their layers in source order.
func loadLayers(ctx context.Context, sources []source.Source) ([]catalog.Layer, error) {
	constraint, err := semver.NewConstraint(SchemaConstraint)
	if err != nil {
		return nil, err
	}
	layers := make([]catalog.Layer, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			bundles, err := src.Load(gctx)
			if err != nil {
				return fmt.Errorf("loading %s: %w", src.Name(), err)
			}
			if err := checkSchema(src, bundles, constraint); err != nil {
				return err
			}
			layers[i] = normalize.Layer(src.Name(), bundles)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return layers, nil
}

// checkSchema gates the version a source declares up front and the versions stamped on the
// bundles it loaded.
func checkSchema(src source.Source, bundles []source.Bundle, constraint *semver.Constraints) error {
	if versioned, ok := src.(source.Versioned); ok {
		if err := checkVersion(src.Name(), versioned.SchemaVersion(), constraint); err != nil {
			return err
		}
	}
	for _, b := range bundles {
		if err := checkVersion(src.Name(), b.SchemaVersion, constraint); err != nil {
			return err
		}
	}
	return nil
}

func checkVersion(name, raw string, constraint *semver.Constraints) error {
	if raw == "" {
		return nil
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("%s: %w %q: %v", name, ErrSchemaVersion, raw, err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("%s: %w %s, want %s", name, ErrSchemaVersion, raw, SchemaConstraint)
	}
	return nil
}

func (r *Report) drop(kind string, n int) {
	if n == 0 {
		return
	}
	r.Dropped[kind] += n
	metrics.RecordsDropped.WithLabelValues(kind).Add(float64(n))
}

func sourceNames(sources []source.Source) []string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name()
	}
	return names
}
