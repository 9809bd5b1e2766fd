// Package source loads raw provider bundles from embedded data, files and directories.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/fbettag/llmdb/internal/catalog"
)

// Bundle is one provider record plus the model records it serves, with loose keys.
// SchemaVersion is the version declared by the document the bundle came from, empty when the
// document declared none.
type Bundle struct {
	Provider      catalog.Record
	Models        []catalog.Record
	SchemaVersion string
}

// Source yields bundles for one catalog layer.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]Bundle, error)
}

// Versioned is implemented by sources that declare one schema version for all their data up
// front. An empty version means the source did not declare one.
type Versioned interface {
	SchemaVersion() string
}

// ErrUnsupportedFormat is returned for files whose extension has no decoder.
var ErrUnsupportedFormat = errors.New("unsupported catalog file format")

// Supported reports whether name has an extension File can decode.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".toml", ".json":
		return true
	}
	return false
}

type document struct {
	version string
	bundles []Bundle
}

func decodeDocument(name string, data []byte) (document, error) {
	raw := map[string]any{}
	var err error
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	case ".json":
		err = json.Unmarshal(data, &raw)
	default:
		return document{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if err != nil {
		return document{}, fmt.Errorf("parsing %s: %w", name, err)
	}

	var doc document
	if v, ok := raw["schema_version"]; ok && v != nil {
		doc.version = fmt.Sprint(v)
	}
	if p, ok := raw["provider"]; ok {
		rec, ok := asRecord(p)
		if !ok {
			return document{}, fmt.Errorf("%s: provider must be a table", name)
		}
		models, err := recordList(raw["models"])
		if err != nil {
			return document{}, fmt.Errorf("%s: models: %w", name, err)
		}
		doc.bundles = append(doc.bundles, Bundle{Provider: rec, Models: models, SchemaVersion: doc.version})
	}
	if ps, ok := raw["providers"]; ok {
		list, err := recordList(ps)
		if err != nil {
			return document{}, fmt.Errorf("%s: providers: %w", name, err)
		}
		for _, rec := range list {
			models, err := recordList(rec["models"])
			if err != nil {
				return document{}, fmt.Errorf("%s: provider %v models: %w", name, rec["id"], err)
			}
			delete(rec, "models")
			doc.bundles = append(doc.bundles, Bundle{Provider: rec, Models: models, SchemaVersion: doc.version})
		}
	}
	return doc, nil
}

func asRecord(v any) (catalog.Record, bool) {
	switch t := v.(type) {
	case map[string]any:
		return catalog.Record(t), true
	case catalog.Record:
		return t, true
	}
	return nil, false
}

func recordList(v any) ([]catalog.Record, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		if maps, ok := v.([]map[string]any); ok {
			out := make([]catalog.Record, len(maps))
			for i, m := range maps {
				out[i] = catalog.Record(m)
			}
			return out, nil
		}
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	out := make([]catalog.Record, 0, len(items))
	for i, item := range items {
		rec, ok := asRecord(item)
		if !ok {
			return nil, fmt.Errorf("entry %d: expected a table, got %T", i, item)
		}
		out = append(out, rec)
	}
	return out, nil
}
