package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
)

type fileSource struct {
	path string
}

// File loads one catalog document. The format follows the extension.
func File(path string) Source {
	return &fileSource{path: path}
}

func (s *fileSource) Name() string { return "file:" + s.path }

func (s *fileSource) Load(ctx context.Context) ([]Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	doc, err := decodeDocument(s.path, data)
	if err != nil {
		return nil, err
	}
	return doc.bundles, nil
}

// fsSource loads every supported file at the root of an fs.FS in lexical order.
type fsSource struct {
	name string
	fsys fs.FS
	dir  string
}

// Dir loads every supported file in path. A missing directory yields no bundles.
func Dir(path string) Source {
	return &fsSource{name: "dir:" + path, fsys: os.DirFS(path), dir: path}
}

// FS loads every supported file at the root of fsys.
func FS(name string, fsys fs.FS) Source {
	return &fsSource{name: name, fsys: fsys}
}

func (s *fsSource) Name() string { return s.name }

func (s *fsSource) Load(ctx context.Context) ([]Bundle, error) {
	if s.dir != "" {
		if _, err := os.Stat(s.dir); errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
	}
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.name, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var out []Bundle
	version := ""
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := fs.ReadFile(s.fsys, name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path.Join(s.name, name), err)
		}
		doc, err := decodeDocument(name, data)
		if err != nil {
			return nil, err
		}
		if doc.version != "" {
			if version != "" && version != doc.version {
				return nil, fmt.Errorf("%s: mixed schema versions %s and %s", s.name, version, doc.version)
			}
			version = doc.version
		}
		out = append(out, doc.bundles...)
	}
	return out, nil
}

// StaticSource serves fixed bundles, for tests and programmatic layers.
type StaticSource struct {
	Label   string
	Version string
	Bundles []Bundle
}

// Static returns a source serving bundles as given.
func Static(name string, bundles ...Bundle) *StaticSource {
	return &StaticSource{Label: name, Bundles: bundles}
}

func (s *StaticSource) Name() string { return s.Label }

func (s *StaticSource) SchemaVersion() string { return s.Version }

func (s *StaticSource) Load(ctx context.Context) ([]Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Bundles, nil
}
