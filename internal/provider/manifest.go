package provider

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Manifest is a local provider bundle: provider metadata plus model entries. Files written by
// InitManifest are picked up as a catalog layer when their directory is configured as a source.
type Manifest struct {
	SchemaVersion string          `toml:"schema_version"`
	Provider      ManifestInfo    `toml:"provider"`
	Models        []ManifestModel `toml:"models"`
}

// ManifestInfo carries the provider record.
type ManifestInfo struct {
	ID      string   `toml:"id"`
	Name    string   `toml:"name,omitempty"`
	BaseURL string   `toml:"base_url,omitempty"`
	Env     []string `toml:"env,omitempty"`
	Doc     string   `toml:"doc,omitempty"`
}

// ManifestModel is a minimal model record; any other catalog field may be added by hand.
type ManifestModel struct {
	ID      string   `toml:"id"`
	Name    string   `toml:"name,omitempty"`
	Aliases []string `toml:"aliases,omitempty"`
}

// ErrManifestExists is returned when InitManifest would overwrite an existing file.
var ErrManifestExists = errors.New("provider manifest already exists")

// InitManifest writes m to <dir>/<id>.toml. The provider id must belong to the known set.
func InitManifest(dir string, m Manifest) (string, error) {
	id, err := Parse(m.Provider.ID)
	if err != nil {
		return "", err
	}
	m.Provider.ID = id.String()
	if m.SchemaVersion == "" {
		m.SchemaVersion = "1.0.0"
	}
	if dir == "" {
		return "", fmt.Errorf("manifest directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensuring provider dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.toml", id))
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%w: %s", ErrManifestExists, path)
	}
	data, err := toml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	return path, nil
}
