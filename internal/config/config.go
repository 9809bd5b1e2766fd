package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/pelletier/go-toml/v2"
)

const (
	// DefaultFileName is the expected file name under the config directory.
	DefaultFileName = "config.toml"
	// ProvidersDirName holds provider manifests written by `llmdb provider init`.
	ProvidersDirName = "providers"
)

// Config captures persisted catalog settings.
type Config struct {
	Sources SourcesConfig `toml:"sources"`
	Filter  FilterConfig  `toml:"filter"`
	// Prefer orders providers when selection finds several candidates.
	Prefer []string  `toml:"prefer"`
	Log    LogConfig `toml:"log"`
}

// SourcesConfig lists catalog layers. The packaged catalog ranks lowest, then dirs, then files,
// each in the order given; provider manifests rank above all of them.
type SourcesConfig struct {
	Packaged bool     `toml:"packaged"`
	Dirs     []string `toml:"dirs"`
	Files    []string `toml:"files"`
}

// FilterConfig holds allow/deny globs keyed by provider. An empty allow map admits everything.
type FilterConfig struct {
	Allow map[string][]string `toml:"allow"`
	Deny  map[string][]string `toml:"deny"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Env carries environment overrides. Non-empty values win over the file.
type Env struct {
	Home       string   `env:"LLMDB_HOME"`
	LogLevel   string   `env:"LLMDB_LOG_LEVEL"`
	LogFile    string   `env:"LLMDB_LOG_FILE"`
	Prefer     []string `env:"LLMDB_PREFER" envSeparator:","`
	NoPackaged bool     `env:"LLMDB_NO_PACKAGED"`
}

// Default returns config populated with safe defaults.
func Default() Config {
	return Config{
		Sources: SourcesConfig{Packaged: true},
		Filter: FilterConfig{
			Allow: map[string][]string{},
			Deny:  map[string][]string{},
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadEnv reads the LLMDB_* variables.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parsing environment: %w", err)
	}
	return e, nil
}

// Home resolves the llmdb state directory: $LLMDB_HOME or ~/.llmdb, created if necessary.
func Home() (string, error) {
	e, err := LoadEnv()
	if err != nil {
		return "", err
	}
	dir := strings.TrimSpace(e.Home)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home dir: %w", err)
		}
		dir = filepath.Join(home, ".llmdb")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensuring llmdb dir: %w", err)
	}
	return dir, nil
}

// DefaultPath resolves <home>/config.toml.
func DefaultPath() (string, error) {
	dir, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultFileName), nil
}

// ProvidersDir resolves <home>/providers without creating it.
func ProvidersDir() (string, error) {
	dir, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ProvidersDirName), nil
}

// Load reads config from path, then applies environment overrides. A missing file yields
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	case len(raw) > 0:
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}
	e, err := LoadEnv()
	if err != nil {
		return cfg, err
	}
	return normalize(cfg.WithEnv(e)), nil
}

// WithEnv applies non-empty environment overrides.
func (c Config) WithEnv(e Env) Config {
	if e.LogLevel != "" {
		c.Log.Level = e.LogLevel
	}
	if e.LogFile != "" {
		c.Log.File = e.LogFile
	}
	if len(e.Prefer) > 0 {
		c.Prefer = e.Prefer
	}
	if e.NoPackaged {
		c.Sources.Packaged = false
	}
	return c
}

// Save writes the provided config to path (defaulting to <home>/config.toml when empty).
func Save(path string, cfg Config) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}
	data, err := toml.Marshal(normalize(cfg))
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func normalize(cfg Config) Config {
	if cfg.Filter.Allow == nil {
		cfg.Filter.Allow = map[string][]string{}
	}
	if cfg.Filter.Deny == nil {
		cfg.Filter.Deny = map[string][]string{}
	}
	prefer := cfg.Prefer[:0:0]
	for _, p := range cfg.Prefer {
		if p = strings.TrimSpace(p); p != "" {
			prefer = append(prefer, p)
		}
	}
	cfg.Prefer = prefer
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	return cfg
}

// SaveExample writes a commented example config. Existing files are left alone.
func SaveExample(path string) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists: %s", path)
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0o644); err != nil {
		return fmt.Errorf("writing example config: %w", err)
	}
	return nil
}

const exampleConfig = `# llmdb configuration

# Catalog layers, lowest precedence first. The packaged catalog ships with the
# binary; directories load every .yaml/.yml/.toml/.json file in lexical order.
# Manifests under ~/.llmdb/providers always load last.
[sources]
packaged = true
# dirs = ["/etc/llmdb/catalog.d"]
# files = ["./overrides.yaml"]

# Keep only some models. Once any provider is listed, unlisted providers keep
# nothing; an empty list keeps every model of that provider.
[filter.allow]
# openai = ["gpt-4*", "o3-*"]
# anthropic = []

# Deny always wins over allow.
[filter.deny]
# openai = ["*-preview"]

# prefer = ["anthropic", "openai"]

[log]
level = "info"
# file = "/tmp/llmdb.log"
`
