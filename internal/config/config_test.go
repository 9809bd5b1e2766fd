package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.Sources.Packaged {
		t.Fatalf("expected packaged catalog enabled by default: %#v", cfg.Sources)
	}
	if len(cfg.Filter.Allow) != 0 || cfg.Filter.Deny == nil {
		t.Fatalf("expected empty filters, got %#v", cfg.Filter)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("expected info log level, got %q", cfg.Log.Level)
	}
}

func TestLoadParsesFilters(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")
	err := os.WriteFile(path, []byte(`prefer = ["anthropic", " "]

[sources]
packaged = false
files = ["extra.yaml"]

[filter.allow]
openai = ["gpt-4*"]
anthropic = []

[filter.deny]
openai = ["gpt-4-32k"]

[log]
level = "DEBUG"
`), 0o644)
	if err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Sources.Packaged {
		t.Fatal("expected packaged catalog disabled via config")
	}
	if got := cfg.Filter.Allow["openai"]; !reflect.DeepEqual(got, []string{"gpt-4*"}) {
		t.Fatalf("unexpected allow list %#v", got)
	}
	if got, ok := cfg.Filter.Allow["anthropic"]; !ok || len(got) != 0 {
		t.Fatalf("expected empty anthropic entry, got %#v (present %v)", got, ok)
	}
	if !reflect.DeepEqual(cfg.Prefer, []string{"anthropic"}) {
		t.Fatalf("unexpected prefer %#v", cfg.Prefer)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected lowercased level, got %q", cfg.Log.Level)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")
	if err := os.WriteFile(path, []byte("[log]\nlevel = \"warn\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LLMDB_LOG_LEVEL", "error")
	t.Setenv("LLMDB_PREFER", "groq,openai")
	t.Setenv("LLMDB_NO_PACKAGED", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Fatalf("expected env log level, got %q", cfg.Log.Level)
	}
	if !reflect.DeepEqual(cfg.Prefer, []string{"groq", "openai"}) {
		t.Fatalf("unexpected prefer %#v", cfg.Prefer)
	}
	if cfg.Sources.Packaged {
		t.Fatal("LLMDB_NO_PACKAGED should disable the packaged catalog")
	}
}

func TestHomeHonorsEnv(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	t.Setenv("LLMDB_HOME", dir)
	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath: %v", err)
	}
	if path != filepath.Join(dir, DefaultFileName) {
		t.Fatalf("unexpected path %s", path)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("home dir not created: %v", err)
	}
	providers, err := ProvidersDir()
	if err != nil || providers != filepath.Join(dir, ProvidersDirName) {
		t.Fatalf("unexpected providers dir %s (%v)", providers, err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := Default()
	cfg.Filter.Deny["openai"] = []string{"*-preview"}
	cfg.Prefer = []string{"openai"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got.Filter.Deny, cfg.Filter.Deny) || !reflect.DeepEqual(got.Prefer, cfg.Prefer) {
		t.Fatalf("round trip mismatch: %#v", got)
	}
}

func TestSaveExampleWritesTemplate(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")
	if err := SaveExample(path); err != nil {
		t.Fatalf("SaveExample: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("example config does not parse: %v", err)
	}
	if !cfg.Sources.Packaged {
		t.Fatal("example should keep the packaged catalog")
	}
	if err := SaveExample(path); err == nil {
		t.Fatal("expected SaveExample to refuse overwriting")
	}
}

func TestHomeReadsParsedEnv(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "parsed")
	t.Setenv("LLMDB_HOME", "  "+dir+"  ")
	e, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	home, err := Home()
	if err != nil {
		t.Fatalf("Home: %v", err)
	}
	if home != dir || e.Home != "  "+dir+"  " {
		t.Fatalf("expected %s, got home %q env %q", dir, home, e.Home)
	}

	t.Setenv("LLMDB_NO_PACKAGED", "maybe")
	if _, err := Home(); err == nil {
		t.Fatal("expected malformed environment to fail")
	}
}
