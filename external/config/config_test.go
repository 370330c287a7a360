package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Server.BindAddr != ":8080" {
		t.Errorf("Server.BindAddr = %q, want :8080", cfg.Server.BindAddr)
	}
	if cfg.Cache.MaxSize != 10000 {
		t.Errorf("Cache.MaxSize = %d, want 10000", cfg.Cache.MaxSize)
	}
	if cfg.BM25.K1 != 1.2 || cfg.BM25.B != 0.75 {
		t.Errorf("BM25 = %+v, want defaults k1=1.2 b=0.75", cfg.BM25)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "server:\n  bind_addr: \":9090\"\ncache:\n  max_size: 500\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.BindAddr != ":9090" {
		t.Errorf("Server.BindAddr = %q, want :9090", cfg.Server.BindAddr)
	}
	if cfg.Cache.MaxSize != 500 {
		t.Errorf("Cache.MaxSize = %d, want 500", cfg.Cache.MaxSize)
	}
}

func TestLoad_MissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() with a nonexistent path returned no error")
	}
}

func TestValidate_EmptyBindAddr(t *testing.T) {
	cfg := defaults()
	cfg.Server.BindAddr = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with an empty bind_addr returned no error")
	}
}

func TestValidate_CacheEnabledNeedsPositiveSize(t *testing.T) {
	cfg := defaults()
	cfg.Cache.Enabled = true
	cfg.Cache.MaxSize = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with cache.enabled and max_size=0 returned no error")
	}
}

func TestValidate_SearchLimitsMustBeOrdered(t *testing.T) {
	cfg := defaults()
	cfg.Search.DefaultLimit = 2000
	cfg.Search.MaxLimit = 100
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with default_limit > max_limit returned no error")
	}
}

func TestValidate_BM25ParamsOutOfRange(t *testing.T) {
	cfg := defaults()
	cfg.BM25.B = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with bm25.b > 1 returned no error")
	}

	cfg = defaults()
	cfg.BM25.K1 = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with bm25.k1 < 0 returned no error")
	}
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	cfg := defaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on package defaults = %v, want nil", err)
	}
}
