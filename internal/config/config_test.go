package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Run("DefaultsWhenMissing", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		if err != nil {
			t.Fatalf("loading missing config: %v", err)
		}
		if cfg.Server.Addr != ":8765" {
			t.Errorf("addr = %q", cfg.Server.Addr)
		}
		if cfg.Database.Path != "data/ultra_memo.db" {
			t.Errorf("db path = %q", cfg.Database.Path)
		}
		if cfg.Search.DefaultLimit != 20 {
			t.Errorf("search limit = %d", cfg.Search.DefaultLimit)
		}
	})

	t.Run("EmptyPathUsesDefaults", func(t *testing.T) {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("loading empty path: %v", err)
		}
		if cfg.Server.Addr != ":8765" {
			t.Errorf("addr = %q", cfg.Server.Addr)
		}
	})

	t.Run("FileOverridesDefaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		data := `[server]
addr = ":9999"

[database]
path = "/tmp/elsewhere.db"
`
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatalf("writing config: %v", err)
		}
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("loading config: %v", err)
		}
		if cfg.Server.Addr != ":9999" {
			t.Errorf("addr = %q", cfg.Server.Addr)
		}
		if cfg.Database.Path != "/tmp/elsewhere.db" {
			t.Errorf("db path = %q", cfg.Database.Path)
		}
		// Unset sections keep their defaults.
		if cfg.Search.DefaultLimit != 20 {
			t.Errorf("search limit = %d", cfg.Search.DefaultLimit)
		}
	})

	t.Run("MalformedFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("this is not toml = ["), 0o644); err != nil {
			t.Fatalf("writing config: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Error("expected a parse error")
		}
	})
}
