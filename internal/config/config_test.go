package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Indexer.ChannelCapacity != 1000 {
		t.Errorf("default indexer.channel_capacity = %d, want 1000", cfg.Indexer.ChannelCapacity)
	}
	if cfg.Indexer.MaxReconnectAttempts != 10 {
		t.Errorf("default indexer.max_reconnect_attempts = %d, want 10", cfg.Indexer.MaxReconnectAttempts)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
log_level = "debug"

[server]
host = "127.0.0.1"
port = 9999

[helius]
api_key = "from-file"

[lyslabs]
api_key = "lys-key"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	t.Setenv("CORTEX_SERVER__PORT", "7777")
	t.Setenv("CORTEX_HELIUS__API_KEY", "from-env")
	t.Setenv("CORTEX_DATABASE__PASSWORD", "secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("server.host = %q, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("server.port = %d, want env override 7777", cfg.Server.Port)
	}
	if cfg.Helius.APIKey != "from-env" {
		t.Errorf("helius.api_key = %q, want env override", cfg.Helius.APIKey)
	}
	if cfg.Database.Password != "secret" {
		t.Errorf("database.password = %q, want secret", cfg.Database.Password)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", cfg.LogLevel)
	}
}

func TestDemoModeEnv(t *testing.T) {
	t.Setenv("CORTEX_DEMO_MODE", "1")
	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.DemoMode {
		t.Error("DemoMode not enabled by CORTEX_DEMO_MODE")
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Helius.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate on defaults with api key: %v", err)
	}

	bad := Defaults()
	bad.Server.Port = 0
	bad.Database.URL = ""
	bad.LogLevel = "verbose"
	err := bad.Validate()
	if err == nil {
		t.Fatal("Validate accepted invalid config")
	}
}
