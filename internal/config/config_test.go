package config

import (
	"log/slog"
	"strings"
	"testing"
)

func TestLoadParsesAllSections(t *testing.T) {
	data := []byte(`
# comment line
[chain]
provider = "http://localhost:8545"
genesis_time = 1606824023
request_timeout_seconds = 5

[http]
addr = "0.0.0.0:9090"

[log]
level = "debug"
format = "text"
file = "/var/log/auctiond.log"
max_size_mb = 50
max_backups = 2
`)
	cfg, err := Load(data)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Chain.Provider != "http://localhost:8545" {
		t.Errorf("Chain.Provider = %q", cfg.Chain.Provider)
	}
	if cfg.Chain.GenesisTime != 1606824023 {
		t.Errorf("Chain.GenesisTime = %d", cfg.Chain.GenesisTime)
	}
	if cfg.Chain.RequestTimeoutSeconds != 5 {
		t.Errorf("Chain.RequestTimeoutSeconds = %d", cfg.Chain.RequestTimeoutSeconds)
	}
	if cfg.HTTP.Addr != "0.0.0.0:9090" {
		t.Errorf("HTTP.Addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Log.File != "/var/log/auctiond.log" {
		t.Errorf("Log.File = %q", cfg.Log.File)
	}
	if cfg.Log.MaxSizeMB != 50 || cfg.Log.MaxBackups != 2 {
		t.Errorf("Log rotation = %+v", cfg.Log)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestLoadRejectsUnknownSection(t *testing.T) {
	_, err := Load([]byte("[bogus]\nfoo = \"bar\"\n"))
	if err == nil {
		t.Error("Load() with unknown section should fail")
	}
}

func TestLoadRejectsUnclosedSectionHeader(t *testing.T) {
	_, err := Load([]byte("[chain\nprovider = \"x\"\n"))
	if err == nil || !strings.Contains(err.Error(), "unclosed") {
		t.Errorf("Load() error = %v, want unclosed section header error", err)
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject unknown log level")
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := Default()
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for level, want := range tests {
		cfg.Log.Level = level
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel() for %q = %v, want %v", level, got, want)
		}
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error: %v", err)
	}
}
