package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
[venues]
list = ["binance", "bybit"]

[sinks]
console = true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.LogLevel != "info" {
		t.Errorf("log level = %q", cfg.App.LogLevel)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.Stream != "market:agg" {
		t.Errorf("redis defaults = %q / %q", cfg.Redis.Addr, cfg.Redis.Stream)
	}
	if cfg.Feed.Mode != "redis" {
		t.Errorf("feed mode = %q", cfg.Feed.Mode)
	}
	if cfg.Engine.PriceTTLSec != 10 || cfg.Engine.EvictIntervalMs != 1000 ||
		cfg.Engine.RefreshIntervalSec != 60 || cfg.Engine.DetectIntervalMs != 500 {
		t.Errorf("engine defaults = %+v", cfg.Engine)
	}
	if cfg.Detector.MinSpreadPct != 0.1 || cfg.Detector.GrossOffsetPct != 0.2 {
		t.Errorf("detector defaults = %+v", cfg.Detector)
	}
	if cfg.Detector.StrictIdentity {
		t.Error("strict identity should default off")
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
[app]
log_level = "debug"

[venues]
list = ["Binance", " bybit ", "binance"]

[feed]
mode = "sim"
sim_symbols = ["BTC"]

[engine]
price_ttl_sec = 30
detect_interval_ms = 250

[detector]
min_spread_pct = 0.5
strict_identity = true

[sinks.ws]
enabled = true

[sinks.redis]
enabled = true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// venues lowercased, trimmed and deduped, order preserved
	if !reflect.DeepEqual(cfg.Venues.List, []string{"binance", "bybit"}) {
		t.Errorf("venues = %v", cfg.Venues.List)
	}
	if cfg.Engine.PriceTTLSec != 30 || cfg.Engine.DetectIntervalMs != 250 {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if cfg.Detector.MinSpreadPct != 0.5 || !cfg.Detector.StrictIdentity {
		t.Errorf("detector = %+v", cfg.Detector)
	}
	if cfg.Sinks.WS.Addr != ":8090" {
		t.Errorf("ws addr default = %q", cfg.Sinks.WS.Addr)
	}
	if cfg.Sinks.Redis.Stream != "spreads:out" || cfg.Sinks.Redis.Channel != "spreads:pub" {
		t.Errorf("redis sink defaults = %+v", cfg.Sinks.Redis)
	}
}

func TestLoadExplicitZeroDetectorValues(t *testing.T) {
	path := writeConfig(t, `
[venues]
list = ["binance"]

[detector]
min_spread_pct = 0.0
gross_offset_pct = 0.0

[sinks]
console = true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// explicit zeros must survive defaulting
	if cfg.Detector.MinSpreadPct != 0 {
		t.Errorf("min spread = %v, want 0", cfg.Detector.MinSpreadPct)
	}
	if cfg.Detector.GrossOffsetPct != 0 {
		t.Errorf("gross offset = %v, want 0", cfg.Detector.GrossOffsetPct)
	}
}

func TestLoadRejectsEmptyVenues(t *testing.T) {
	path := writeConfig(t, `
[sinks]
console = true
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for empty venues list")
	}
}

func TestLoadRejectsUnknownFeedMode(t *testing.T) {
	path := writeConfig(t, `
[venues]
list = ["binance"]

[feed]
mode = "kafka"

[sinks]
console = true
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown feed mode")
	}
}

func TestLoadRejectsNoSinks(t *testing.T) {
	path := writeConfig(t, `
[venues]
list = ["binance"]
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error when every sink is disabled")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
