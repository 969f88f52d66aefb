package config

import (
	"errors"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	App struct {
		LogLevel string `toml:"log_level"`
	} `toml:"app"`

	Redis struct {
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
		Stream   string `toml:"stream"` // market data aggregation stream
	} `toml:"redis"`

	Venues struct {
		List []string `toml:"list"`
	} `toml:"venues"`

	Feed struct {
		Mode       string   `toml:"mode"` // "redis" or "sim"
		SimSymbols []string `toml:"sim_symbols"`
	} `toml:"feed"`

	Engine struct {
		PriceTTLSec        int  `toml:"price_ttl_sec"`
		EvictIntervalMs    int  `toml:"evict_interval_ms"`
		RefreshIntervalSec int  `toml:"refresh_interval_sec"`
		DetectIntervalMs   int  `toml:"detect_interval_ms"`
		RequireReady       bool `toml:"require_ready"`
	} `toml:"engine"`

	Detector struct {
		MinSpreadPct   float64 `toml:"min_spread_pct"`
		GrossOffsetPct float64 `toml:"gross_offset_pct"`
		StrictIdentity bool    `toml:"strict_identity"`
	} `toml:"detector"`

	Sinks struct {
		Console bool `toml:"console"`

		WS struct {
			Enabled bool   `toml:"enabled"`
			Addr    string `toml:"addr"`
		} `toml:"ws"`

		Redis struct {
			Enabled bool   `toml:"enabled"`
			Stream  string `toml:"stream"`
			Channel string `toml:"channel"`
		} `toml:"redis"`
	} `toml:"sinks"`

	Journal struct {
		SQLitePath  string `toml:"sqlite_path"`
		PostgresDSN string `toml:"postgres_dsn"`
	} `toml:"journal"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	applyDefaults(&cfg, md)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config, md toml.MetaData) {
	if strings.TrimSpace(cfg.App.LogLevel) == "" {
		cfg.App.LogLevel = "info"
	}
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if strings.TrimSpace(cfg.Redis.Stream) == "" {
		cfg.Redis.Stream = "market:agg"
	}
	if strings.TrimSpace(cfg.Feed.Mode) == "" {
		cfg.Feed.Mode = "redis"
	}
	if len(cfg.Feed.SimSymbols) == 0 {
		cfg.Feed.SimSymbols = []string{"BTC", "ETH", "SOL", "XRP", "DOGE"}
	}
	if cfg.Engine.PriceTTLSec <= 0 {
		cfg.Engine.PriceTTLSec = 10
	}
	if cfg.Engine.EvictIntervalMs <= 0 {
		cfg.Engine.EvictIntervalMs = 1000
	}
	if cfg.Engine.RefreshIntervalSec <= 0 {
		cfg.Engine.RefreshIntervalSec = 60
	}
	if cfg.Engine.DetectIntervalMs <= 0 {
		cfg.Engine.DetectIntervalMs = 500
	}
	// zero is a legitimate setting for both; default only when absent
	if !md.IsDefined("detector", "min_spread_pct") {
		cfg.Detector.MinSpreadPct = 0.1
	}
	if !md.IsDefined("detector", "gross_offset_pct") {
		cfg.Detector.GrossOffsetPct = 0.2
	}
	if cfg.Sinks.WS.Enabled && strings.TrimSpace(cfg.Sinks.WS.Addr) == "" {
		cfg.Sinks.WS.Addr = ":8090"
	}
	if cfg.Sinks.Redis.Enabled {
		if strings.TrimSpace(cfg.Sinks.Redis.Stream) == "" {
			cfg.Sinks.Redis.Stream = "spreads:out"
		}
		if strings.TrimSpace(cfg.Sinks.Redis.Channel) == "" {
			cfg.Sinks.Redis.Channel = "spreads:pub"
		}
	}
}

func validate(cfg *Config) error {
	cfg.Venues.List = normalizeVenues(cfg.Venues.List)
	if len(cfg.Venues.List) == 0 {
		return errors.New("venues.list is empty")
	}

	switch cfg.Feed.Mode {
	case "redis", "sim":
	default:
		return errors.New("feed.mode must be \"redis\" or \"sim\"")
	}

	if !cfg.Sinks.Console && !cfg.Sinks.WS.Enabled && !cfg.Sinks.Redis.Enabled {
		return errors.New("no sink enabled")
	}
	return nil
}

func normalizeVenues(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, v := range in {
		l := strings.ToLower(strings.TrimSpace(v))
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
