package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"spreadscan/internal/application/port"
	"spreadscan/internal/application/service"
	"spreadscan/internal/application/usecase/engine"
	"spreadscan/internal/infrastructure/config"
	"spreadscan/internal/infrastructure/feed"
	"spreadscan/internal/infrastructure/logger"
	"spreadscan/internal/infrastructure/metasource"
	"spreadscan/internal/infrastructure/storage/composite"
	"spreadscan/internal/infrastructure/storage/postgres"
	redissink "spreadscan/internal/infrastructure/storage/redis"
	"spreadscan/internal/infrastructure/storage/sqlite"
	"spreadscan/internal/interfaces/console"
	"spreadscan/internal/interfaces/ws"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Setup("info")
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	// core state
	tracker := service.NewSpreadTracker()
	store := service.NewPriceStore(tracker)
	registry := service.NewMetadataRegistry(metasource.NewRedisSource(rdb), cfg.Venues.List)
	registry.StrictIdentity = cfg.Detector.StrictIdentity

	detector := service.NewOpportunityDetector(registry, tracker)
	detector.MinSpreadPct = cfg.Detector.MinSpreadPct
	detector.GrossOffsetPct = cfg.Detector.GrossOffsetPct

	// ingestion
	var feeds []port.PriceFeed
	switch cfg.Feed.Mode {
	case "sim":
		feeds = append(feeds, feed.NewSimFeed(cfg.Feed.SimSymbols))
	default:
		feeds = append(feeds, feed.NewRedisStreamFeed(rdb, cfg.Redis.Stream))
	}

	// sinks
	var sinks []port.Sink
	if cfg.Sinks.WS.Enabled {
		hub := ws.NewHub(cfg.Sinks.WS.Addr)
		hub.Start(ctx)
		sinks = append(sinks, hub)
	}
	if cfg.Sinks.Redis.Enabled {
		sinks = append(sinks, redissink.NewSink(rdb, cfg.Sinks.Redis.Stream, cfg.Sinks.Redis.Channel))
	}
	if cfg.Sinks.Console {
		sinks = append(sinks, console.NewSink())
	}

	// optional journal
	var journals []port.Journal
	if cfg.Journal.SQLitePath != "" {
		repo, err := sqlite.New(cfg.Journal.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Journal.SQLitePath).Msg("open sqlite journal failed")
		}
		journals = append(journals, repo)
	}
	if cfg.Journal.PostgresDSN != "" {
		repo, err := postgres.New(cfg.Journal.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("open postgres journal failed")
		}
		journals = append(journals, repo)
	}
	var journal port.Journal
	if len(journals) > 0 {
		j := composite.NewJournal(journals...)
		defer j.Close()
		journal = j
	}

	eng := engine.New(engine.Deps{
		Feeds:    feeds,
		Store:    store,
		Registry: registry,
		Detector: detector,
		Sink:     composite.NewSink(sinks...),
		Journal:  journal,

		PriceTTL:        time.Duration(cfg.Engine.PriceTTLSec) * time.Second,
		EvictInterval:   time.Duration(cfg.Engine.EvictIntervalMs) * time.Millisecond,
		RefreshInterval: time.Duration(cfg.Engine.RefreshIntervalSec) * time.Second,
		DetectInterval:  time.Duration(cfg.Engine.DetectIntervalMs) * time.Millisecond,
		RequireReady:    cfg.Engine.RequireReady,
	})

	log.Info().
		Str("config", *configPath).
		Str("feed_mode", cfg.Feed.Mode).
		Int("venues", len(cfg.Venues.List)).
		Bool("require_ready", cfg.Engine.RequireReady).
		Msg("spreadscan started")

	if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("engine exited")
	}
	log.Warn().Msg("exit")
}
