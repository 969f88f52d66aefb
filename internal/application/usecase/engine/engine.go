package engine

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"spreadscan/internal/application/port"
	"spreadscan/internal/application/service"
	"spreadscan/internal/domain/model"
)

type Deps struct {
	Feeds    []port.PriceFeed
	Store    *service.PriceStore
	Registry *service.MetadataRegistry
	Detector *service.OpportunityDetector
	Sink     port.Sink
	Journal  port.Journal

	PriceTTL        time.Duration
	EvictInterval   time.Duration
	RefreshInterval time.Duration
	DetectInterval  time.Duration

	// RequireReady gates publishing on the registry's identity data having
	// loaded at least once.
	RequireReady bool
}

// Engine drives the three periodic passes (eviction, metadata refresh,
// detect+publish) and fans ingestion frames into the price store. The loops
// coordinate only through the shared structures, never through each other.
type Engine struct {
	deps Deps
}

func New(deps Deps) *Engine {
	if deps.PriceTTL <= 0 {
		deps.PriceTTL = 10 * time.Second
	}
	if deps.EvictInterval <= 0 {
		deps.EvictInterval = time.Second
	}
	if deps.RefreshInterval <= 0 {
		deps.RefreshInterval = time.Minute
	}
	if deps.DetectInterval <= 0 {
		deps.DetectInterval = 500 * time.Millisecond
	}
	return &Engine{deps: deps}
}

func (e *Engine) Run(ctx context.Context) error {
	if len(e.deps.Feeds) == 0 {
		return errors.New("no feeds")
	}

	merged := make(chan model.MarketData, 1024)
	for _, feed := range e.deps.Feeds {
		ch, err := feed.Subscribe(ctx)
		if err != nil {
			return err
		}
		go func(in <-chan model.MarketData) {
			for {
				select {
				case <-ctx.Done():
					return
				case m, ok := <-in:
					if !ok {
						return
					}
					select {
					case merged <- m:
					case <-ctx.Done():
						return
					}
				}
			}
		}(ch)
		log.Info().Str("feed", feed.Name()).Msg("feed started")
	}

	// initial metadata load, then periodic
	e.deps.Registry.Refresh(ctx)

	go e.evictLoop(ctx)
	go e.refreshLoop(ctx)
	go e.detectLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-merged:
			if !m.Valid() {
				continue
			}
			e.deps.Store.Ingest(m.Symbol, m.Exchange, m.MarketType, m.Bid, m.Ask, m.BidQty, m.AskQty, m.MarkPrice)
		}
	}
}

func (e *Engine) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(e.deps.EvictInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			e.deps.Store.EvictStale(now, e.deps.PriceTTL)
		}
	}
}

func (e *Engine) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(e.deps.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.deps.Registry.Refresh(ctx)
		}
	}
}

func (e *Engine) detectLoop(ctx context.Context) {
	ticker := time.NewTicker(e.deps.DetectInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			e.runCycle(ctx, now)
		}
	}
}

func (e *Engine) runCycle(ctx context.Context, now time.Time) {
	if e.deps.RequireReady && !e.deps.Registry.Ready() {
		return
	}

	analyses := e.deps.Detector.Detect(now, e.deps.Store.SnapshotAll())
	if len(analyses) == 0 {
		return
	}

	ts := now.UnixMilli()
	if err := e.deps.Sink.Publish(ctx, ts, analyses); err != nil {
		log.Warn().Err(err).Msg("publish failed")
	}

	if e.deps.Journal != nil {
		e.journalCycle(ctx, ts, analyses)
	}
}

func (e *Engine) journalCycle(ctx context.Context, ts int64, analyses []model.CoinAnalysis) {
	payload, err := json.Marshal(analyses)
	if err != nil {
		return
	}
	if err := e.deps.Journal.InsertCycle(ctx, ts, string(payload)); err != nil {
		log.Warn().Err(err).Msg("journal cycle failed")
		return
	}
	for _, a := range analyses {
		best := a.Opportunities[0]
		raw, err := json.Marshal(best)
		if err != nil {
			continue
		}
		buyVenue := model.VenueKey(best.BuyExchange, best.BuyType)
		sellVenue := model.VenueKey(best.SellExchange, best.SellType)
		if err := e.deps.Journal.InsertOpportunity(ctx, ts, a.Symbol, buyVenue, sellVenue, best.NetSpreadPct, string(raw)); err != nil {
			log.Warn().Err(err).Str("symbol", a.Symbol).Msg("journal opportunity failed")
		}
	}
}
