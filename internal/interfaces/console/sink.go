package console

import (
	"context"

	"github.com/rs/zerolog/log"

	"spreadscan/internal/application/port"
	"spreadscan/internal/domain/model"
)

// Sink logs a one-line digest of each cycle; dev use only.
type Sink struct{}

func NewSink() port.Sink { return &Sink{} }

func (s *Sink) Publish(_ context.Context, ts int64, analyses []model.CoinAnalysis) error {
	top := analyses[0]
	ev := log.Info().
		Int64("ts_ms", ts).
		Int("symbols", len(analyses)).
		Str("top_symbol", top.Symbol)
	if len(top.Opportunities) > 0 {
		best := top.Opportunities[0]
		ev = ev.
			Str("buy", best.BuyExchange+":"+best.BuyType).
			Str("sell", best.SellExchange+":"+best.SellType).
			Float64("net_pct", best.NetSpreadPct)
	}
	ev.Msg("cycle published")
	return nil
}
