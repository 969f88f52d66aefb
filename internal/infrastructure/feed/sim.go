package feed

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"spreadscan/internal/application/port"
	"spreadscan/internal/domain/model"
)

// simVenues are the synthetic sources the simulator quotes from; two spot
// and two perp books per symbol so cross-venue pairs of every category show
// up without upstream collectors.
var simVenues = []struct {
	exchange   string
	marketType string
}{
	{"binance", "spot"},
	{"bybit", "spot"},
	{"binance", "swap"},
	{"gate", "swap"},
}

// SimFeed generates a random-walk market stream for development runs. The
// walk keeps per-(venue, symbol) price continuity so quotes drift instead of
// jumping.
type SimFeed struct {
	symbols []string

	minInterval time.Duration
	maxInterval time.Duration
}

func NewSimFeed(symbols []string) *SimFeed {
	return &SimFeed{
		symbols:     symbols,
		minInterval: 100 * time.Millisecond,
		maxInterval: 800 * time.Millisecond,
	}
}

func (f *SimFeed) Name() string { return "sim" }

func (f *SimFeed) Subscribe(ctx context.Context) (<-chan model.MarketData, error) {
	out := make(chan model.MarketData, 1024)
	go f.run(ctx, out)
	return out, nil
}

func (f *SimFeed) run(ctx context.Context, out chan<- model.MarketData) {
	defer close(out)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	prices := make(map[string]float64)

	for {
		for _, sym := range f.symbols {
			for _, v := range simVenues {
				key := v.exchange + ":" + v.marketType + ":" + sym
				px, ok := prices[key]
				if !ok {
					px = seedPrice(sym)
				}

				// 0.1% volatility random walk
				px *= 1 + (rng.Float64()*0.002 - 0.001)
				prices[key] = px

				halfSpread := px * 0.0005
				volume := rng.Float64()*5 + 0.1

				frame := model.MarketData{
					Exchange:   v.exchange,
					MarketType: v.marketType,
					Symbol:     sym,
					Bid:        px - halfSpread,
					Ask:        px + halfSpread,
					BidQty:     volume,
					AskQty:     volume,
					MarkPrice:  px,
					Timestamp:  time.Now().UnixMilli(),
				}
				select {
				case out <- frame:
				case <-ctx.Done():
					return
				}
			}
		}

		jitter := f.minInterval + time.Duration(rng.Int63n(int64(f.maxInterval-f.minInterval)))
		select {
		case <-ctx.Done():
			return
		case <-time.After(jitter):
		}
	}
}

// seedPrice derives a stable starting price from the symbol so BTC always
// seeds in the tens of thousands, ETH in the thousands, and so on.
func seedPrice(symbol string) float64 {
	var hash int32
	for _, c := range symbol {
		hash = c + ((hash << 5) - hash)
	}
	norm := float64(abs32(hash) % 10000)

	switch {
	case strings.Contains(symbol, "BTC"):
		return 45000 + norm
	case strings.Contains(symbol, "ETH"):
		return 2500 + norm/10
	case strings.Contains(symbol, "SOL"):
		return 100 + norm/100
	default:
		return norm/100 + 0.5
	}
}

func abs32(n int32) int32 {
	if n < 0 {
		return -n
	}
	return n
}

var _ port.PriceFeed = (*SimFeed)(nil)
