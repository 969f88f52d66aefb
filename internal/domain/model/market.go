package model

import "strings"

// Market types as they appear in venue keys and in the published payload.
const (
	MarketSpot = "SPOT"
	MarketPerp = "PERP"
)

// NormalizeMarketType maps feed market-type spellings onto SPOT/PERP.
// Collectors emit "spot", "swap", "perp" or "linear" depending on the venue.
func NormalizeMarketType(mt string) string {
	switch strings.ToUpper(strings.TrimSpace(mt)) {
	case "", MarketSpot:
		return MarketSpot
	case "SWAP", "LINEAR", "FUTURE", MarketPerp:
		return MarketPerp
	default:
		return strings.ToUpper(strings.TrimSpace(mt))
	}
}

// VenueKey is "EXCHANGE:TYPE", e.g. "binance:SPOT". Two venue keys on the
// same symbol are distinct price sources even when the exchange matches.
func VenueKey(exchange, marketType string) string {
	return exchange + ":" + NormalizeMarketType(marketType)
}

// SplitVenueKey is the inverse of VenueKey. Malformed keys return ok=false.
func SplitVenueKey(key string) (exchange, marketType string, ok bool) {
	i := strings.IndexByte(key, ':')
	if i <= 0 || i == len(key)-1 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}

// PriceSnapshot is the latest top-of-book observation for one (symbol, venue).
// Overwritten wholesale on every ingested frame, never merged.
type PriceSnapshot struct {
	Bid        float64
	Ask        float64
	BidQty     float64
	AskQty     float64
	MarkPrice  float64
	MarketType string // SPOT or PERP
	Timestamp  int64  // unix ms at ingestion
}

// MarketData is one frame on the ingestion stream. Short JSON keys match what
// the collectors publish on the aggregation stream.
type MarketData struct {
	Exchange   string  `json:"ex"`
	MarketType string  `json:"mt"`
	Symbol     string  `json:"s"`
	Bid        float64 `json:"b"`
	Ask        float64 `json:"a"`
	BidQty     float64 `json:"bl"`
	AskQty     float64 `json:"al"`
	MarkPrice  float64 `json:"mp"`
	Timestamp  int64   `json:"ts"`
	SystemTs   int64   `json:"sys_ts,omitempty"`
}

// Valid reports whether the frame carries enough to be worth caching.
// Anything else is dropped at the boundary per the silent-drop policy.
func (m MarketData) Valid() bool {
	return m.Exchange != "" && m.Symbol != "" && m.Bid > 0 && m.Ask > 0
}
