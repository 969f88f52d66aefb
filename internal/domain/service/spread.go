package service

import "spreadscan/internal/domain/model"

// RawSpreadPct is the gross percentage gained by buying at buyAsk and
// selling at sellBid: (sellBid - buyAsk) / buyAsk * 100.
func RawSpreadPct(buyAsk, sellBid float64) float64 {
	if buyAsk == 0 {
		return 0
	}
	return (sellBid - buyAsk) / buyAsk * 100
}

// SpreadBucket partitions a pairing by the market types of its legs.
type SpreadBucket int

const (
	BucketPerpPerp SpreadBucket = iota
	BucketSpotPerp              // mixed, either direction
	BucketSpotSpot
)

func ClassifySpread(buyType, sellType string) SpreadBucket {
	buySpot := buyType == model.MarketSpot
	sellSpot := sellType == model.MarketSpot
	switch {
	case !buySpot && !sellSpot:
		return BucketPerpPerp
	case buySpot && sellSpot:
		return BucketSpotSpot
	default:
		return BucketSpotPerp
	}
}
