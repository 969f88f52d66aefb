package port

import (
	"context"

	"spreadscan/internal/domain/model"
)

// PriceFeed delivers market data frames from one upstream source.
// Implementations own parsing and reconnects; frames on the channel are
// already validated, anything malformed is dropped inside the feed.
type PriceFeed interface {
	Name() string
	Subscribe(ctx context.Context) (<-chan model.MarketData, error)
}
