package port

import (
	"context"

	"spreadscan/internal/domain/model"
)

// Sink receives the ranked result set of one detection cycle. The engine
// never calls Publish with an empty set.
type Sink interface {
	Publish(ctx context.Context, ts int64, analyses []model.CoinAnalysis) error
}
