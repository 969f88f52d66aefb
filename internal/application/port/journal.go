package port

import "context"

// Journal persists detected opportunities for later inspection. Optional;
// detection never depends on it and a failing journal only logs.
type Journal interface {
	// InsertOpportunity records one qualifying pairing.
	InsertOpportunity(ctx context.Context, ts int64, symbol, buyVenue, sellVenue string, netSpreadPct float64, payload string) error
	// InsertCycle records the published snapshot of a whole cycle.
	InsertCycle(ctx context.Context, ts int64, payload string) error
	Close() error
}
