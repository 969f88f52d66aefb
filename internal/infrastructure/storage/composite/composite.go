package composite

import (
	"context"

	"spreadscan/internal/application/port"
	"spreadscan/internal/domain/model"
)

// Journal fans every write out to all configured journals; the first error
// is reported, the rest still run.
type Journal struct {
	journals []port.Journal
}

func NewJournal(journals ...port.Journal) *Journal {
	out := make([]port.Journal, 0, len(journals))
	for _, j := range journals {
		if j != nil {
			out = append(out, j)
		}
	}
	return &Journal{journals: out}
}

func (c *Journal) Empty() bool { return len(c.journals) == 0 }

func (c *Journal) InsertOpportunity(ctx context.Context, ts int64, symbol, buyVenue, sellVenue string, netSpreadPct float64, payload string) error {
	var firstErr error
	for _, j := range c.journals {
		if err := j.InsertOpportunity(ctx, ts, symbol, buyVenue, sellVenue, netSpreadPct, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *Journal) InsertCycle(ctx context.Context, ts int64, payload string) error {
	var firstErr error
	for _, j := range c.journals {
		if err := j.InsertCycle(ctx, ts, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *Journal) Close() error {
	var firstErr error
	for _, j := range c.journals {
		if err := j.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Sink fans one published cycle out to every configured sink.
type Sink struct {
	sinks []port.Sink
}

func NewSink(sinks ...port.Sink) *Sink {
	out := make([]port.Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Sink{sinks: out}
}

func (c *Sink) Publish(ctx context.Context, ts int64, analyses []model.CoinAnalysis) error {
	var firstErr error
	for _, s := range c.sinks {
		if err := s.Publish(ctx, ts, analyses); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var (
	_ port.Journal = (*Journal)(nil)
	_ port.Sink    = (*Sink)(nil)
)
