package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"spreadscan/internal/application/port"
	"spreadscan/internal/domain/model"
)

// Sink pushes each published cycle to a Redis stream (for replayable
// consumers) and a Pub/Sub channel (for live ones).
type Sink struct {
	rdb     *redis.Client
	stream  string
	channel string
}

func NewSink(rdb *redis.Client, stream, channel string) *Sink {
	return &Sink{rdb: rdb, stream: stream, channel: channel}
}

func (s *Sink) Publish(ctx context.Context, ts int64, analyses []model.CoinAnalysis) error {
	payload, err := json.Marshal(analyses)
	if err != nil {
		return err
	}

	if _, err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: 1000,
		Approx: true,
		Values: map[string]any{
			"ts_ms": ts,
			"data":  string(payload),
		},
	}).Result(); err != nil {
		return err
	}

	return s.rdb.Publish(ctx, s.channel, string(payload)).Err()
}

var _ port.Sink = (*Sink)(nil)
