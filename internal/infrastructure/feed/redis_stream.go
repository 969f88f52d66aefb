package feed

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"spreadscan/internal/application/port"
	"spreadscan/internal/domain/model"
)

// RedisStreamFeed tails the market aggregation stream the collectors XADD
// into. Each entry carries one MarketData frame as JSON under the "data"
// field. Frames that fail to decode or validate are dropped silently.
type RedisStreamFeed struct {
	rdb    *redis.Client
	stream string
}

func NewRedisStreamFeed(rdb *redis.Client, stream string) *RedisStreamFeed {
	return &RedisStreamFeed{rdb: rdb, stream: stream}
}

func (f *RedisStreamFeed) Name() string { return "redis-stream" }

func (f *RedisStreamFeed) Subscribe(ctx context.Context) (<-chan model.MarketData, error) {
	if f.stream == "" {
		return nil, errors.New("stream name empty")
	}
	out := make(chan model.MarketData, 1024)
	go f.run(ctx, out)
	return out, nil
}

func (f *RedisStreamFeed) run(ctx context.Context, out chan<- model.MarketData) {
	defer close(out)

	backoff := 500 * time.Millisecond
	maxBackoff := 10 * time.Second

	lastID := "$" // only frames newer than startup
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := f.rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{f.stream, lastID},
			Count:   256,
			Block:   time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			log.Warn().Str("feed", f.Name()).Err(err).Msg("stream read failed, retrying")
			time.Sleep(backoff)
			backoff = minDur(backoff*2, maxBackoff)
			continue
		}
		backoff = 500 * time.Millisecond

		for _, stream := range res {
			for _, msg := range stream.Messages {
				lastID = msg.ID
				raw, ok := msg.Values["data"].(string)
				if !ok {
					continue
				}
				var m model.MarketData
				if err := json.Unmarshal([]byte(raw), &m); err != nil {
					log.Debug().Str("feed", f.Name()).Err(err).Msg("bad frame dropped")
					continue
				}
				if !m.Valid() {
					continue
				}
				select {
				case out <- m:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func minDur(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

var _ port.PriceFeed = (*RedisStreamFeed)(nil)
