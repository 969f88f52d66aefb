package service

import (
	"hash/fnv"
	"sync"
	"time"

	"spreadscan/internal/domain/model"
)

const priceShardCount = 32

// PriceStore holds the latest top-of-book snapshot per (symbol, venue-key).
// Symbols are sharded so ingestion, eviction and snapshot reads only contend
// on a single shard. Eviction is the only path that deletes entries.
type PriceStore struct {
	shards  [priceShardCount]priceShard
	tracker *SpreadTracker
}

type priceShard struct {
	mu      sync.RWMutex
	symbols map[string]map[string]model.PriceSnapshot
}

// NewPriceStore creates an empty store. tracker may be nil; when set, fully
// evicting a symbol also reclaims that symbol's spread-duration entries.
func NewPriceStore(tracker *SpreadTracker) *PriceStore {
	s := &PriceStore{tracker: tracker}
	for i := range s.shards {
		s.shards[i].symbols = make(map[string]map[string]model.PriceSnapshot)
	}
	return s
}

func (s *PriceStore) shard(symbol string) *priceShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	return &s.shards[h.Sum32()%priceShardCount]
}

// Ingest upserts the snapshot for (symbol, exchange+marketType), stamped with
// the current time. Input is trusted; malformed frames are filtered upstream.
func (s *PriceStore) Ingest(symbol, exchange, marketType string, bid, ask, bidQty, askQty, markPrice float64) {
	mt := model.NormalizeMarketType(marketType)
	key := model.VenueKey(exchange, mt)
	snap := model.PriceSnapshot{
		Bid:        bid,
		Ask:        ask,
		BidQty:     bidQty,
		AskQty:     askQty,
		MarkPrice:  markPrice,
		MarketType: mt,
		Timestamp:  time.Now().UnixMilli(),
	}

	sh := s.shard(symbol)
	sh.mu.Lock()
	venues := sh.symbols[symbol]
	if venues == nil {
		venues = make(map[string]model.PriceSnapshot)
		sh.symbols[symbol] = venues
	}
	venues[key] = snap
	sh.mu.Unlock()
}

// SnapshotAll returns a point-in-time copy, safe to iterate while ingestion
// continues. Consistency is per shard, not across the whole store.
func (s *PriceStore) SnapshotAll() map[string]map[string]model.PriceSnapshot {
	out := make(map[string]map[string]model.PriceSnapshot)
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for sym, venues := range sh.symbols {
			cp := make(map[string]model.PriceSnapshot, len(venues))
			for k, v := range venues {
				cp[k] = v
			}
			out[sym] = cp
		}
		sh.mu.RUnlock()
	}
	return out
}

// EvictStale removes snapshots older than now-ttl. A symbol whose venue map
// empties is removed entirely, together with its duration-tracker entries.
func (s *PriceStore) EvictStale(now time.Time, ttl time.Duration) {
	cutoff := now.Add(-ttl).UnixMilli()
	for i := range s.shards {
		sh := &s.shards[i]
		var emptied []string
		sh.mu.Lock()
		for sym, venues := range sh.symbols {
			for key, snap := range venues {
				if snap.Timestamp < cutoff {
					delete(venues, key)
				}
			}
			if len(venues) == 0 {
				delete(sh.symbols, sym)
				emptied = append(emptied, sym)
			}
		}
		sh.mu.Unlock()

		if s.tracker != nil {
			for _, sym := range emptied {
				s.tracker.DropSymbol(sym)
			}
		}
	}
}

// Len returns the number of tracked symbols.
func (s *PriceStore) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		n += len(sh.symbols)
		sh.mu.RUnlock()
	}
	return n
}
