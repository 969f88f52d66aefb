package service

import (
	"strings"
	"sync"
)

// SpreadTracker remembers when a buy/sell pairing first qualified as an
// opportunity, keyed "symbol:buyVenueKey-sellVenueKey". Entries survive
// cycles in which the pairing does not qualify; they are reclaimed only when
// the owning symbol is fully evicted from the price store.
type SpreadTracker struct {
	mu      sync.Mutex
	started map[string]int64 // pairing key -> first-qualified unix ms
}

func NewSpreadTracker() *SpreadTracker {
	return &SpreadTracker{started: make(map[string]int64)}
}

// PairingKey builds the stable tracker key for a directional pairing.
func PairingKey(symbol, buyVenueKey, sellVenueKey string) string {
	return symbol + ":" + buyVenueKey + "-" + sellVenueKey
}

// StartedAt returns the first-qualification timestamp for key, recording now
// if the pairing qualified for the first time.
func (t *SpreadTracker) StartedAt(key string, now int64) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ts, ok := t.started[key]; ok {
		return ts
	}
	t.started[key] = now
	return now
}

// DropSymbol reclaims every pairing owned by symbol.
func (t *SpreadTracker) DropSymbol(symbol string) {
	prefix := symbol + ":"
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.started {
		if strings.HasPrefix(k, prefix) {
			delete(t.started, k)
		}
	}
}

func (t *SpreadTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.started)
}
