package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "spreadscan.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestInsertOpportunity(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.InsertOpportunity(ctx, 1700000000000, "BTC", "binance:SPOT", "bybit:PERP", 0.42, `{"symbol":"BTC"}`); err != nil {
		t.Fatalf("InsertOpportunity: %v", err)
	}

	var symbol, buy, sell string
	var spread float64
	row := repo.db.QueryRowContext(ctx,
		`SELECT symbol, buy_venue, sell_venue, net_spread_pct FROM opportunities WHERE ts_ms = ?`, 1700000000000)
	if err := row.Scan(&symbol, &buy, &sell, &spread); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if symbol != "BTC" || buy != "binance:SPOT" || sell != "bybit:PERP" || spread != 0.42 {
		t.Errorf("row = %s %s %s %v", symbol, buy, sell, spread)
	}
}

func TestInsertCycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := int64(0); i < 3; i++ {
		if err := repo.InsertCycle(ctx, 1700000000000+i*500, `[]`); err != nil {
			t.Fatalf("InsertCycle: %v", err)
		}
	}

	var n int
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cycles`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("cycles = %d, want 3", n)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spreadscan.db")
	repo, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// reopening the same file must not fail on existing tables
	repo, err = New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = repo.Close()
}
