package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"spreadscan/internal/application/port"
)

// Repo journals detected opportunities and published cycles into a local
// SQLite file.
type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS opportunities (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts_ms INTEGER NOT NULL,
  symbol TEXT NOT NULL,
  buy_venue TEXT NOT NULL,
  sell_venue TEXT NOT NULL,
  net_spread_pct REAL NOT NULL,
  payload TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_opportunities_ts ON opportunities(ts_ms);
CREATE INDEX IF NOT EXISTS idx_opportunities_symbol ON opportunities(symbol);

CREATE TABLE IF NOT EXISTS cycles (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts_ms INTEGER NOT NULL,
  payload TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cycles_ts ON cycles(ts_ms);
`)
	return err
}

func (r *Repo) InsertOpportunity(ctx context.Context, ts int64, symbol, buyVenue, sellVenue string, netSpreadPct float64, payload string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO opportunities(ts_ms, symbol, buy_venue, sell_venue, net_spread_pct, payload, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		ts, symbol, buyVenue, sellVenue, netSpreadPct, payload, time.Now().UnixMilli())
	return err
}

func (r *Repo) InsertCycle(ctx context.Context, ts int64, payload string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cycles(ts_ms, payload, created_at) VALUES(?, ?, ?)`,
		ts, payload, time.Now().UnixMilli())
	return err
}

var _ port.Journal = (*Repo)(nil)
