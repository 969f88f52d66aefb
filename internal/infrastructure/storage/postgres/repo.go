package postgres

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"

	"spreadscan/internal/application/port"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

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
  id BIGSERIAL PRIMARY KEY,
  ts_ms BIGINT NOT NULL,
  symbol TEXT NOT NULL,
  buy_venue TEXT NOT NULL,
  sell_venue TEXT NOT NULL,
  net_spread_pct DOUBLE PRECISION NOT NULL,
  payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_opportunities_ts ON opportunities(ts_ms);
CREATE INDEX IF NOT EXISTS idx_opportunities_symbol ON opportunities(symbol);

CREATE TABLE IF NOT EXISTS cycles (
  id BIGSERIAL PRIMARY KEY,
  ts_ms BIGINT NOT NULL,
  payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cycles_ts ON cycles(ts_ms);
`)
	return err
}

func (r *Repo) InsertOpportunity(ctx context.Context, ts int64, symbol, buyVenue, sellVenue string, netSpreadPct float64, payload string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO opportunities(ts_ms, symbol, buy_venue, sell_venue, net_spread_pct, payload)
		 VALUES($1, $2, $3, $4, $5, $6)`,
		ts, symbol, buyVenue, sellVenue, netSpreadPct, payload)
	return err
}

func (r *Repo) InsertCycle(ctx context.Context, ts int64, payload string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cycles(ts_ms, payload) VALUES($1, $2)`, ts, payload)
	return err
}

var _ port.Journal = (*Repo)(nil)
