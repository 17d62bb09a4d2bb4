// Package snapshot persists the last fetched quote set so a restart can
// serve stale data immediately while the first refresh is in flight.
package snapshot

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"stocktracker/internal/quote"
)

const schema = `
CREATE TABLE IF NOT EXISTS quotes (
    symbol VARCHAR(20) PRIMARY KEY,
    name VARCHAR(100),
    price REAL,
    change REAL,
    change_percent REAL,
    volume INTEGER,
    open REAL,
    high REAL,
    low REAL,
    prev_close REAL,
    kind VARCHAR(10),
    market VARCHAR(10),
    timestamp INTEGER
);
CREATE TABLE IF NOT EXISTS meta (
    key VARCHAR(50) PRIMARY KEY,
    value INTEGER
);`

// Store keeps one row per symbol; Save replaces the whole set.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Save stores the quotes and the update time atomically, discarding the
// previous snapshot.
func (s *Store) Save(ctx context.Context, quotes []quote.Quote, at int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM quotes`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO quotes
        (symbol, name, price, change, change_percent, volume, open, high, low, prev_close, kind, market, timestamp)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, q := range quotes {
		if _, err := stmt.ExecContext(ctx, q.Symbol, q.Name, q.Price, q.Change, q.ChangePercent,
			q.Volume, q.Open, q.High, q.Low, q.PrevClose, string(q.Kind), string(q.Market), q.Timestamp); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta (key, value) VALUES ('last_update', ?)`, at); err != nil {
		return err
	}
	return tx.Commit()
}

// Load returns the stored quotes and the last update time in epoch
// milliseconds. A fresh database yields an empty slice and zero time.
func (s *Store) Load(ctx context.Context) ([]quote.Quote, int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol, name, price, change, change_percent,
        volume, open, high, low, prev_close, kind, market, timestamp FROM quotes ORDER BY symbol`)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quotes []quote.Quote
	for rows.Next() {
		var q quote.Quote
		var kind, market string
		if err := rows.Scan(&q.Symbol, &q.Name, &q.Price, &q.Change, &q.ChangePercent,
			&q.Volume, &q.Open, &q.High, &q.Low, &q.PrevClose, &kind, &market, &q.Timestamp); err != nil {
			return nil, 0, err
		}
		q.Kind = quote.Kind(kind)
		q.Market = quote.Market(market)
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var at int64
	err = s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'last_update'`).Scan(&at)
	if err != nil && err != sql.ErrNoRows {
		return nil, 0, err
	}
	return quotes, at, nil
}
