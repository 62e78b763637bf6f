// Package storage persists the trade journal in SQLite and portfolio
// snapshots as JSON files.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/Bich992/Trading-BOT/internal/domain"
)

// TradeJournal stores every trade in SQLite. WAL mode keeps writes
// cheap on the hot path.
type TradeJournal struct {
	db *sql.DB
}

// NewTradeJournal opens (or creates) the journal at dbPath.
func NewTradeJournal(dbPath string) (*TradeJournal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=-2000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`); err != nil {
		return nil, fmt.Errorf("failed to create metadata table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			ts INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			qty REAL NOT NULL,
			price REAL NOT NULL,
			fee REAL NOT NULL,
			order_type TEXT NOT NULL,
			pnl_realized REAL NOT NULL,
			note TEXT NOT NULL
		);
	`); err != nil {
		return nil, fmt.Errorf("failed to create trades table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_trades_symbol_ts ON trades(symbol, ts);`); err != nil {
		return nil, fmt.Errorf("failed to create trades index: %w", err)
	}

	return &TradeJournal{db: db}, nil
}

// SaveTrade appends one trade. Saving the same trade ID twice is an
// error; the tape is append-only.
func (j *TradeJournal) SaveTrade(ctx context.Context, t domain.Trade) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO trades (id, ts, symbol, side, qty, price, fee, order_type, pnl_realized, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Ts.UnixMilli(), t.Symbol, t.Side, t.Qty, t.Price, t.Fee,
		t.OrderType, t.PnLRealized, t.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade %s: %w", t.ID, err)
	}
	return nil
}

// LoadTrades returns every stored trade for symbol, oldest first.
// An empty symbol loads the whole tape.
func (j *TradeJournal) LoadTrades(ctx context.Context, symbol string) ([]domain.Trade, error) {
	query := "SELECT id, ts, symbol, side, qty, price, fee, order_type, pnl_realized, note FROM trades"
	args := []any{}
	if symbol != "" {
		query += " WHERE symbol = ?"
		args = append(args, symbol)
	}
	query += " ORDER BY ts ASC, id ASC"

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var ts int64
		if err := rows.Scan(&t.ID, &ts, &t.Symbol, &t.Side, &t.Qty, &t.Price, &t.Fee, &t.OrderType, &t.PnLRealized, &t.Note); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		t.Ts = time.UnixMilli(ts).UTC()
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return trades, nil
}

// CountTrades returns the number of stored trades.
func (j *TradeJournal) CountTrades(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trades").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return n, nil
}

// UpsertMetadata saves a key-value pair to the metadata table.
func (j *TradeJournal) UpsertMetadata(ctx context.Context, key, value string, ts int64) error {
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at",
		key, value, ts,
	)
	return err
}

// GetMetadata retrieves a value from the metadata table, "" when absent.
func (j *TradeJournal) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := j.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SaveRecap stores an end-of-run summary as metadata JSON.
func (j *TradeJournal) SaveRecap(ctx context.Context, recap any) error {
	data, err := json.Marshal(recap)
	if err != nil {
		return fmt.Errorf("failed to marshal recap: %w", err)
	}
	return j.UpsertMetadata(ctx, "last_recap", string(data), time.Now().Unix())
}

// Close closes the database connection.
func (j *TradeJournal) Close() error {
	return j.db.Close()
}
