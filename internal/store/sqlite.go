package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tradesim/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ OrderStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS order_results (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	id            TEXT NOT NULL,
	symbol        TEXT NOT NULL,
	side          TEXT NOT NULL,
	quantity      INTEGER NOT NULL,
	submitted_at  INTEGER NOT NULL,
	state         TEXT NOT NULL,
	transitions   TEXT NOT NULL,
	reason        TEXT NOT NULL DEFAULT '',
	message       TEXT NOT NULL DEFAULT '',
	price         TEXT NOT NULL DEFAULT '',
	price_source  TEXT NOT NULL DEFAULT '',
	synthetic     INTEGER NOT NULL DEFAULT 0,
	quoted_at     INTEGER NOT NULL DEFAULT 0,
	balance       TEXT NOT NULL
)`

// SQLiteStore implements OrderStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, creates the
// journal table and returns a ready-to-use SQLiteStore. dbPath ":memory:"
// keeps the journal in process memory.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating order_results: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveResult inserts an order outcome into the journal.
func (s *SQLiteStore) SaveResult(ctx context.Context, r domain.OrderResult) error {
	transitions := make([]string, len(r.Transitions))
	for i, st := range r.Transitions {
		transitions[i] = string(st)
	}

	var (
		price, source string
		synthetic     int
		quotedAt      int64
	)
	if r.Quote != nil {
		price = r.Quote.Price.String()
		source = r.Quote.Source
		quotedAt = r.Quote.AsOf.UnixMilli()
		if r.Quote.Synthetic {
			synthetic = 1
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO order_results
			(id, symbol, side, quantity, submitted_at, state, transitions,
			 reason, message, price, price_source, synthetic, quoted_at, balance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Order.ID, r.Order.Symbol, string(r.Order.Side), r.Order.Quantity,
		r.Order.SubmittedAt.UnixMilli(), string(r.State), strings.Join(transitions, ","),
		string(r.Reason), r.Message, price, source, synthetic, quotedAt, r.Balance.String(),
	)
	if err != nil {
		return fmt.Errorf("saving order %s: %w", r.Order.ID, err)
	}
	return nil
}

// ListResults returns journaled outcomes, newest first.
func (s *SQLiteStore) ListResults(ctx context.Context, limit int) ([]domain.OrderResult, error) {
	query := `
		SELECT id, symbol, side, quantity, submitted_at, state, transitions,
		       reason, message, price, price_source, synthetic, quoted_at, balance
		FROM order_results ORDER BY seq DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var results []domain.OrderResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanResult(rows *sql.Rows) (domain.OrderResult, error) {
	var (
		r                                domain.OrderResult
		side, state, transitions, reason string
		price, source, balance           string
		submittedAt, quotedAt            int64
		synthetic                        int
	)
	err := rows.Scan(&r.Order.ID, &r.Order.Symbol, &side, &r.Order.Quantity, &submittedAt,
		&state, &transitions, &reason, &r.Message, &price, &source, &synthetic, &quotedAt, &balance)
	if err != nil {
		return r, fmt.Errorf("scanning order row: %w", err)
	}

	r.Order.Side = domain.OrderSide(side)
	r.Order.SubmittedAt = time.UnixMilli(submittedAt).UTC()
	r.State = domain.OrderState(state)
	r.Reason = domain.RejectReason(reason)
	for _, st := range strings.Split(transitions, ",") {
		if st != "" {
			r.Transitions = append(r.Transitions, domain.OrderState(st))
		}
	}
	if r.Balance, err = decimal.NewFromString(balance); err != nil {
		return r, fmt.Errorf("order %s balance %q: %w", r.Order.ID, balance, err)
	}
	if price != "" {
		p, err := decimal.NewFromString(price)
		if err != nil {
			return r, fmt.Errorf("order %s price %q: %w", r.Order.ID, price, err)
		}
		r.Quote = &domain.Quote{
			Symbol:    r.Order.Symbol,
			Price:     p,
			AsOf:      time.UnixMilli(quotedAt).UTC(),
			Source:    source,
			Synthetic: synthetic == 1,
		}
	}
	return r, nil
}
