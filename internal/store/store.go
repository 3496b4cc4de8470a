// Package store provides the SQLite-backed receipt store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ecotracehq/ecotrace/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// List limits for ListByAccount. Callers asking for more than MaxListLimit
// are clamped so a single query cannot return an unbounded response.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// timeLayout is RFC3339 with fixed-width nanoseconds so that lexicographic
// comparison of stored strings matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a SQLite-backed receipt store. A single handle is safe for
// concurrent use; upserts are single statements and therefore atomic per id.
type Store struct {
	db *sql.DB
}

// Open opens or creates the receipt database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening receipt db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert inserts or fully replaces the receipt under its id. Last writer
// wins; a duplicate id is not an error.
func (s *Store) Upsert(r model.Receipt) error {
	opts := r.Optimizations
	if opts == nil {
		opts = []string{}
	}
	optsJSON, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("encoding optimizations: %w", err)
	}

	var quality sql.NullFloat64
	if r.QualityScore != nil {
		quality = sql.NullFloat64{Float64: *r.QualityScore, Valid: true}
	}

	_, err = s.db.Exec(`INSERT OR REPLACE INTO receipts
		(receipt_id, account_id, tokens_before, tokens_after,
		 kwh_before, kwh_after, co2_g_before, co2_g_after,
		 quality_score, model, region, optimizations_applied, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ReceiptID, r.AccountID, r.TokensBefore, r.TokensAfter,
		r.KWhBefore, r.KWhAfter, r.CO2GBefore, r.CO2GAfter,
		quality, r.Model, r.Region, string(optsJSON),
		r.Timestamp.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upserting receipt %s: %w", r.ReceiptID, err)
	}
	return nil
}

const receiptColumns = `receipt_id, account_id, tokens_before, tokens_after,
	kwh_before, kwh_after, co2_g_before, co2_g_after,
	quality_score, model, region, optimizations_applied, created_at`

// ListByAccount returns up to limit receipts for the account, newest first.
// Ties on timestamp fall back to insertion order. A non-positive limit uses
// DefaultListLimit.
func (s *Store) ListByAccount(accountID string, limit int) ([]model.Receipt, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := s.db.Query(`SELECT `+receiptColumns+`
		FROM receipts
		WHERE account_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanReceipts(rows)
}

// AggregateRange returns all receipts for the account with timestamp >= since,
// oldest first. A zero since returns the account's full history.
func (s *Store) AggregateRange(accountID string, since time.Time) ([]model.Receipt, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if since.IsZero() {
		rows, err = s.db.Query(`SELECT `+receiptColumns+`
			FROM receipts
			WHERE account_id = ?
			ORDER BY created_at ASC, rowid ASC`, accountID)
	} else {
		rows, err = s.db.Query(`SELECT `+receiptColumns+`
			FROM receipts
			WHERE account_id = ? AND created_at >= ?
			ORDER BY created_at ASC, rowid ASC`,
			accountID, since.UTC().Format(timeLayout))
	}
	if err != nil {
		return nil, fmt.Errorf("querying receipt range: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanReceipts(rows)
}

// Count returns the total number of stored receipts across all accounts.
func (s *Store) Count() (int64, error) {
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM receipts").Scan(&n)
	return n, err
}

func scanReceipts(rows *sql.Rows) ([]model.Receipt, error) {
	var receipts []model.Receipt
	for rows.Next() {
		var (
			r         model.Receipt
			quality   sql.NullFloat64
			optsJSON  string
			createdAt string
		)
		err := rows.Scan(
			&r.ReceiptID, &r.AccountID, &r.TokensBefore, &r.TokensAfter,
			&r.KWhBefore, &r.KWhAfter, &r.CO2GBefore, &r.CO2GAfter,
			&quality, &r.Model, &r.Region, &optsJSON, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning receipt: %w", err)
		}

		if quality.Valid {
			q := quality.Float64
			r.QualityScore = &q
		}
		if err := json.Unmarshal([]byte(optsJSON), &r.Optimizations); err != nil {
			r.Optimizations = []string{}
		}
		if ts, err := time.Parse(timeLayout, createdAt); err == nil {
			r.Timestamp = ts.UTC()
		}

		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}
