// Package history persists the observation ledger: which acquisition dates
// have been processed and with what outcome.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS observation_history (
	date         TEXT PRIMARY KEY,
	cloud_cover  REAL NOT NULL,
	outcome      TEXT NOT NULL,
	processed_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_observation_history_outcome ON observation_history(outcome);
`

// Store is the SQLite-backed observation history. It is the only writer of
// history records; writes are serialized by an internal mutex so parallel
// candidate processing needs no further coordination.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates the history database at the given path.
// If path is empty or ":memory:", uses an in-memory database.
func Open(path string) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ProcessedDates returns the set of acquisition dates with a success record.
func (s *Store) ProcessedDates(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date FROM observation_history WHERE outcome = ?`, string(domain.OutcomeSuccess))
	if err != nil {
		return nil, fmt.Errorf("query processed dates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	dates := make(map[string]bool)
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates[d] = true
	}
	return dates, rows.Err()
}

// LatestProcessedDate returns the most recent success date, or "" when the
// ledger has no successes yet.
func (s *Store) LatestProcessedDate(ctx context.Context) (string, error) {
	var date sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(date) FROM observation_history WHERE outcome = ?`,
		string(domain.OutcomeSuccess)).Scan(&date)
	if err != nil {
		return "", fmt.Errorf("query latest processed date: %w", err)
	}
	if !date.Valid {
		return "", nil
	}
	return date.String, nil
}

// RecordOutcome appends or updates the ledger entry for a date. A date
// already recorded as success is never overwritten: re-recording it is a
// no-op, which makes retries and re-invocations idempotent. Failed records
// are replaced so a retried date can transition failed -> success.
func (s *Store) RecordOutcome(ctx context.Context, date string, cloudCover float64, outcome domain.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record outcome: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing string
	err = tx.QueryRowContext(ctx,
		`SELECT outcome FROM observation_history WHERE date = ?`, date).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		// first record for this date
	case err != nil:
		return fmt.Errorf("query outcome for %s: %w", date, err)
	case existing == string(domain.OutcomeSuccess):
		return nil // success is terminal
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO observation_history (date, cloud_cover, outcome, processed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			cloud_cover = excluded.cloud_cover,
			outcome = excluded.outcome,
			processed_at = excluded.processed_at`,
		date, cloudCover, string(outcome), domain.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record outcome for %s: %w", date, err)
	}

	return tx.Commit()
}

// Record returns the ledger entry for a date, with ok=false when absent.
func (s *Store) Record(ctx context.Context, date string) (domain.HistoryRecord, bool, error) {
	var rec domain.HistoryRecord
	var outcome, processedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT date, cloud_cover, outcome, processed_at
		FROM observation_history WHERE date = ?`, date).
		Scan(&rec.Date, &rec.CloudCover, &outcome, &processedAt)
	if err == sql.ErrNoRows {
		return domain.HistoryRecord{}, false, nil
	}
	if err != nil {
		return domain.HistoryRecord{}, false, fmt.Errorf("query record for %s: %w", date, err)
	}

	rec.Outcome = domain.Outcome(outcome)
	if t, perr := time.Parse(time.RFC3339, processedAt); perr == nil {
		rec.ProcessedAt = t
	}
	return rec, true, nil
}
