package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	// Registers the postgres driver for the findings history store.
	_ "github.com/lib/pq"
)

// Store persists finding history in Postgres so CI pipelines can track
// flows across runs. The analysis itself never touches the store; callers
// save results explicitly after a run completes.
type Store struct {
	db *sql.DB
}

// OpenStore connects to Postgres and ensures the history table exists.
func OpenStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("report: open store: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("report: ping store: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS findings (
	id          TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	rule_id     TEXT NOT NULL,
	severity    TEXT NOT NULL,
	source_id   TEXT NOT NULL,
	sink_id     TEXT NOT NULL,
	sink_file   TEXT NOT NULL,
	sink_line   INTEGER NOT NULL,
	path        JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS findings_fingerprint_idx ON findings (fingerprint);`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("report: migrate store: %w", err)
	}
	return nil
}

// Save writes all findings of one run in a single transaction, keyed by the
// graph fingerprint the run analysed.
func (s *Store) Save(ctx context.Context, fingerprint string, findings []Finding) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("report: begin save: %w", err)
	}
	defer tx.Rollback()

	const insert = `
INSERT INTO findings (id, fingerprint, rule_id, severity, source_id, sink_id, sink_file, sink_line, path)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, f := range findings {
		path, err := json.Marshal(f.Path)
		if err != nil {
			return fmt.Errorf("report: encode path: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insert,
			f.ID, fingerprint, f.RuleID, f.Severity,
			string(f.Source.ID), string(f.Sink.ID),
			f.Sink.Loc.File, f.Sink.Loc.StartLine, path); err != nil {
			return fmt.Errorf("report: insert finding %s: %w", f.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("report: commit save: %w", err)
	}
	return nil
}

// Seen reports how many runs of the given fingerprint already recorded a
// finding for the same rule and (source, sink) pair.
func (s *Store) Seen(ctx context.Context, fingerprint string, f Finding) (int, error) {
	const query = `
SELECT count(*) FROM findings
WHERE fingerprint = $1 AND rule_id = $2 AND source_id = $3 AND sink_id = $4`
	var n int
	err := s.db.QueryRowContext(ctx, query,
		fingerprint, f.RuleID, string(f.Source.ID), string(f.Sink.ID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("report: query history: %w", err)
	}
	return n, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
