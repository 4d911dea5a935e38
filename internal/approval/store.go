package approval

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"reelsmith/internal/config"
)

// Stage identifies which pipeline artifact a decision applies to.
type Stage string

const (
	StageScript Stage = "script"
	StageImages Stage = "images"
	StageVideos Stage = "videos"
)

// Decision is a recorded human verdict on a stage's output.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

const approvalsSchema = `
CREATE TABLE IF NOT EXISTS approvals (
    job_id INTEGER NOT NULL,
    stage TEXT NOT NULL,
    decision TEXT NOT NULL,
    decided_at TEXT NOT NULL,
    expires_at TEXT NOT NULL,
    PRIMARY KEY (job_id, stage)
)`

// Store persists approval decisions independently of the job records. It
// shares the SQLite file with the job store but holds its own connection so
// decisions can be written while a pipeline run is mid-transaction.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// Open connects the approval store to the daemon database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	ttl := time.Duration(cfg.Approval.TTL) * time.Second
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "reelsmith.db"), ttl)
}

// OpenPath connects the approval store to an explicit database location.
func OpenPath(dbPath string, ttl time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(approvalsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create approvals table: %w", err)
	}
	return &Store{db: db, ttl: ttl}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put records a decision for a job stage. A later write replaces an earlier
// one. Expired rows across all jobs are purged on the same trip.
func (s *Store) Put(ctx context.Context, jobID int64, stage Stage, decision Decision) error {
	if decision != DecisionApproved && decision != DecisionRejected {
		return fmt.Errorf("unknown decision %q", decision)
	}
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(
		ctx,
		`DELETE FROM approvals WHERE expires_at < ?`,
		now.Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("purge expired approvals: %w", err)
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO approvals (job_id, stage, decision, decided_at, expires_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (job_id, stage) DO UPDATE SET
             decision = excluded.decision,
             decided_at = excluded.decided_at,
             expires_at = excluded.expires_at`,
		jobID,
		stage,
		decision,
		now.Format(time.RFC3339Nano),
		now.Add(s.ttl).Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put approval: %w", err)
	}
	return nil
}

// Get returns the current decision for a job stage. Expired decisions are
// reported as absent.
func (s *Store) Get(ctx context.Context, jobID int64, stage Stage) (Decision, bool, error) {
	var (
		decisionStr string
		expiresRaw  string
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT decision, expires_at FROM approvals WHERE job_id = ? AND stage = ?`,
		jobID,
		stage,
	).Scan(&decisionStr, &expiresRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get approval: %w", err)
	}
	expires, err := time.Parse(time.RFC3339Nano, expiresRaw)
	if err != nil {
		return "", false, fmt.Errorf("parse approval expiry: %w", err)
	}
	if !time.Now().UTC().Before(expires) {
		return "", false, nil
	}
	return Decision(decisionStr), true, nil
}

// Clear removes any recorded decision for a job stage.
func (s *Store) Clear(ctx context.Context, jobID int64, stage Stage) error {
	_, err := s.db.ExecContext(
		ctx,
		`DELETE FROM approvals WHERE job_id = ? AND stage = ?`,
		jobID,
		stage,
	)
	if err != nil {
		return fmt.Errorf("clear approval: %w", err)
	}
	return nil
}
