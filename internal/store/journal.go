package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// Run statuses.
const (
	RunOK     = "ok"
	RunFailed = "failed"
	RunDry    = "dry-run"
)

// Transition kinds.
const (
	KindOpened   = "opened"
	KindReopened = "reopened"
	KindClosed   = "closed"
)

// Run is one journal entry.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Observed   int
	Opened     int
	Reopened   int
	Closed     int
	Suppressed int
	Failures   int // failed (source, term) fetches
	Status     string
	Error      string
}

// Transition is a status change a run applied to one posting.
type Transition struct {
	RunID      string
	Identifier string
	Kind       string
	OnDate     civil.Date
	Source     string
	Title      string
}

func NewRunID() string { return uuid.NewString() }

// RecordRun writes the run and its transitions in one transaction. An empty
// run ID is filled in.
func (d *DB) RecordRun(ctx context.Context, run Run, transitions []Transition) (string, error) {
	if run.ID == "" {
		run.ID = NewRunID()
	}

	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (id, started_at, finished_at, observed, opened, reopened, closed, suppressed, failures, status, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
		run.Observed, run.Opened, run.Reopened, run.Closed, run.Suppressed, run.Failures,
		run.Status, run.Error,
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	if len(transitions) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO transitions (run_id, identifier, kind, on_date, source, title)
VALUES (?, ?, ?, ?, ?, ?);`)
		if err != nil {
			return "", fmt.Errorf("prepare transition: %w", err)
		}
		defer stmt.Close()

		for _, t := range transitions {
			if _, err := stmt.ExecContext(ctx, run.ID, t.Identifier, t.Kind, t.OnDate.String(), t.Source, t.Title); err != nil {
				return "", fmt.Errorf("insert transition %s: %w", t.Identifier, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return run.ID, nil
}

// ListRuns returns the most recent runs first.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 || limit > 1000 {
		limit = 20
	}
	rows, err := d.Pool.QueryContext(ctx, `
SELECT id, started_at, finished_at, observed, opened, reopened, closed, suppressed, failures, status, error
FROM runs
ORDER BY started_at DESC, rowid DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished,
			&r.Observed, &r.Opened, &r.Reopened, &r.Closed, &r.Suppressed, &r.Failures,
			&r.Status, &r.Error); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListTransitions returns the lifecycle of one posting, oldest first.
func (d *DB) ListTransitions(ctx context.Context, identifier string) ([]Transition, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT run_id, identifier, kind, on_date, source, title
FROM transitions
WHERE identifier = ?
ORDER BY id ASC;`, identifier)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var t Transition
		var day string
		if err := rows.Scan(&t.RunID, &t.Identifier, &t.Kind, &day, &t.Source, &t.Title); err != nil {
			return nil, err
		}
		t.OnDate, _ = civil.ParseDate(day)
		out = append(out, t)
	}
	return out, rows.Err()
}

// CleanupOldRuns deletes runs (and their transitions) started before cutoff.
func (d *DB) CleanupOldRuns(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := d.Pool.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?;`,
		cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("cleanup old runs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
