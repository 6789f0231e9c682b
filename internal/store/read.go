package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/roach88/verdict/internal/harness"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// RunSummary is a run with its verdict counts.
type RunSummary struct {
	Run
	OK    int `json:"ok"`
	Fail  int `json:"fail"`
	Skip  int `json:"skip"`
	Error int `json:"error"`
}

// Total returns the number of verdicts in the run.
func (r RunSummary) Total() int {
	return r.OK + r.Fail + r.Skip + r.Error
}

// VerdictRecord is a stored verdict.
type VerdictRecord struct {
	Seq      int            `json:"seq"`
	Path     string         `json:"path"`
	Digest   string         `json:"digest"`
	Status   harness.Status `json:"status"`
	Reason   harness.Reason `json:"reason,omitempty"`
	Detail   string         `json:"detail,omitempty"`
	ExitCode *int           `json:"exit_code,omitempty"`
	Elapsed  time.Duration  `json:"elapsed_ns"`
	Stdout   string         `json:"stdout,omitempty"`
	Stderr   string         `json:"stderr,omitempty"`
}

// Change is a per-file difference between two runs.
// An empty status means the file was absent from that run.
type Change struct {
	Path          string         `json:"path"`
	Before        harness.Status `json:"before"`
	After         harness.Status `json:"after"`
	DigestChanged bool           `json:"digest_changed"`
}

const runSummaryQuery = `
	SELECT r.id, r.started_at, r.finished_at, r.subject, r.root, r.policy,
		COALESCE(SUM(v.status = 'ok'), 0),
		COALESCE(SUM(v.status = 'fail'), 0),
		COALESCE(SUM(v.status = 'skip'), 0),
		COALESCE(SUM(v.status = 'error'), 0)
	FROM runs r
	LEFT JOIN verdicts v ON v.run_id = r.id
`

// ListRuns returns the most recent runs first. A limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := runSummaryQuery + `
		GROUP BY r.id
		ORDER BY r.started_at DESC, r.id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		r, err := scanRunSummary(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run with its counts.
func (s *Store) GetRun(ctx context.Context, runID string) (RunSummary, error) {
	row := s.db.QueryRowContext(ctx, runSummaryQuery+`
		WHERE r.id = ?
		GROUP BY r.id
	`, runID)
	r, err := scanRunSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunSummary{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return r, err
}

// RunVerdicts returns a run's verdicts in processing order.
func (s *Store) RunVerdicts(ctx context.Context, runID string) ([]VerdictRecord, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, path, digest, status, reason, detail, exit_code, elapsed_ns, stdout, stderr
		FROM verdicts
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	records := []VerdictRecord{}
	for rows.Next() {
		var (
			rec      VerdictRecord
			status   string
			reason   string
			exitCode sql.NullInt64
			elapsed  int64
		)
		if err := rows.Scan(&rec.Seq, &rec.Path, &rec.Digest, &status, &reason, &rec.Detail,
			&exitCode, &elapsed, &rec.Stdout, &rec.Stderr); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		rec.Status = harness.Status(status)
		rec.Reason = harness.Reason(reason)
		rec.Elapsed = time.Duration(elapsed)
		if exitCode.Valid {
			code := int(exitCode.Int64)
			rec.ExitCode = &code
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdicts: %w", err)
	}
	return records, nil
}

// CompareRuns returns the files whose status differs between two runs,
// sorted by path. Elapsed time and captured output are ignored.
func (s *Store) CompareRuns(ctx context.Context, before, after string) ([]Change, error) {
	a, err := s.RunVerdicts(ctx, before)
	if err != nil {
		return nil, err
	}
	b, err := s.RunVerdicts(ctx, after)
	if err != nil {
		return nil, err
	}

	byPath := make(map[string]*Change)
	digests := make(map[string]string)
	for _, rec := range a {
		byPath[rec.Path] = &Change{Path: rec.Path, Before: rec.Status}
		digests[rec.Path] = rec.Digest
	}
	for _, rec := range b {
		c, ok := byPath[rec.Path]
		if !ok {
			c = &Change{Path: rec.Path}
			byPath[rec.Path] = c
		} else if digests[rec.Path] != rec.Digest {
			c.DigestChanged = true
		}
		c.After = rec.Status
	}

	changes := []Change{}
	for _, c := range byPath {
		if c.Before != c.After {
			changes = append(changes, *c)
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunSummary(row rowScanner) (RunSummary, error) {
	var (
		r        RunSummary
		started  int64
		finished sql.NullInt64
	)
	if err := row.Scan(&r.ID, &started, &finished, &r.Subject, &r.Root, &r.Policy,
		&r.OK, &r.Fail, &r.Skip, &r.Error); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunSummary{}, err
		}
		return RunSummary{}, fmt.Errorf("scan run: %w", err)
	}
	r.StartedAt = time.Unix(0, started).UTC()
	if finished.Valid {
		r.FinishedAt = time.Unix(0, finished.Int64).UTC()
	}
	return r, nil
}
