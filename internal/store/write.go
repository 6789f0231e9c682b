package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/verdict/internal/harness"
)

// Run describes one harness run.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"` // zero while the run is in progress
	Subject    string    `json:"subject"`
	Root       string    `json:"root"`
	Policy     string    `json:"policy"`
}

// BeginRun inserts a run record.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, subject, root, policy)
		VALUES (?, ?, ?, ?, ?)
	`,
		run.ID,
		run.StartedAt.UnixNano(),
		run.Subject,
		run.Root,
		run.Policy,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun stamps the run's finish time.
func (s *Store) FinishRun(ctx context.Context, runID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ? WHERE id = ?
	`, at.UnixNano(), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: %w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// WriteVerdict inserts the verdict with processing order seq.
// Digest identifies the test file contents; it may be empty.
func (s *Store) WriteVerdict(ctx context.Context, runID string, seq int, v harness.Verdict, digest string) error {
	var (
		exitCode sql.NullInt64
		elapsed  int64
		stdout   string
		stderr   string
	)
	if v.Outcome != nil {
		exitCode = sql.NullInt64{Int64: int64(v.Outcome.ExitCode), Valid: true}
		elapsed = int64(v.Outcome.Elapsed)
		stdout = v.Outcome.Stdout
		stderr = v.Outcome.Stderr
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verdicts
		(run_id, seq, path, digest, status, reason, detail, exit_code, elapsed_ns, stdout, stderr)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		seq,
		v.Path,
		digest,
		string(v.Status),
		string(v.Reason),
		v.Detail,
		exitCode,
		elapsed,
		stdout,
		stderr,
	)
	if err != nil {
		return fmt.Errorf("write verdict: %w", err)
	}
	return nil
}
