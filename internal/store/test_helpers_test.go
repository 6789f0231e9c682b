package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/verdict/internal/harness"
	"github.com/roach88/verdict/internal/invoke"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun inserts a run with a fixed start time offset by minutes.
func createTestRun(t *testing.T, s *Store, id string, minutes int) Run {
	t.Helper()
	run := Run{
		ID:        id,
		StartedAt: time.Date(2026, 1, 1, 12, minutes, 0, 0, time.UTC),
		Subject:   "./millie",
		Root:      "./tests",
		Policy:    "final",
	}
	if err := s.BeginRun(context.Background(), run); err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
	return run
}

// ranVerdict builds a verdict with a captured outcome.
func ranVerdict(path string, status harness.Status, exitCode int) harness.Verdict {
	return harness.Verdict{
		Path:   path,
		Status: status,
		Outcome: &invoke.Outcome{
			ExitCode: exitCode,
			Elapsed:  3 * time.Millisecond,
			Stdout:   "Int\n",
			Stderr:   "",
		},
	}
}
