package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/google/uuid"

	"github.com/roach88/verdict/internal/harness"
)

func TestRecorder_RecordsRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	testFile := filepath.Join(dir, "int.millie")
	if err := os.WriteFile(testFile, []byte("# Expected: Int\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	fc := fakeclock.NewFakeClock(start)

	rec, err := StartRecording(ctx, s, filepath.Join(dir, "history.lock"), Run{
		Subject: "./millie",
		Root:    dir,
		Policy:  "final",
	}, WithRecorderClock(fc))
	if err != nil {
		t.Fatalf("StartRecording() failed: %v", err)
	}

	if _, err := uuid.Parse(rec.RunID()); err != nil {
		t.Errorf("RunID() = %q is not a UUID: %v", rec.RunID(), err)
	}

	verdicts := []harness.Verdict{
		ranVerdict(testFile, harness.StatusOK, 0),
		{Path: filepath.Join(dir, "missing.millie"), Status: harness.StatusError, Reason: harness.ReasonReadSpec},
	}
	for _, v := range verdicts {
		if err := rec.Observe(ctx, v); err != nil {
			t.Fatalf("Observe(%s) failed: %v", v.Path, err)
		}
	}

	fc.Increment(2 * time.Second)
	if err := rec.Finish(ctx); err != nil {
		t.Fatalf("Finish() failed: %v", err)
	}

	run, err := s.GetRun(ctx, rec.RunID())
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}
	if !run.StartedAt.Equal(start) {
		t.Errorf("StartedAt = %v, want %v", run.StartedAt, start)
	}
	if !run.FinishedAt.Equal(start.Add(2 * time.Second)) {
		t.Errorf("FinishedAt = %v, want %v", run.FinishedAt, start.Add(2*time.Second))
	}
	if run.OK != 1 || run.Error != 1 {
		t.Errorf("counts ok=%d error=%d, want 1/1", run.OK, run.Error)
	}

	records, err := s.RunVerdicts(ctx, rec.RunID())
	if err != nil {
		t.Fatalf("RunVerdicts() failed: %v", err)
	}
	wantDigest, err := Digest(testFile)
	if err != nil {
		t.Fatalf("Digest() failed: %v", err)
	}
	if records[0].Seq != 1 || records[0].Digest != wantDigest {
		t.Errorf("first record seq=%d digest=%q, want 1/%q", records[0].Seq, records[0].Digest, wantDigest)
	}
	if records[1].Seq != 2 || records[1].Digest != "" {
		t.Errorf("second record seq=%d digest=%q, want 2 and empty digest", records[1].Seq, records[1].Digest)
	}
}

func TestRecorder_ExplicitID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec, err := StartRecording(ctx, s, filepath.Join(t.TempDir(), "h.lock"), Run{ID: "nightly-1"})
	if err != nil {
		t.Fatalf("StartRecording() failed: %v", err)
	}
	defer rec.Finish(ctx)

	if rec.RunID() != "nightly-1" {
		t.Errorf("RunID() = %q, want nightly-1", rec.RunID())
	}
}

func TestRecorder_Locked(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	lockPath := filepath.Join(t.TempDir(), "h.lock")

	first, err := StartRecording(ctx, s, lockPath, Run{})
	if err != nil {
		t.Fatalf("first StartRecording() failed: %v", err)
	}

	if _, err := StartRecording(ctx, s, lockPath, Run{}); !errors.Is(err, ErrLocked) {
		t.Errorf("second StartRecording() error = %v, want ErrLocked", err)
	}

	if err := first.Finish(ctx); err != nil {
		t.Fatalf("Finish() failed: %v", err)
	}

	again, err := StartRecording(ctx, s, lockPath, Run{})
	if err != nil {
		t.Fatalf("StartRecording() after Finish failed: %v", err)
	}
	again.Finish(ctx)
}

func TestRecorder_ImplementsObserver(t *testing.T) {
	var _ harness.Observer = (*Recorder)(nil)
}

func TestDigest(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	os.WriteFile(a, []byte("1 + 1"), 0o644)
	os.WriteFile(b, []byte("1 + 2"), 0o644)

	da, err := Digest(a)
	if err != nil {
		t.Fatalf("Digest() failed: %v", err)
	}
	if len(da) != 64 {
		t.Errorf("len(digest) = %d, want 64 hex chars", len(da))
	}
	again, _ := Digest(a)
	if again != da {
		t.Error("Digest() is not stable")
	}
	db, _ := Digest(b)
	if db == da {
		t.Error("different contents produced the same digest")
	}

	if _, err := Digest(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}
