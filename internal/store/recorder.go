package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"code.cloudfoundry.org/clock"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/roach88/verdict/internal/harness"
)

// ErrLocked is returned when another process is recording to the database.
var ErrLocked = errors.New("history database is locked by another run")

// Recorder writes each verdict of one run to the store. It implements
// harness.Observer.
type Recorder struct {
	store *Store
	lock  *flock.Flock
	clock clock.Clock
	run   Run
	seq   int
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRecorderClock overrides the clock used for run timestamps.
func WithRecorderClock(c clock.Clock) RecorderOption {
	return func(r *Recorder) { r.clock = c }
}

// NewRunID returns a new time-ordered run ID.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// StartRecording locks lockPath, inserts the run record and returns a
// Recorder. If run.ID is empty a new ID is generated; if run.StartedAt is
// zero it is taken from the clock. Finish must be called to release the lock.
func StartRecording(ctx context.Context, st *Store, lockPath string, run Run, opts ...RecorderOption) (*Recorder, error) {
	r := &Recorder{
		store: st,
		lock:  flock.New(lockPath),
		clock: clock.NewClock(),
	}
	for _, opt := range opts {
		opt(r)
	}

	locked, err := r.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", lockPath, err)
	}
	if !locked {
		return nil, ErrLocked
	}

	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = r.clock.Now()
	}
	if err := st.BeginRun(ctx, run); err != nil {
		_ = r.lock.Unlock()
		return nil, err
	}
	r.run = run
	return r, nil
}

// RunID returns the ID of the run being recorded.
func (r *Recorder) RunID() string {
	return r.run.ID
}

// Observe stores v together with the digest of its test file.
// An unreadable file is stored with an empty digest.
func (r *Recorder) Observe(ctx context.Context, v harness.Verdict) error {
	digest, err := Digest(v.Path)
	if err != nil {
		digest = ""
	}
	r.seq++
	return r.store.WriteVerdict(ctx, r.run.ID, r.seq, v, digest)
}

// Finish stamps the finish time and releases the lock.
func (r *Recorder) Finish(ctx context.Context) error {
	finishErr := r.store.FinishRun(ctx, r.run.ID, r.clock.Now())
	if err := r.lock.Unlock(); err != nil && finishErr == nil {
		return fmt.Errorf("unlock: %w", err)
	}
	return finishErr
}

// Digest returns the hex BLAKE3-256 digest of the file at path.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
