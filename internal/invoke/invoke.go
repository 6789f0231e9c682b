// Package invoke runs the subject program against a single test file.
package invoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"time"

	"code.cloudfoundry.org/clock"
	"golang.org/x/text/encoding"

	"github.com/roach88/verdict/internal/directive"
)

// waitDelay caps how long Invoke waits for output pipes once the subject has
// exited or been killed.
const waitDelay = 2 * time.Second

// ErrSpawn marks failures to start the subject process.
var ErrSpawn = errors.New("spawn subject")

// Outcome is the captured result of one subject invocation.
type Outcome struct {
	Args     []string      `json:"args"`
	ExitCode int           `json:"exit_code"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	TimedOut bool          `json:"timed_out,omitempty"`
}

// Invoker runs the subject program for a test file.
//
// An error means the subject could not be run at all. A subject that runs
// and exits nonzero is reported through Outcome.ExitCode with a nil error.
type Invoker interface {
	Invoke(ctx context.Context, path string, spec directive.Spec) (Outcome, error)
}

// ArgMap maps a directive key to the extra arguments passed to the subject
// when the test declares that key.
type ArgMap map[string][]string

// DefaultArgMap asks the subject to print the inferred type when a test
// declares ExpectedType.
func DefaultArgMap() ArgMap {
	return ArgMap{directive.KeyExpectedType: {"--print-type"}}
}

// Args builds the argument vector for path: the path first, then the mapped
// arguments of every declared key in sorted key order.
func (m ArgMap) Args(path string, spec directive.Spec) []string {
	args := []string{path}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if spec.Has(k) {
			args = append(args, m[k]...)
		}
	}
	return args
}

// Subject invokes an external executable.
type Subject struct {
	// Executable is the path to the subject program.
	Executable string

	// Dir is the working directory (empty = current dir).
	Dir string

	// ArgMap supplies directive-driven extra arguments.
	ArgMap ArgMap

	// Timeout kills the subject after this long. Zero waits forever.
	Timeout time.Duration

	clock   clock.Clock
	decoder encoding.Encoding
}

// Option configures a Subject.
type Option func(*Subject)

// WithClock overrides the clock used to measure elapsed time.
func WithClock(c clock.Clock) Option {
	return func(s *Subject) { s.clock = c }
}

// WithTimeout sets the per-invocation timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Subject) { s.Timeout = d }
}

// WithArgMap replaces the default argument mapping.
func WithArgMap(m ArgMap) Option {
	return func(s *Subject) { s.ArgMap = m }
}

// WithDir sets the working directory of the subject.
func WithDir(dir string) Option {
	return func(s *Subject) { s.Dir = dir }
}

// NewSubject creates a Subject that decodes output with the named encoding.
// Returns an error if the encoding name is not recognized.
func NewSubject(executable, encodingName string, opts ...Option) (*Subject, error) {
	enc, err := LookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	s := &Subject{
		Executable: executable,
		ArgMap:     DefaultArgMap(),
		clock:      clock.NewClock(),
		decoder:    enc,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Invoke runs the subject against path and captures its output.
func (s *Subject) Invoke(ctx context.Context, path string, spec directive.Spec) (Outcome, error) {
	args := s.ArgMap.Args(path, spec)

	runCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, s.Executable, args...)
	if s.Dir != "" {
		cmd.Dir = s.Dir
	}
	if s.Timeout > 0 {
		// Grandchildren may keep the output pipes open after the subject
		// exits or is killed. Waiting for them is bounded by the timeout.
		cmd.WaitDelay = min(waitDelay, s.Timeout)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := s.clock.Now()
	err := cmd.Run()
	elapsed := s.clock.Since(start)

	outcome := Outcome{
		Args:    args,
		Elapsed: elapsed,
	}

	if errors.Is(err, exec.ErrWaitDelay) {
		err = nil
		outcome.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Outcome{}, fmt.Errorf("%w %s: %v", ErrSpawn, s.Executable, err)
		}
		outcome.ExitCode = exitErr.ExitCode()
		if s.Timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			outcome.TimedOut = true
		}
	}

	if outcome.Stdout, err = decode(s.decoder, stdout.Bytes()); err != nil {
		return Outcome{}, fmt.Errorf("decode stdout: %w", err)
	}
	if outcome.Stderr, err = decode(s.decoder, stderr.Bytes()); err != nil {
		return Outcome{}, fmt.Errorf("decode stderr: %w", err)
	}

	return outcome, nil
}
