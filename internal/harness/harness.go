package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/verdict/internal/directive"
	"github.com/roach88/verdict/internal/invoke"
)

// Observer receives each verdict as soon as it is produced.
type Observer interface {
	Observe(ctx context.Context, v Verdict) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, v Verdict) error

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, v Verdict) error {
	return f(ctx, v)
}

// Harness runs test files one at a time against an Invoker.
type Harness struct {
	invoker   invoke.Invoker
	matcher   Matcher
	observers []Observer
	logger    *slog.Logger
	readSpec  func(path string) (directive.Spec, error)
}

// Option configures a Harness.
type Option func(*Harness)

// WithPolicy selects the matching policy.
func WithPolicy(p Policy) Option {
	return func(h *Harness) { h.matcher.Policy = p }
}

// WithObserver adds an observer. Observers are called in the order added.
func WithObserver(o Observer) Option {
	return func(h *Harness) { h.observers = append(h.observers, o) }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// New creates a Harness that runs tests through inv.
func New(inv invoke.Invoker, opts ...Option) *Harness {
	h := &Harness{
		invoker:  inv,
		matcher:  Matcher{Policy: PolicyFinal},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		readSpec: directive.Read,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RunFile produces the verdict for a single test file.
//
// Faults reading the file or starting the subject become StatusError
// verdicts rather than errors, so one bad file never stops a run.
func (h *Harness) RunFile(ctx context.Context, path string) Verdict {
	spec, err := h.readSpec(path)
	if err != nil {
		h.logger.Warn("cannot read directives", "path", path, "error", err)
		return Verdict{
			Path:   path,
			Status: StatusError,
			Reason: ReasonReadSpec,
			Detail: err.Error(),
		}
	}

	if v, skipped := h.matcher.Skip(path, spec); skipped {
		h.logger.Debug("test skipped", "path", path, "reason", v.Reason)
		return v
	}

	out, err := h.invoker.Invoke(ctx, path, spec)
	if err != nil {
		h.logger.Warn("cannot run subject", "path", path, "error", err)
		return Verdict{
			Path:   path,
			Status: StatusError,
			Reason: ReasonSpawn,
			Detail: err.Error(),
		}
	}

	v := h.matcher.Judge(path, spec, out)
	h.logger.Debug("test judged",
		"path", path,
		"status", v.Status,
		"reason", v.Reason,
		"exit_code", out.ExitCode,
		"elapsed", out.Elapsed,
	)
	return v
}

// Run processes paths sequentially and returns the summary.
//
// A cancelled context stops the run before the next file; the partial
// summary is returned with the context error. An observer error also stops
// the run.
func (h *Harness) Run(ctx context.Context, paths []string) (*Summary, error) {
	summary := NewSummary()
	h.logger.Info("run started", "tests", len(paths), "policy", h.matcher.Policy)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		v := h.RunFile(ctx, path)
		summary.Add(v)

		for _, o := range h.observers {
			if err := o.Observe(ctx, v); err != nil {
				return summary, fmt.Errorf("observe %s: %w", path, err)
			}
		}
	}

	h.logger.Info("run finished",
		"ok", summary.OK,
		"fail", summary.Fail,
		"skip", summary.Skip,
		"error", summary.Error,
	)
	return summary, nil
}
