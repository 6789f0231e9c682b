package harness

import (
	"time"

	"github.com/roach88/verdict/internal/invoke"
)

// Status is the terminal classification of one test file.
type Status string

// Verdict statuses.
const (
	StatusOK    Status = "ok"
	StatusFail  Status = "fail"
	StatusSkip  Status = "skip"
	StatusError Status = "error"
)

// Reason identifies which check produced a non-ok verdict.
type Reason string

// Verdict reasons.
const (
	ReasonNone          Reason = ""
	ReasonTimeout       Reason = "timeout"
	ReasonExitCode      Reason = "exit-code"
	ReasonExpectedType  Reason = "expected-type"
	ReasonExpected      Reason = "expected"
	ReasonExpectedError Reason = "expected-error"
	ReasonDisabled      Reason = "disabled"
	ReasonNotEnabled    Reason = "not-enabled"
	ReasonReadSpec      Reason = "read-spec"
	ReasonSpawn         Reason = "spawn"
)

// Verdict is the outcome of judging one test file.
type Verdict struct {
	Path   string `json:"path"`
	Status Status `json:"status"`
	Reason Reason `json:"reason,omitempty"`

	// Detail describes the first mismatch or fault.
	Detail string `json:"detail,omitempty"`

	// Outcome is nil when the subject was never run.
	Outcome *invoke.Outcome `json:"outcome,omitempty"`
}

// Elapsed returns the subject's run time, or zero if it never ran.
func (v Verdict) Elapsed() time.Duration {
	if v.Outcome == nil {
		return 0
	}
	return v.Outcome.Elapsed
}

// Summary aggregates the verdicts of a run in processing order.
type Summary struct {
	Verdicts []Verdict `json:"verdicts"`
	OK       int       `json:"ok"`
	Fail     int       `json:"fail"`
	Skip     int       `json:"skip"`
	Error    int       `json:"error"`
}

// NewSummary creates an empty summary.
func NewSummary() *Summary {
	return &Summary{Verdicts: []Verdict{}}
}

// Add records a verdict.
func (s *Summary) Add(v Verdict) {
	s.Verdicts = append(s.Verdicts, v)
	switch v.Status {
	case StatusOK:
		s.OK++
	case StatusFail:
		s.Fail++
	case StatusSkip:
		s.Skip++
	case StatusError:
		s.Error++
	}
}

// Total returns the number of verdicts recorded.
func (s *Summary) Total() int {
	return len(s.Verdicts)
}

// Failed returns the number of fail and error verdicts.
func (s *Summary) Failed() int {
	return s.Fail + s.Error
}
