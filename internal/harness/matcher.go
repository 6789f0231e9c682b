package harness

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/verdict/internal/directive"
	"github.com/roach88/verdict/internal/invoke"
)

// Policy selects how stdout and stderr expectations combine.
type Policy string

const (
	// PolicyFinal checks every declared expectation independently.
	PolicyFinal Policy = "final"

	// PolicyLegacy checks only one of Expected, ExpectedType or
	// ExpectedError, in that priority.
	PolicyLegacy Policy = "legacy"
)

// ValidPolicies lists the accepted policy names.
var ValidPolicies = []Policy{PolicyFinal, PolicyLegacy}

// ParsePolicy converts a name to a Policy. The empty name is PolicyFinal.
func ParsePolicy(name string) (Policy, error) {
	if name == "" {
		return PolicyFinal, nil
	}
	for _, p := range ValidPolicies {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid policy %q: must be one of %v", name, ValidPolicies)
}

// check is one expectation. It returns a non-empty reason on mismatch.
type check func(spec directive.Spec, out *invoke.Outcome) (Reason, string)

// Matcher turns a directive spec and an invocation outcome into a verdict.
// It never runs the subject itself.
type Matcher struct {
	Policy Policy
}

// Skip returns a skip verdict if the directives disable the test.
func (m Matcher) Skip(path string, spec directive.Spec) (Verdict, bool) {
	skip, why := spec.Skip()
	if !skip {
		return Verdict{}, false
	}
	reason := ReasonDisabled
	if why == directive.SkipNotEnabled {
		reason = ReasonNotEnabled
	}
	return Verdict{Path: path, Status: StatusSkip, Reason: reason}, true
}

// Judge evaluates the checks in order and stops at the first mismatch.
func (m Matcher) Judge(path string, spec directive.Spec, out invoke.Outcome) Verdict {
	if v, ok := m.Skip(path, spec); ok {
		return v
	}

	checks := finalChecks
	if m.Policy == PolicyLegacy {
		checks = legacyChecks
	}

	v := Verdict{Path: path, Status: StatusOK, Outcome: &out}
	for _, c := range checks {
		if reason, detail := c(spec, &out); reason != ReasonNone {
			v.Status = StatusFail
			v.Reason = reason
			v.Detail = detail
			break
		}
	}
	return v
}

var finalChecks = []check{
	checkTimeout,
	checkExitCode,
	checkExpectedType,
	checkExpected,
	checkExpectedError,
}

var legacyChecks = []check{
	checkTimeout,
	checkExitCode,
	checkLegacyOutput,
}

func checkTimeout(_ directive.Spec, out *invoke.Outcome) (Reason, string) {
	if !out.TimedOut {
		return ReasonNone, ""
	}
	return ReasonTimeout, fmt.Sprintf("subject timed out after %s", out.Elapsed.Round(time.Millisecond))
}

func checkExitCode(spec directive.Spec, out *invoke.Outcome) (Reason, string) {
	if out.ExitCode == 0 || spec.ExpectsFailure() {
		return ReasonNone, ""
	}
	return ReasonExitCode, fmt.Sprintf("subject returned exit code %d", out.ExitCode)
}

func checkExpectedType(spec directive.Spec, out *invoke.Outcome) (Reason, string) {
	want, ok := spec.Lookup(directive.KeyExpectedType)
	if !ok {
		return ReasonNone, ""
	}
	if got := strings.TrimSpace(out.Stdout); got != want {
		return ReasonExpectedType, fmt.Sprintf("Expected type %q got %q", want, got)
	}
	return ReasonNone, ""
}

func checkExpected(spec directive.Spec, out *invoke.Outcome) (Reason, string) {
	want, ok := spec.Lookup(directive.KeyExpected)
	if !ok {
		return ReasonNone, ""
	}
	if got := strings.TrimSpace(out.Stdout); got != want {
		return ReasonExpected, fmt.Sprintf("Expected %q got %q", want, got)
	}
	return ReasonNone, ""
}

func checkExpectedError(spec directive.Spec, out *invoke.Outcome) (Reason, string) {
	want, ok := spec.Lookup(directive.KeyExpectedError)
	if !ok {
		return ReasonNone, ""
	}
	if !strings.Contains(out.Stderr, want) {
		return ReasonExpectedError, fmt.Sprintf("Expected error '%s' to be reported", want)
	}
	return ReasonNone, ""
}

// checkLegacyOutput examines exactly one stdout or stderr expectation.
// A test that declares none of them passes.
func checkLegacyOutput(spec directive.Spec, out *invoke.Outcome) (Reason, string) {
	switch {
	case spec.Has(directive.KeyExpected):
		return checkExpected(spec, out)
	case spec.Has(directive.KeyExpectedType):
		return checkExpectedType(spec, out)
	default:
		return checkExpectedError(spec, out)
	}
}
