package harness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/verdict/internal/directive"
	"github.com/roach88/verdict/internal/invoke"
)

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyFinal, p)

	p, err = ParsePolicy("legacy")
	require.NoError(t, err)
	assert.Equal(t, PolicyLegacy, p)

	_, err = ParsePolicy("strict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid policy")
}

func TestJudge_NoDirectivesZeroExitIsOK(t *testing.T) {
	v := Matcher{}.Judge("t.millie", directive.Spec{}, invoke.Outcome{Stdout: "anything"})
	assert.Equal(t, StatusOK, v.Status)
	assert.Empty(t, v.Detail)
	require.NotNil(t, v.Outcome)
	assert.Equal(t, "anything", v.Outcome.Stdout)
}

func TestJudge_SkipDirectives(t *testing.T) {
	testCases := []struct {
		name   string
		spec   directive.Spec
		reason Reason
	}{
		{"disabled", directive.Spec{directive.KeyDisabled: "true"}, ReasonDisabled},
		{"disabled upper", directive.Spec{directive.KeyDisabled: "TRUE"}, ReasonDisabled},
		{"disabled yes", directive.Spec{directive.KeyDisabled: "Yes"}, ReasonDisabled},
		{"not enabled", directive.Spec{directive.KeyEnabled: "false"}, ReasonNotEnabled},
		{"not enabled zero", directive.Spec{directive.KeyEnabled: "0"}, ReasonNotEnabled},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := Matcher{}.Judge("t.millie", tc.spec, invoke.Outcome{ExitCode: 1})
			assert.Equal(t, StatusSkip, v.Status)
			assert.Equal(t, tc.reason, v.Reason)
			assert.Nil(t, v.Outcome)
			assert.Equal(t, time.Duration(0), v.Elapsed())
		})
	}
}

func TestJudge_ExitCode(t *testing.T) {
	v := Matcher{}.Judge("t.millie", directive.Spec{}, invoke.Outcome{ExitCode: 2})
	assert.Equal(t, StatusFail, v.Status)
	assert.Equal(t, ReasonExitCode, v.Reason)
	assert.Equal(t, "subject returned exit code 2", v.Detail)
}

func TestJudge_ExpectFailureToleratesExitCode(t *testing.T) {
	spec := directive.Spec{directive.KeyExpectFailure: ""}
	v := Matcher{}.Judge("t.millie", spec, invoke.Outcome{ExitCode: 1})
	assert.Equal(t, StatusOK, v.Status)
}

func TestJudge_ExpectFailureStillChecksError(t *testing.T) {
	spec := directive.Spec{
		directive.KeyExpectFailure: "",
		directive.KeyExpectedError: "undefined variable",
	}

	v := Matcher{}.Judge("t.millie", spec, invoke.Outcome{ExitCode: 1, Stderr: "error: undefined variable x\n"})
	assert.Equal(t, StatusOK, v.Status)

	v = Matcher{}.Judge("t.millie", spec, invoke.Outcome{ExitCode: 1, Stderr: "error: parse error\n"})
	assert.Equal(t, StatusFail, v.Status)
	assert.Equal(t, ReasonExpectedError, v.Reason)
}

func TestJudge_ExpectedTypeRoundTrip(t *testing.T) {
	spec := directive.Spec{directive.KeyExpectedType: "Int"}

	v := Matcher{}.Judge("t.millie", spec, invoke.Outcome{Stdout: "Int\n"})
	assert.Equal(t, StatusOK, v.Status)

	v = Matcher{}.Judge("t.millie", spec, invoke.Outcome{Stdout: "Bool\n"})
	assert.Equal(t, StatusFail, v.Status)
	assert.Equal(t, ReasonExpectedType, v.Reason)
	assert.Equal(t, `Expected type "Int" got "Bool"`, v.Detail)
}

func TestJudge_ExpectedExact(t *testing.T) {
	spec := directive.Spec{directive.KeyExpected: "42"}

	v := Matcher{}.Judge("t.millie", spec, invoke.Outcome{Stdout: "  42\n\n"})
	assert.Equal(t, StatusOK, v.Status)

	// Exact, not substring.
	v = Matcher{}.Judge("t.millie", spec, invoke.Outcome{Stdout: "420\n"})
	assert.Equal(t, StatusFail, v.Status)
	assert.Equal(t, ReasonExpected, v.Reason)
	assert.Equal(t, `Expected "42" got "420"`, v.Detail)
}

func TestJudge_DetailQuotesOutput(t *testing.T) {
	// Multi-line output stays on one detail line, with escapes.
	spec := directive.Spec{directive.KeyExpected: "a"}

	v := Matcher{}.Judge("t.millie", spec, invoke.Outcome{Stdout: "a\nb\n"})
	assert.Equal(t, StatusFail, v.Status)
	assert.Equal(t, `Expected "a" got "a\nb"`, v.Detail)
}

func TestJudge_SubstringLaw(t *testing.T) {
	spec := directive.Spec{directive.KeyExpectedError: "divide by zero"}

	v := Matcher{}.Judge("t.millie", spec, invoke.Outcome{Stderr: "error: divide by zero at line 3"})
	assert.Equal(t, StatusOK, v.Status)

	v = Matcher{}.Judge("t.millie", spec, invoke.Outcome{Stderr: "error: type mismatch"})
	assert.Equal(t, StatusFail, v.Status)
	assert.Equal(t, ReasonExpectedError, v.Reason)
	assert.Contains(t, v.Detail, "divide by zero")
}

func TestJudge_FirstMismatchOnly(t *testing.T) {
	spec := directive.Spec{
		directive.KeyExpectedType:  "Int",
		directive.KeyExpected:      "3",
		directive.KeyExpectedError: "boom",
	}

	testCases := []struct {
		name   string
		out    invoke.Outcome
		reason Reason
	}{
		{"exit code first", invoke.Outcome{ExitCode: 1, Stdout: "Bool", Stderr: ""}, ReasonExitCode},
		{"type before expected", invoke.Outcome{Stdout: "Bool"}, ReasonExpectedType},
		{"expected before error", invoke.Outcome{Stdout: "Int", Stderr: "fine"}, ReasonExpected},
		{"timeout beats everything", invoke.Outcome{ExitCode: -1, TimedOut: true}, ReasonTimeout},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := Matcher{}.Judge("t.millie", spec, tc.out)
			assert.Equal(t, StatusFail, v.Status)
			assert.Equal(t, tc.reason, v.Reason)
		})
	}
}

func TestJudge_StdoutMismatchHidesErrorMismatch(t *testing.T) {
	spec := directive.Spec{
		directive.KeyExpectedType:  "Int",
		directive.KeyExpectedError: "boom",
	}

	v := Matcher{}.Judge("t.millie", spec, invoke.Outcome{Stdout: "Bool", Stderr: ""})
	assert.Equal(t, ReasonExpectedType, v.Reason)
	assert.NotContains(t, v.Detail, "boom")
}

func TestJudge_FinalChecksEveryDirective(t *testing.T) {
	spec := directive.Spec{
		directive.KeyExpectedType:  "Int",
		directive.KeyExpectedError: "warning",
	}

	// Stdout matches, so the error expectation is still examined.
	v := Matcher{Policy: PolicyFinal}.Judge("t.millie", spec, invoke.Outcome{Stdout: "Int"})
	assert.Equal(t, StatusFail, v.Status)
	assert.Equal(t, ReasonExpectedError, v.Reason)
}

func TestJudge_LegacyChecksOneDirective(t *testing.T) {
	m := Matcher{Policy: PolicyLegacy}

	// ExpectedType matches, ExpectedError is never looked at.
	spec := directive.Spec{
		directive.KeyExpectedType:  "Int",
		directive.KeyExpectedError: "warning",
	}
	v := m.Judge("t.millie", spec, invoke.Outcome{Stdout: "Int"})
	assert.Equal(t, StatusOK, v.Status)

	// Expected has priority over ExpectedType.
	spec = directive.Spec{
		directive.KeyExpected:     "1",
		directive.KeyExpectedType: "Int",
	}
	v = m.Judge("t.millie", spec, invoke.Outcome{Stdout: "1"})
	assert.Equal(t, StatusOK, v.Status)

	// With no stdout directive, ExpectedError is checked.
	spec = directive.Spec{directive.KeyExpectedError: "boom"}
	v = m.Judge("t.millie", spec, invoke.Outcome{Stderr: "nope"})
	assert.Equal(t, ReasonExpectedError, v.Reason)

	// No directives at all passes.
	v = m.Judge("t.millie", directive.Spec{}, invoke.Outcome{})
	assert.Equal(t, StatusOK, v.Status)
}

func TestJudge_TimeoutDetail(t *testing.T) {
	out := invoke.Outcome{ExitCode: -1, TimedOut: true, Elapsed: 1500 * time.Millisecond}
	v := Matcher{}.Judge("t.millie", directive.Spec{directive.KeyExpectFailure: ""}, out)

	assert.Equal(t, StatusFail, v.Status)
	assert.Equal(t, ReasonTimeout, v.Reason)
	assert.Equal(t, "subject timed out after 1.5s", v.Detail)
}

func TestSummary(t *testing.T) {
	s := NewSummary()
	s.Add(Verdict{Status: StatusOK})
	s.Add(Verdict{Status: StatusFail})
	s.Add(Verdict{Status: StatusSkip})
	s.Add(Verdict{Status: StatusError})
	s.Add(Verdict{Status: StatusOK})

	assert.Equal(t, 5, s.Total())
	assert.Equal(t, 2, s.OK)
	assert.Equal(t, 2, s.Failed())
}
