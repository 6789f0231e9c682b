package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/roach88/verdict/internal/harness"
)

// statusColors: green ok, red fail, yellow skip, magenta error.
type statusColors map[harness.Status]*color.Color

func newStatusColors(enabled bool) statusColors {
	c := statusColors{
		harness.StatusOK:    color.New(color.FgGreen),
		harness.StatusFail:  color.New(color.FgRed, color.Bold),
		harness.StatusSkip:  color.New(color.FgYellow),
		harness.StatusError: color.New(color.FgMagenta, color.Bold),
	}
	for _, col := range c {
		if enabled {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}
	return c
}

// Text writes the console report:
//
//	[ok  ] tests/int.millie (12.3ms)
//	[fail] tests/bool.millie (5.0ms)
//	  Expected type "Int" got "Bool"
//	  stdout:
//	    Bool
//	  stderr:
type Text struct {
	w      io.Writer
	colors statusColors
}

// NewText creates a text reporter writing to w.
func NewText(w io.Writer, mode ColorMode) *Text {
	return &Text{w: w, colors: newStatusColors(useColor(mode, w))}
}

// Verdict prints one result line, plus detail and captured output for
// fail and error verdicts.
func (t *Text) Verdict(v harness.Verdict) error {
	tag := fmt.Sprintf("%-4s", v.Status)
	if c, ok := t.colors[v.Status]; ok {
		tag = c.Sprint(tag)
	}
	if _, err := fmt.Fprintf(t.w, "[%s] %s (%sms)\n", tag, v.Path, FormatMillis(v.Elapsed())); err != nil {
		return err
	}

	if v.Status != harness.StatusFail && v.Status != harness.StatusError {
		return nil
	}

	var b strings.Builder
	if v.Detail != "" {
		b.WriteString("  " + v.Detail + "\n")
	}
	if v.Outcome != nil {
		b.WriteString("  stdout:\n")
		b.WriteString(indent(v.Outcome.Stdout, "    ") + "\n")
		b.WriteString("  stderr:\n")
		b.WriteString(indent(v.Outcome.Stderr, "    ") + "\n")
	}
	_, err := io.WriteString(t.w, b.String())
	return err
}

// Summary prints the aggregate counts.
func (t *Text) Summary(s *harness.Summary) error {
	_, err := fmt.Fprintf(t.w, "\nSummary: %d ok, %d fail, %d skip, %d error (%d total)\n",
		s.OK, s.Fail, s.Skip, s.Error, s.Total())
	return err
}

// FormatMillis renders d in milliseconds with three significant digits.
// Values from 100ms up, and below 0.0001ms, use exponent form with
// trailing zeros dropped ("1.23e+02", "1e+03"). Fixed notation always keeps
// a decimal point: 0 is "0.0" and 12.34ms is "12.3".
func FormatMillis(d time.Duration) string {
	ms := float64(d) / float64(time.Millisecond)

	sci := strconv.FormatFloat(ms, 'e', 2, 64)
	mant, exp, _ := strings.Cut(sci, "e")
	if e, err := strconv.Atoi(exp); err == nil && (e < -4 || e >= 2) {
		mant = strings.TrimSuffix(strings.TrimRight(mant, "0"), ".")
		return mant + "e" + exp
	}

	s := strconv.FormatFloat(ms, 'g', 3, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// indent prefixes every line of s, preserving empty lines.
func indent(s, prefix string) string {
	return prefix + strings.Join(strings.Split(s, "\n"), "\n"+prefix)
}
