// Package report prints verdicts as they are produced.
package report

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/roach88/verdict/internal/harness"
)

// Reporter prints per-test verdicts and a final summary.
type Reporter interface {
	Verdict(v harness.Verdict) error
	Summary(s *harness.Summary) error
}

// Observer adapts a Reporter so a harness calls it for every verdict.
func Observer(r Reporter) harness.Observer {
	return harness.ObserverFunc(func(_ context.Context, v harness.Verdict) error {
		return r.Verdict(v)
	})
}

// ColorMode controls colored status tags.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode converts a name to a ColorMode. The empty name is ColorAuto.
func ParseColorMode(name string) (ColorMode, bool) {
	switch ColorMode(name) {
	case "", ColorAuto:
		return ColorAuto, true
	case ColorAlways, ColorNever:
		return ColorMode(name), true
	}
	return "", false
}

// useColor resolves the mode for a writer. Auto colors only terminals.
func useColor(mode ColorMode, w any) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
