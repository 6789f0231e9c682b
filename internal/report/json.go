package report

import (
	"encoding/json"
	"io"

	"github.com/roach88/verdict/internal/harness"
)

// Event is one line of the JSON report.
type Event struct {
	Type    string           `json:"type"` // "verdict" or "summary"
	Verdict *harness.Verdict `json:"verdict,omitempty"`
	Summary *Counts          `json:"summary,omitempty"`
}

// Counts is the summary payload of the JSON report.
type Counts struct {
	OK    int `json:"ok"`
	Fail  int `json:"fail"`
	Skip  int `json:"skip"`
	Error int `json:"error"`
	Total int `json:"total"`
}

// JSON writes newline-delimited JSON events.
type JSON struct {
	enc *json.Encoder
}

// NewJSON creates a JSON reporter writing to w.
func NewJSON(w io.Writer) *JSON {
	return &JSON{enc: json.NewEncoder(w)}
}

// Verdict writes a verdict event.
func (j *JSON) Verdict(v harness.Verdict) error {
	return j.enc.Encode(Event{Type: "verdict", Verdict: &v})
}

// Summary writes the summary event.
func (j *JSON) Summary(s *harness.Summary) error {
	return j.enc.Encode(Event{
		Type: "summary",
		Summary: &Counts{
			OK:    s.OK,
			Fail:  s.Fail,
			Skip:  s.Skip,
			Error: s.Error,
			Total: s.Total(),
		},
	})
}
