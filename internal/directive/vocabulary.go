package directive

import "strings"

// Recognized directive keys. Keys are case-sensitive.
const (
	KeyDisabled      = "Disabled"
	KeyEnabled       = "Enabled"
	KeyExpectFailure = "ExpectFailure"
	KeyExpected      = "Expected"
	KeyExpectedType  = "ExpectedType"
	KeyExpectedError = "ExpectedError"
)

// Keys lists every recognized directive key.
var Keys = []string{
	KeyDisabled,
	KeyEnabled,
	KeyExpectFailure,
	KeyExpected,
	KeyExpectedType,
	KeyExpectedError,
}

// Skip reasons returned by Spec.Skip.
const (
	SkipDisabled   = "disabled"
	SkipNotEnabled = "not-enabled"
)

var trueTokens = map[string]bool{
	"true": true,
	"1":    true,
	"yes":  true,
	"y":    true,
}

// ParseBool reports whether s is one of the accepted true tokens.
// Anything else, including the empty string, is false.
func ParseBool(s string) bool {
	return trueTokens[strings.ToLower(strings.TrimSpace(s))]
}

// IsKnown reports whether key is part of the directive vocabulary.
func IsKnown(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Skip reports whether the test should be skipped without invoking the
// subject, and why.
//
// Disabled is checked first: a test that is both disabled and not enabled
// reports SkipDisabled.
func (s Spec) Skip() (bool, string) {
	if v, ok := s[KeyDisabled]; ok && ParseBool(v) {
		return true, SkipDisabled
	}
	if v, ok := s[KeyEnabled]; ok && !ParseBool(v) {
		return true, SkipNotEnabled
	}
	return false, ""
}

// ExpectsFailure reports whether a nonzero exit code is tolerated.
func (s Spec) ExpectsFailure() bool {
	_, ok := s[KeyExpectFailure]
	return ok
}

// Unknown returns the keys that are not part of the vocabulary, sorted.
func (s Spec) Unknown() []string {
	var out []string
	for _, k := range s.Keys() {
		if !IsKnown(k) {
			out = append(out, k)
		}
	}
	return out
}
