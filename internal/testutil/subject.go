// Package testutil provides fake subject programs and invokers for tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/roach88/verdict/internal/directive"
	"github.com/roach88/verdict/internal/invoke"
)

// WriteSubject writes an executable shell script named "subject" into a
// fresh temp directory and returns its path. The script receives the test
// file path as $1 and any mapped flags after it.
func WriteSubject(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "subject")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("write subject: %v", err)
	}
	return path
}

// WriteTest writes a test file with the given contents under dir, creating
// parent directories as needed, and returns its path.
func WriteTest(t *testing.T, dir, name, contents string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("create test dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	return path
}

// SpyInvoker is an invoke.Invoker that records calls and returns a canned
// outcome. Outcomes can be set per path; Default covers the rest.
type SpyInvoker struct {
	mu       sync.Mutex
	Default  invoke.Outcome
	Outcomes map[string]invoke.Outcome
	Err      error
	Calls    []string
}

// Invoke records the call and returns the configured outcome.
func (s *SpyInvoker) Invoke(_ context.Context, path string, _ directive.Spec) (invoke.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Calls = append(s.Calls, path)
	if s.Err != nil {
		return invoke.Outcome{}, s.Err
	}
	if out, ok := s.Outcomes[path]; ok {
		return out, nil
	}
	return s.Default, nil
}

// CallCount returns the number of Invoke calls so far.
func (s *SpyInvoker) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}
