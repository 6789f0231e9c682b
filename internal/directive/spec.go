package directive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// CommentMarker starts every directive line.
const CommentMarker = '#'

// Spec maps directive keys to their values for a single test file.
// Later occurrences of a key overwrite earlier ones.
type Spec map[string]string

// Lookup returns the value for key and whether it was declared.
func (s Spec) Lookup(key string) (string, bool) {
	v, ok := s[key]
	return v, ok
}

// Has reports whether key was declared.
func (s Spec) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Keys returns the declared keys in sorted order.
func (s Spec) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Read opens the file at path and parses its directive header.
func Read(path string) (Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read directives: %w", err)
	}
	defer f.Close()

	spec, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read directives from %s: %w", path, err)
	}
	return spec, nil
}

// Parse scans r from the start and returns the directive header.
//
// Scanning stops at the first line that is empty or does not begin with
// CommentMarker. The returned Spec is never nil.
func Parse(r io.Reader) (Spec, error) {
	spec := Spec{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" || line[0] != CommentMarker {
			break
		}
		key, value, ok := parseLine(line)
		if !ok {
			continue
		}
		spec[key] = value
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}
	return spec, nil
}

// parseLine splits a comment line into a trimmed key and value.
// The split happens on the first colon only, so values may contain colons.
func parseLine(line string) (key, value string, ok bool) {
	body := strings.TrimSpace(line[1:])
	key, value, ok = strings.Cut(body, ":")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), true
}
