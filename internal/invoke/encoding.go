package invoke

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncoding is used when no encoding is configured.
const DefaultEncoding = "utf-8"

// LookupEncoding resolves an encoding label such as "UTF-8", "latin1" or
// "windows-1252". The empty label resolves to UTF-8.
func LookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return enc, nil
}

// decode converts raw subject output to a string.
// Bytes that are invalid in the encoding become U+FFFD.
func decode(enc encoding.Encoding, raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
