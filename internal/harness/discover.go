package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPattern matches the subject's test files at any depth.
const DefaultPattern = "**/*.millie"

// Discover returns the files under root matching pattern, in walk order.
//
// Pattern uses doublestar syntax relative to root. If filter is non-empty,
// only files whose base name without extension matches the filter glob are
// kept. An empty result is not an error.
func Discover(root, pattern, filter string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}
	if filter != "" && !doublestar.ValidatePattern(filter) {
		return nil, fmt.Errorf("invalid filter pattern %q: %w", filter, doublestar.ErrBadPattern)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("test root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("test root %s is not a directory", root)
	}

	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		if filter != "" {
			base := filepath.Base(m)
			name := strings.TrimSuffix(base, filepath.Ext(base))
			if ok, _ := doublestar.Match(filter, name); !ok {
				continue
			}
		}
		paths = append(paths, filepath.Join(root, filepath.FromSlash(m)))
	}
	return paths, nil
}
