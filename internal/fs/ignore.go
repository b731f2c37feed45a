package fs

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"hg-go/internal/hg"
)

// ignorePattern is a parsed exclude pattern with its matching strategy.
type ignorePattern struct {
	pattern   string
	matchPath bool // true = match against relative path; false = match against basename only
	negate    bool // "!pattern" re-includes what earlier patterns excluded
	dirOnly   bool // "pattern/" only matches directories
}

// Filter decides which paths of a tree are indexed, using gitignore-style
// exclude patterns. Patterns without '/' match against the basename of any
// path component; patterns with '/' match against the relative path from the
// tree root, a leading '/' only anchors them. A "**" segment spans any number
// of directories. The last matching pattern wins.
type Filter struct {
	patterns []ignorePattern
}

var _ hg.Filter = (*Filter)(nil)

// NewFilter creates a Filter from raw pattern strings.
// Blank lines and lines starting with '#' are skipped.
func NewFilter(rawPatterns []string) *Filter {
	var patterns []ignorePattern
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		p := ignorePattern{}
		if strings.HasPrefix(raw, "!") {
			p.negate = true
			raw = raw[1:]
		}
		if strings.HasSuffix(raw, "/") {
			p.dirOnly = true
			raw = strings.TrimSuffix(raw, "/")
		}
		p.matchPath = strings.Contains(raw, "/")
		p.pattern = strings.TrimPrefix(raw, "/")
		if p.pattern == "" {
			continue
		}
		patterns = append(patterns, p)
	}
	return &Filter{patterns: patterns}
}

// NewFilterFromConfig combines exclude patterns with the patterns of an
// optional exclude file.
func NewFilterFromConfig(exclude []string, excludeFromFile string) (*Filter, error) {
	patterns := append([]string{}, exclude...)
	if excludeFromFile != "" {
		fromFile, err := ParseIgnoreFile(excludeFromFile)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, fromFile...)
	}
	return NewFilter(patterns), nil
}

// Match reports whether the given relative path is excluded by itself,
// regardless of its parent directories.
func (f *Filter) Match(relativePath string, isDir bool) bool {
	if f == nil || len(f.patterns) == 0 {
		return false
	}

	// Normalize to forward slashes for consistent matching.
	normalized := filepath.ToSlash(relativePath)
	basename := path.Base(normalized)

	excluded := false
	for _, p := range f.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		var matched bool
		var err error
		if p.matchPath {
			matched, err = matchSegments(strings.Split(p.pattern, "/"), strings.Split(normalized, "/"))
		} else {
			matched, err = path.Match(p.pattern, basename)
		}
		if err != nil {
			// Bad pattern, skip it.
			continue
		}
		if matched {
			excluded = !p.negate
		}
	}
	return excluded
}

// matchSegments matches a slash-separated pattern against path segments.
// A "**" segment matches zero or more segments; as the last segment it
// matches one or more, so "a/**" matches everything inside a.
func matchSegments(pattern, segments []string) (bool, error) {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			if len(rest) == 0 {
				return len(segments) > 0, nil
			}
			for i := 0; i <= len(segments); i++ {
				matched, err := matchSegments(rest, segments[i:])
				if err != nil || matched {
					return matched, err
				}
			}
			return false, nil
		}
		if len(segments) == 0 {
			return false, nil
		}
		matched, err := path.Match(pattern[0], segments[0])
		if err != nil || !matched {
			return false, err
		}
		pattern, segments = pattern[1:], segments[1:]
	}
	return len(segments) == 0, nil
}

// Include reports whether a file path is included, checking every parent
// directory as well.
func (f *Filter) Include(filename string) bool {
	normalized := filepath.ToSlash(filename)
	parts := strings.Split(normalized, "/")
	for i := 1; i < len(parts); i++ {
		if f.Match(strings.Join(parts[:i], "/"), true) {
			return false
		}
	}
	return !f.Match(normalized, false)
}

// ParseIgnoreFile reads an exclude file and returns the raw pattern strings.
// Returns nil and no error if the file does not exist.
func ParseIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening exclude file: %w", err)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		patterns = append(patterns, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading exclude file: %w", err)
	}
	return patterns, nil
}
