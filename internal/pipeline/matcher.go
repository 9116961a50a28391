package pipeline

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Matcher decides which paths the event source never reports. The regexp
// is matched against the full path. Globs are matched against each
// component below root, so a root that itself contains an ignored name is
// still watched.
type Matcher struct {
	root  string
	re    *regexp.Regexp
	globs []string
}

func NewMatcher(root string, re *regexp.Regexp, globs []string) *Matcher {
	return &Matcher{
		root:  strings.TrimSuffix(root, string(filepath.Separator)),
		re:    re,
		globs: globs,
	}
}

func (m *Matcher) Match(path string) bool {
	if m == nil {
		return false
	}

	if m.re != nil && m.re.MatchString(path) {
		return true
	}

	return matchesGlob(m.relative(path), m.globs)
}

// relative strips root from path. Paths outside root are returned as is.
func (m *Matcher) relative(path string) string {
	if m.root == "" && !strings.HasPrefix(path, string(filepath.Separator)) {
		return path
	}
	if path == m.root {
		return ""
	}

	return strings.TrimPrefix(path, m.root+string(filepath.Separator))
}

func matchesGlob(path string, globs []string) bool {
	if len(globs) == 0 || path == "" {
		return false
	}

	parts := strings.Split(filepath.ToSlash(path), "/")

	for _, part := range parts {
		if part == "" {
			continue
		}
		for _, pattern := range globs {
			matched, err := filepath.Match(pattern, part)
			if err == nil && matched {
				return true
			}
		}
	}

	return false
}
