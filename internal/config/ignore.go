package config

import (
	"fmt"
	"path/filepath"

	"dirtidy/internal/errors"

	"github.com/gobwas/glob"
)

// IgnoreList holds compiled ignore globs. Patterns are compiled without
// separators, so '*' also spans '/' and a pattern like "*.tmp" matches a
// full path as well as a bare name.
type IgnoreList struct {
	patterns []string
	globs    []glob.Glob
}

// CompileIgnore compiles patterns in order. An invalid pattern is a
// configuration error.
func CompileIgnore(patterns []string) (*IgnoreList, error) {
	l := &IgnoreList{}
	for i, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.NewConfigError("invalid ignore pattern", fmt.Sprintf("ignore[%d] %q", i, p), errors.InvalidConfig, err)
		}
		l.patterns = append(l.patterns, p)
		l.globs = append(l.globs, g)
	}
	return l, nil
}

// Match reports whether any candidate string matches any pattern.
func (l *IgnoreList) Match(candidates ...string) bool {
	if l == nil {
		return false
	}
	for _, g := range l.globs {
		for _, c := range candidates {
			if c == "" {
				continue
			}
			if g.Match(filepath.ToSlash(c)) {
				return true
			}
		}
	}
	return false
}

// Patterns returns the source patterns in order.
func (l *IgnoreList) Patterns() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.patterns))
	copy(out, l.patterns)
	return out
}

// Len returns the number of patterns.
func (l *IgnoreList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.patterns)
}
