package scan

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultSkip lists the directories that are never descended into.
var DefaultSkip = []string{".git", "venv", "node_modules", "__pycache__"}

// HoldingPattern matches the dated holding directories created during cleanup.
const HoldingPattern = "*-clean-[0-9][0-9]-[0-9][0-9]-[0-9][0-9][0-9][0-9]"

// DefaultExtras are the deployment-specific additions to DefaultSkip. Some are
// files that are empty on purpose (package markers, installer receipts).
var DefaultExtras = []string{
	".Trash",
	"Library",
	"empty-dirs",
	".venv",
	".pytest_cache",
	"$RECYCLE.BIN",
	"*.dist-info",
	"__init__.py",
	"py.typed",
	"REQUESTED",
	HoldingPattern,
}

// Skipper decides whether a path is excluded from a scan. Each pattern is
// matched against every segment of the path relative to the scan root.
type Skipper struct {
	patterns []string
}

// NewSkipper builds a skipper from DefaultSkip, DefaultExtras and extra,
// minus any names listed in allow.
func NewSkipper(extra, allow []string) *Skipper {
	allowed := make(map[string]bool, len(allow))
	for _, a := range allow {
		allowed[a] = true
	}
	s := &Skipper{}
	seen := make(map[string]bool)
	for _, group := range [][]string{DefaultSkip, DefaultExtras, extra} {
		for _, p := range group {
			p = strings.TrimSpace(p)
			if p == "" || allowed[p] || seen[p] {
				continue
			}
			seen[p] = true
			s.patterns = append(s.patterns, p)
		}
	}
	return s
}

// DefaultSkipper returns a skipper with only the built-in patterns.
func DefaultSkipper() *Skipper {
	return NewSkipper(nil, nil)
}

// Patterns returns the active patterns in evaluation order.
func (s *Skipper) Patterns() []string {
	return append([]string(nil), s.patterns...)
}

// Match reports whether any segment of rel matches a skip pattern.
func (s *Skipper) Match(rel string) bool {
	if s == nil || rel == "" || rel == "." {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if seg == "" {
			continue
		}
		if s.MatchName(seg) {
			return true
		}
	}
	return false
}

// MatchName reports whether a single file or directory name is skipped.
func (s *Skipper) MatchName(name string) bool {
	if s == nil {
		return false
	}
	for _, p := range s.patterns {
		if p == name {
			return true
		}
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
