// Package risk sorts empty files into advisory tiers. The tier only changes
// what the user is told before disposition, never what is done.
package risk

import (
	"path/filepath"
	"strings"

	"github.com/thinkingscript/tidy/internal/scan"
)

type Bucket int

const (
	Unsafe Bucket = iota
	Caution
	Safe
)

func (b Bucket) String() string {
	switch b {
	case Safe:
		return "safe"
	case Caution:
		return "caution"
	default:
		return "unsafe"
	}
}

// ParseBucket maps "safe", "caution" and "unsafe" (any case) to a Bucket.
func ParseBucket(s string) (Bucket, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "safe":
		return Safe, true
	case "caution":
		return Caution, true
	case "unsafe":
		return Unsafe, true
	}
	return Unsafe, false
}

// Buckets holds the three tiers with input order preserved in each.
type Buckets struct {
	Safe    []scan.Entry
	Caution []scan.Entry
	Unsafe  []scan.Entry
}

func (b *Buckets) Len() int {
	return len(b.Safe) + len(b.Caution) + len(b.Unsafe)
}

func (b *Buckets) add(bucket Bucket, e scan.Entry) {
	switch bucket {
	case Safe:
		b.Safe = append(b.Safe, e)
	case Caution:
		b.Caution = append(b.Caution, e)
	default:
		b.Unsafe = append(b.Unsafe, e)
	}
}

var safeExts = []string{".d.ts", ".js", ".txt"}

var cautionParents = []string{"test", "tests", "examples"}

// Classify applies the builtin rules in priority order.
func Classify(e scan.Entry) Bucket {
	if underNodeModules(e.Path) && hasSafeExt(e.Path) {
		return Safe
	}
	parent := strings.ToLower(filepath.Base(filepath.Dir(e.Path)))
	for _, c := range cautionParents {
		if strings.Contains(parent, c) {
			return Caution
		}
	}
	return Unsafe
}

func underNodeModules(path string) bool {
	dir := filepath.Dir(path)
	for _, seg := range strings.Split(filepath.ToSlash(dir), "/") {
		if seg == "node_modules" {
			return true
		}
	}
	return false
}

func hasSafeExt(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, ext := range safeExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Rule is a custom classifier. ok=false defers to the next rule.
type Rule interface {
	Classify(e scan.Entry) (b Bucket, ok bool)
}

// RuleFunc adapts a function to Rule.
type RuleFunc func(e scan.Entry) (Bucket, bool)

func (f RuleFunc) Classify(e scan.Entry) (Bucket, bool) { return f(e) }

// Bucketer consults Rules in order, then the builtin rules.
type Bucketer struct {
	Rules []Rule
}

func (bk *Bucketer) Classify(e scan.Entry) Bucket {
	if bk != nil {
		for _, r := range bk.Rules {
			if r == nil {
				continue
			}
			if b, ok := r.Classify(e); ok {
				return b
			}
		}
	}
	return Classify(e)
}

// Bucket groups files into tiers.
func (bk *Bucketer) Bucket(files []scan.Entry) Buckets {
	var out Buckets
	for _, f := range files {
		out.add(bk.Classify(f), f)
	}
	return out
}
