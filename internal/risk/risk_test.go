package risk

import (
	"path/filepath"
	"testing"

	"github.com/thinkingscript/tidy/internal/scan"
)

func entry(rel string) scan.Entry {
	return scan.Entry{Path: filepath.Join(string(filepath.Separator), "root", filepath.FromSlash(rel))}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		rel  string
		want Bucket
	}{
		{"node_modules/pkg/index.js", Safe},
		{"node_modules/@types/x/index.d.ts", Safe},
		{"a/node_modules/pkg/README.txt", Safe},
		{"node_modules/pkg/main.go", Unsafe},
		{"node_modules/tests/empty.py", Caution},
		{"src/tests/fixture.json", Caution},
		{"src/Integration_Test/x", Caution},
		{"docs/examples/sample.md", Caution},
		{"src/main.go", Unsafe},
		{"notes.txt", Unsafe},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			if got := Classify(entry(tt.rel)); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.rel, got, tt.want)
			}
		})
	}
}

func TestBucketPreservesOrder(t *testing.T) {
	files := []scan.Entry{
		entry("src/a.go"),
		entry("tests/b.py"),
		entry("src/c.go"),
		entry("node_modules/x/d.js"),
		entry("tests/e.py"),
	}
	var bk *Bucketer
	b := bk.Bucket(files)

	if len(b.Safe) != 1 || b.Safe[0] != files[3] {
		t.Errorf("Safe = %v", b.Safe)
	}
	if len(b.Caution) != 2 || b.Caution[0] != files[1] || b.Caution[1] != files[4] {
		t.Errorf("Caution = %v", b.Caution)
	}
	if len(b.Unsafe) != 2 || b.Unsafe[0] != files[0] || b.Unsafe[1] != files[2] {
		t.Errorf("Unsafe = %v", b.Unsafe)
	}
	if b.Len() != len(files) {
		t.Errorf("Len() = %d, want %d", b.Len(), len(files))
	}
}

func TestBucketerCustomRulesFirst(t *testing.T) {
	fixtures := RuleFunc(func(e scan.Entry) (Bucket, bool) {
		if filepath.Base(filepath.Dir(e.Path)) == "fixtures" {
			return Safe, true
		}
		return Unsafe, false
	})
	bk := &Bucketer{Rules: []Rule{nil, fixtures}}

	if got := bk.Classify(entry("fixtures/a.txt")); got != Safe {
		t.Errorf("fixtures entry = %v, want safe", got)
	}
	if got := bk.Classify(entry("tests/a.txt")); got != Caution {
		t.Errorf("deferred entry = %v, want caution", got)
	}
}

func TestBucketString(t *testing.T) {
	for _, b := range []Bucket{Safe, Caution, Unsafe} {
		got, ok := ParseBucket(b.String())
		if !ok || got != b {
			t.Errorf("ParseBucket(%q) = %v, %v", b.String(), got, ok)
		}
	}
	if _, ok := ParseBucket("maybe"); ok {
		t.Error("ParseBucket(maybe) should fail")
	}
}
