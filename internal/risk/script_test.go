package risk

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeRules(t *testing.T, dir, src string) string {
	t.Helper()
	path := filepath.Join(dir, "rules.js")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScriptRuleMissing(t *testing.T) {
	r, err := LoadScriptRule(filepath.Join(t.TempDir(), "rules.js"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != nil {
		t.Error("missing file should yield nil rule")
	}
}

func TestLoadScriptRuleErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadScriptRule(writeRules(t, dir, "function oops( {"), nil); err == nil {
		t.Error("expected syntax error")
	}
	_, err := LoadScriptRule(writeRules(t, dir, "var x = 1;"), nil)
	if err == nil || !strings.Contains(err.Error(), "classify") {
		t.Errorf("error = %v, want missing classify", err)
	}
}

func TestScriptRuleClassify(t *testing.T) {
	dir := t.TempDir()
	path := writeRules(t, dir, `
function classify(file) {
  if (file.parent === "fixtures") return "safe";
  if (file.ext === ".lock") return "CAUTION";
  if (file.name === "boom") throw new Error("boom");
  return null;
}
`)
	r, err := LoadScriptRule(path, nil)
	if err != nil {
		t.Fatalf("LoadScriptRule error: %v", err)
	}

	tests := []struct {
		rel    string
		want   Bucket
		wantOK bool
	}{
		{"fixtures/a.json", Safe, true},
		{"src/yarn.lock", Caution, true},
		{"src/boom", Unsafe, false},
		{"src/main.go", Unsafe, false},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			got, ok := r.Classify(entry(tt.rel))
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Classify(%q) = %v, %v, want %v, %v", tt.rel, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	bk := &Bucketer{Rules: []Rule{r}}
	if got := bk.Classify(entry("tests/main.go")); got != Caution {
		t.Errorf("deferred classify = %v, want caution", got)
	}
}

func TestScriptRuleTimeout(t *testing.T) {
	dir := t.TempDir()
	r, err := LoadScriptRule(writeRules(t, dir, `function classify(file) { for (;;) {} }`), nil)
	if err != nil {
		t.Fatalf("LoadScriptRule error: %v", err)
	}
	r.Timeout = 50 * time.Millisecond

	if _, ok := r.Classify(entry("a/b")); ok {
		t.Error("timed out rule should defer")
	}
}

func TestScriptRuleRequire(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "helpers.js"), []byte(`exports.tier = function() { return "caution"; };`), 0644)
	path := writeRules(t, dir, `
var helpers = require("./helpers.js");
function classify(file) { return helpers.tier(); }
`)
	r, err := LoadScriptRule(path, nil)
	if err != nil {
		t.Fatalf("LoadScriptRule error: %v", err)
	}
	if got, ok := r.Classify(entry("x/y")); !ok || got != Caution {
		t.Errorf("Classify = %v, %v, want caution", got, ok)
	}
}
