package scan

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
)

func mkfile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func mkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatal(err)
	}
}

func paths(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestScanScenario(t *testing.T) {
	root := t.TempDir()
	mkdir(t, filepath.Join(root, "a"))
	mkfile(t, filepath.Join(root, "b", "c.txt"), "")
	mkfile(t, filepath.Join(root, "b", "d"), "data")

	res, err := Scan(root, Options{})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if got, want := paths(res.EmptyDirs), []string{filepath.Join(root, "a")}; !equal(got, want) {
		t.Errorf("EmptyDirs = %v, want %v", got, want)
	}
	if got, want := paths(res.EmptyFiles), []string{filepath.Join(root, "b", "c.txt")}; !equal(got, want) {
		t.Errorf("EmptyFiles = %v, want %v", got, want)
	}
	if len(res.AccessErrors) != 0 {
		t.Errorf("unexpected access errors: %v", res.AccessErrors)
	}
}

func TestScanOrdering(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "z.txt"), "")
	mkfile(t, filepath.Join(root, "a.txt"), "")
	mkfile(t, filepath.Join(root, "m", "n.txt"), "")
	mkdir(t, filepath.Join(root, "p", "q", "r"))
	mkdir(t, filepath.Join(root, "p", "s"))
	mkdir(t, filepath.Join(root, "b"))

	res, err := Scan(root, Options{})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	files := paths(res.EmptyFiles)
	if !sort.StringsAreSorted(files) {
		t.Errorf("EmptyFiles not ascending: %v", files)
	}
	dirs := paths(res.EmptyDirs)
	if !sort.SliceIsSorted(dirs, func(i, j int) bool { return dirs[i] > dirs[j] }) {
		t.Errorf("EmptyDirs not descending: %v", dirs)
	}
	want := []string{
		filepath.Join(root, "p", "s"),
		filepath.Join(root, "p", "q", "r"),
		filepath.Join(root, "b"),
	}
	if !equal(dirs, want) {
		t.Errorf("EmptyDirs = %v, want %v", dirs, want)
	}
}

func TestScanDirectoryWithOnlyEmptySubdirIsNotEmpty(t *testing.T) {
	root := t.TempDir()
	mkdir(t, filepath.Join(root, "outer", "inner"))

	res, err := Scan(root, Options{})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if got, want := paths(res.EmptyDirs), []string{filepath.Join(root, "outer", "inner")}; !equal(got, want) {
		t.Errorf("EmptyDirs = %v, want %v", got, want)
	}
}

func TestScanHiddenEntriesCount(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "keep", ".hidden"), "x")

	res, err := Scan(root, Options{})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(res.EmptyDirs) != 0 {
		t.Errorf("directory with a hidden file reported empty: %v", paths(res.EmptyDirs))
	}
}

func TestScanSkipList(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{".git", "venv", "node_modules", "__pycache__", ".Trash", "Library", "empty-dirs"} {
		mkdir(t, filepath.Join(root, d, "empty"))
		mkfile(t, filepath.Join(root, d, "zero.js"), "")
	}
	mkfile(t, filepath.Join(root, "pkg", "__init__.py"), "")
	mkfile(t, filepath.Join(root, "pkg", "mod.py"), "print(1)")
	mkdir(t, filepath.Join(root, "linux-clean-01-02-2026", "old"))
	mkfile(t, filepath.Join(root, "src", "empty.go"), "")

	res, err := Scan(root, Options{})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if got, want := paths(res.EmptyFiles), []string{filepath.Join(root, "src", "empty.go")}; !equal(got, want) {
		t.Errorf("EmptyFiles = %v, want %v", got, want)
	}
	if len(res.EmptyDirs) != 0 {
		t.Errorf("EmptyDirs = %v, want none", paths(res.EmptyDirs))
	}
}

func TestScanCustomSkipper(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "node_modules", "pkg", "index.js"), "")
	mkfile(t, filepath.Join(root, "build", "out.o"), "")

	res, err := Scan(root, Options{Skip: NewSkipper([]string{"build"}, []string{"node_modules"})})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	want := []string{filepath.Join(root, "node_modules", "pkg", "index.js")}
	if got := paths(res.EmptyFiles); !equal(got, want) {
		t.Errorf("EmptyFiles = %v, want %v", got, want)
	}
}

func TestScanSkipsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	target := filepath.Join(t.TempDir(), "empty.txt")
	mkfile(t, target, "")
	if err := os.Symlink(target, filepath.Join(root, "link.txt")); err != nil {
		t.Fatal(err)
	}

	res, err := Scan(root, Options{})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(res.EmptyFiles) != 0 {
		t.Errorf("symlink reported as empty file: %v", paths(res.EmptyFiles))
	}
}

func TestScanAccessErrorIsNotFatal(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	mkfile(t, filepath.Join(locked, "inside.txt"), "")
	mkfile(t, filepath.Join(root, "open.txt"), "")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(locked, 0755)

	res, err := Scan(root, Options{})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(res.AccessErrors) != 1 {
		t.Fatalf("AccessErrors = %d, want 1", len(res.AccessErrors))
	}
	if !errors.Is(res.AccessErrors[0], fs.ErrPermission) {
		t.Errorf("access error = %v, want permission error", res.AccessErrors[0])
	}
	if got, want := paths(res.EmptyFiles), []string{filepath.Join(root, "open.txt")}; !equal(got, want) {
		t.Errorf("EmptyFiles = %v, want %v", got, want)
	}
}

func TestScanRootErrors(t *testing.T) {
	root := t.TempDir()

	_, err := Scan(filepath.Join(root, "missing"), Options{})
	var ae *AccessError
	if !errors.As(err, &ae) {
		t.Errorf("missing root error = %v, want *AccessError", err)
	}

	file := filepath.Join(root, "f.txt")
	mkfile(t, file, "x")
	if _, err := Scan(file, Options{}); err == nil {
		t.Error("expected error scanning a file")
	}
}

func TestPredicates(t *testing.T) {
	root := t.TempDir()
	empty := filepath.Join(root, "empty.txt")
	full := filepath.Join(root, "full.txt")
	dir := filepath.Join(root, "dir")
	mkfile(t, empty, "")
	mkfile(t, full, "data")
	mkdir(t, dir)

	tests := []struct {
		name string
		fn   func(string) (bool, error)
		path string
		want bool
	}{
		{"empty file", IsEmptyFile, empty, true},
		{"full file", IsEmptyFile, full, false},
		{"dir is not a file", IsEmptyFile, dir, false},
		{"empty dir", IsEmptyDir, dir, true},
		{"file is not a dir", IsEmptyDir, empty, false},
		{"non-empty dir", IsEmptyDir, root, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := IsEmptyDir(filepath.Join(root, "gone")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("IsEmptyDir(missing) error = %v, want not-exist", err)
	}
}

func TestWalkHonorsSkipper(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, ".git", "HEAD"), "ref")
	mkfile(t, filepath.Join(root, "src", "main.go"), "package main")

	var seen []string
	err := Walk(root, nil, func(path string, d fs.DirEntry) error {
		rel, _ := filepath.Rel(root, path)
		seen = append(seen, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("Walk error: %v", err)
	}
	if want := []string{"src", "src/main.go"}; !equal(seen, want) {
		t.Errorf("visited = %v, want %v", seen, want)
	}
}
