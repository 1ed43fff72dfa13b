//go:build linux

package trash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMoveFreedesktop(t *testing.T) {
	base := t.TempDir()
	data := filepath.Join(base, "data")
	t.Setenv("XDG_DATA_HOME", data)

	work := filepath.Join(base, "work")
	target := filepath.Join(work, "linux clean")
	if err := os.MkdirAll(filepath.Join(target, "inner"), 0755); err != nil {
		t.Fatal(err)
	}

	if err := Move(target); err != nil {
		t.Fatalf("Move error: %v", err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Errorf("original still exists: %v", err)
	}

	trashed := filepath.Join(data, "Trash", "files", "linux clean")
	if _, err := os.Stat(filepath.Join(trashed, "inner")); err != nil {
		t.Errorf("trashed dir missing: %v", err)
	}
	info, err := os.ReadFile(filepath.Join(data, "Trash", "info", "linux clean.trashinfo"))
	if err != nil {
		t.Fatalf("trashinfo missing: %v", err)
	}
	if !strings.HasPrefix(string(info), "[Trash Info]\n") {
		t.Errorf("trashinfo header = %q", info)
	}
	if !strings.Contains(string(info), "Path="+filepath.ToSlash(work)+"/linux%20clean\n") {
		t.Errorf("trashinfo Path not escaped: %q", info)
	}
	if !strings.Contains(string(info), "DeletionDate=") {
		t.Errorf("trashinfo missing DeletionDate: %q", info)
	}

	// A second item with the same name gets a fresh slot.
	os.MkdirAll(target, 0755)
	if err := Move(target); err != nil {
		t.Fatalf("second Move error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(data, "Trash", "files", "linux clean.1")); err != nil {
		t.Errorf("second trashed dir missing: %v", err)
	}
}

func TestTrashInfo(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	got := trashInfo("/home/me/a b#c", at)
	want := "[Trash Info]\nPath=/home/me/a%20b%23c\nDeletionDate=2026-03-04T05:06:07\n"
	if got != want {
		t.Errorf("trashInfo = %q, want %q", got, want)
	}
}
