//go:build !darwin && !windows

package trash

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

// homeTrash returns $XDG_DATA_HOME/Trash, defaulting to ~/.local/share/Trash.
func homeTrash() (string, error) {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return filepath.Join(v, "Trash"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "Trash"), nil
}

func move(path string) error {
	home, err := homeTrash()
	if err != nil {
		return err
	}
	err = moveInto(home, path, path)
	if !errors.Is(err, unix.EXDEV) {
		return err
	}

	top, terr := topDir(path)
	if terr != nil {
		return err
	}
	rel, rerr := filepath.Rel(top, path)
	if rerr != nil {
		return err
	}
	dir := filepath.Join(top, ".Trash-"+strconv.Itoa(os.Getuid()))
	return moveInto(dir, path, rel)
}

// moveInto renames path into trashDir/files and writes the matching
// info/<name>.trashinfo. infoPath is recorded in the Path= line.
func moveInto(trashDir, path, infoPath string) error {
	files := filepath.Join(trashDir, "files")
	info := filepath.Join(trashDir, "info")
	for _, d := range []string{files, info} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return fmt.Errorf("creating %s: %w", d, err)
		}
	}

	body := trashInfo(infoPath, time.Now())
	taken := existsReserver(files)
	name, err := uniqueName(files, filepath.Base(path), func(n string) error {
		if err := taken(n); err != nil {
			return err
		}
		f, err := os.OpenFile(filepath.Join(info, n+".trashinfo"), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err != nil {
			return err
		}
		_, werr := f.WriteString(body)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		return werr
	})
	if err != nil {
		return err
	}

	if err := os.Rename(path, filepath.Join(files, name)); err != nil {
		os.Remove(filepath.Join(info, name+".trashinfo"))
		var le *os.LinkError
		if errors.As(err, &le) {
			return le.Err
		}
		return err
	}
	return nil
}

func trashInfo(path string, now time.Time) string {
	escaped := (&url.URL{Path: filepath.ToSlash(path)}).EscapedPath()
	return fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n", escaped, now.Format("2006-01-02T15:04:05"))
}
