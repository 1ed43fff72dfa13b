//go:build darwin

package trash

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

func move(path string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	err = moveInto(filepath.Join(home, ".Trash"), path)
	if !errors.Is(err, unix.EXDEV) {
		return err
	}
	top, terr := topDir(path)
	if terr != nil {
		return err
	}
	return moveInto(filepath.Join(top, ".Trashes", strconv.Itoa(os.Getuid())), path)
}

func moveInto(dir, path string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	name, err := uniqueName(dir, filepath.Base(path), existsReserver(dir))
	if err != nil {
		return err
	}
	if err := os.Rename(path, filepath.Join(dir, name)); err != nil {
		var le *os.LinkError
		if errors.As(err, &le) {
			return le.Err
		}
		return err
	}
	return nil
}
