//go:build !windows

package trash

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

func device(path string) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return 0, err
	}
	return uint64(st.Dev), nil
}

// topDir returns the mount point containing path.
func topDir(path string) (string, error) {
	dev, err := device(path)
	if err != nil {
		return "", err
	}
	dir := path
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir, nil
		}
		pdev, err := device(parent)
		if err != nil || pdev != dev {
			return dir, nil
		}
		dir = parent
	}
}
