// Package trash sends paths to the platform trash or recycle bin.
package trash

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Func moves one path to a trash facility.
type Func func(path string) error

// Move sends path to the platform trash. The path is made absolute first.
func Move(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if _, err := os.Lstat(abs); err != nil {
		return fmt.Errorf("trashing %s: %w", path, err)
	}
	if err := move(abs); err != nil {
		return fmt.Errorf("trashing %s: %w", path, err)
	}
	return nil
}

var _ Func = Move

// uniqueName returns a name in dir derived from base that reserve accepts.
// reserve reports os.ErrExist when the candidate is taken.
func uniqueName(dir, base string, reserve func(name string) error) (string, error) {
	stem, ext := splitName(base)
	for i := 0; i < 10000; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s.%d%s", stem, i, ext)
		}
		err := reserve(name)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("no free name for %s in %s", base, dir)
}

func splitName(base string) (stem, ext string) {
	ext = filepath.Ext(base)
	if ext == base || strings.HasPrefix(base, ".") && strings.Count(base, ".") == 1 {
		return base, ""
	}
	return strings.TrimSuffix(base, ext), ext
}

// existsReserver treats a name as taken if anything exists at dir/name.
func existsReserver(dir string) func(string) error {
	return func(name string) error {
		if _, err := os.Lstat(filepath.Join(dir, name)); err == nil {
			return os.ErrExist
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
}
