// Package lock provides advisory, non-blocking file locks scoped to a
// directory being cleaned, so two tidy sessions never dispose of the same
// tree at once.
package lock

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrBusy is returned when another process holds the lock.
var ErrBusy = errors.New("another tidy session is cleaning this directory")

type Lock struct {
	f    *os.File
	path string
}

// FileName returns the lock file name used for root.
func FileName(root string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(root)))
	return "clean-" + hex.EncodeToString(sum[:8]) + ".lock"
}

// Acquire takes the lock for root, creating the lock file in dir. It never
// blocks: a held lock yields ErrBusy.
func Acquire(dir, root string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}
	path := filepath.Join(dir, FileName(root))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if err := tryLock(f); err != nil {
		f.Close()
		if errors.Is(err, ErrBusy) {
			return nil, fmt.Errorf("%w: %s", ErrBusy, root)
		}
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	return &Lock{f: f, path: path}, nil
}

// Release drops the lock. It is safe to call on a nil Lock.
func (l *Lock) Release() {
	if l == nil || l.f == nil {
		return
	}
	unlock(l.f)
	l.f.Close()
	l.f = nil
}
