// Package cache stores advisor answers as one JSON file per key, with a
// small in-memory LRU in front of the directory.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const memEntries = 256

type entry struct {
	Timestamp time.Time `json:"timestamp"`
	Key       string    `json:"key"`
	Payload   string    `json:"payload"`
}

// Info describes one cached entry on disk.
type Info struct {
	Key       string
	Timestamp time.Time
	Size      int64
}

type Store struct {
	dir string
	mem *lru.Cache[string, entry]
	mu  sync.Mutex

	// Now is used for timestamps and expiry checks.
	Now func() time.Time
}

// New opens a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	mem, err := lru.New[string, entry](memEntries)
	if err != nil {
		return nil, err
	}
	return &Store{dir: dir, mem: mem, Now: time.Now}, nil
}

func (s *Store) Dir() string { return s.dir }

// Key derives a file-safe cache key from the request payload.
func Key(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get returns the payload stored under key if it is younger than maxAge.
// A maxAge of zero or less disables expiry.
func (s *Store) Get(key string, maxAge time.Duration) (string, bool) {
	if s == nil {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.mem.Get(key)
	if !ok {
		var err error
		e, err = readEntry(s.path(key))
		if err != nil {
			return "", false
		}
		s.mem.Add(key, e)
	}
	if s.expired(e, maxAge) {
		s.mem.Remove(key)
		return "", false
	}
	return e.Payload, true
}

// Put writes payload under key.
func (s *Store) Put(key, payload string) error {
	if s == nil {
		return errors.New("cache store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{Timestamp: s.now(), Key: key, Payload: payload}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing cache entry: %w", err)
	}
	s.mem.Add(key, e)
	return nil
}

// List returns every readable entry, newest first.
func (s *Store) List() ([]Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Info
	err := s.each(func(path string, e entry, size int64) {
		out = append(out, Info{Key: e.Key, Timestamp: e.Timestamp, Size: size})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, err
}

// ClearExpired removes entries older than maxAge and reports how many went.
// Unreadable entry files count as expired.
func (s *Store) ClearExpired(maxAge time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}
	for _, de := range entries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.dir, de.Name())
		e, err := readEntry(path)
		if err == nil && !s.expired(e, maxAge) {
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("removing %s: %w", de.Name(), err)
		}
		s.mem.Remove(strings.TrimSuffix(de.Name(), ".json"))
		removed++
	}
	return removed, nil
}

// Clear removes every entry.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, de.Name())); err != nil {
			return fmt.Errorf("removing %s: %w", de.Name(), err)
		}
	}
	s.mem.Purge()
	return nil
}

func (s *Store) each(fn func(path string, e entry, size int64)) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, de := range entries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.dir, de.Name())
		e, err := readEntry(path)
		if err != nil {
			continue
		}
		var size int64
		if info, err := de.Info(); err == nil {
			size = info.Size()
		}
		fn(path, e, size)
	}
	return nil
}

func (s *Store) expired(e entry, maxAge time.Duration) bool {
	return maxAge > 0 && s.now().Sub(e.Timestamp) > maxAge
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func readEntry(path string) (entry, error) {
	var e entry
	data, err := os.ReadFile(path)
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return e, nil
}
