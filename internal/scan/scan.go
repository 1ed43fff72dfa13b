package scan

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/thinkingscript/tidy/internal/logging"
)

// Entry is a file-system path observed during a scan.
type Entry struct {
	Path    string    `json:"path"`
	IsDir   bool      `json:"is_dir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Name returns the final path element.
func (e Entry) Name() string {
	return filepath.Base(e.Path)
}

// Result holds everything found by one scan. EmptyFiles is sorted ascending
// by path, EmptyDirs descending so children precede their parents.
type Result struct {
	Root         string         `json:"root"`
	EmptyFiles   []Entry        `json:"empty_files"`
	EmptyDirs    []Entry        `json:"empty_dirs"`
	AccessErrors []*AccessError `json:"-"`
	Scanned      int            `json:"scanned"`
}

// Empty reports whether the scan found nothing to clean up.
func (r *Result) Empty() bool {
	return r == nil || (len(r.EmptyFiles) == 0 && len(r.EmptyDirs) == 0)
}

// AccessError records a path that could not be listed or stat'ed. It never
// aborts a scan.
type AccessError struct {
	Path string
	Op   string
	Err  error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("cannot %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

type Options struct {
	Skip   *Skipper
	Logger *slog.Logger
}

// Scan walks root and collects empty files and empty directories. Only a
// missing or non-directory root is an error; unreadable sub-paths are
// recorded in Result.AccessErrors and skipped.
func Scan(root string, opts Options) (*Result, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &AccessError{Path: abs, Op: "stat", Err: err}
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}

	w := &walker{
		root:   abs,
		skip:   opts.Skip,
		logger: logging.OrDiscard(opts.Logger),
		res:    &Result{Root: abs},
	}
	if w.skip == nil {
		w.skip = DefaultSkipper()
	}
	w.logger.Debug("scan started", "root", abs, "skip", w.skip.Patterns())
	w.walk(abs, info)

	sort.Slice(w.res.EmptyFiles, func(i, j int) bool {
		return w.res.EmptyFiles[i].Path < w.res.EmptyFiles[j].Path
	})
	sort.Slice(w.res.EmptyDirs, func(i, j int) bool {
		return w.res.EmptyDirs[i].Path > w.res.EmptyDirs[j].Path
	})

	w.logger.Info("scan complete",
		"root", abs,
		"scanned", w.res.Scanned,
		"empty_files", len(w.res.EmptyFiles),
		"empty_dirs", len(w.res.EmptyDirs),
		"access_errors", len(w.res.AccessErrors))
	return w.res, nil
}

type walker struct {
	root   string
	skip   *Skipper
	logger *slog.Logger
	res    *Result
}

func (w *walker) walk(dir string, info fs.FileInfo) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.access(dir, "list", err)
		return
	}
	if dir != w.root && len(entries) == 0 {
		w.res.EmptyDirs = append(w.res.EmptyDirs, Entry{
			Path:    dir,
			IsDir:   true,
			ModTime: info.ModTime(),
		})
		return
	}

	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if w.skip.MatchName(e.Name()) {
			continue
		}
		w.res.Scanned++

		// Symlinks are neither files nor directories here.
		if e.Type()&fs.ModeSymlink != 0 {
			continue
		}
		info, err := e.Info()
		if err != nil {
			w.access(path, "stat", err)
			continue
		}
		switch {
		case info.IsDir():
			w.walk(path, info)
		case info.Mode().IsRegular() && info.Size() == 0:
			w.res.EmptyFiles = append(w.res.EmptyFiles, Entry{
				Path:    path,
				Size:    0,
				ModTime: info.ModTime(),
			})
		}
	}
}

func (w *walker) access(path, op string, err error) {
	ae := &AccessError{Path: path, Op: op, Err: err}
	w.res.AccessErrors = append(w.res.AccessErrors, ae)
	w.logger.Warn("skipping inaccessible path", "path", path, "op", op, "error", err)
}

// IsEmptyFile reports whether path is a regular file of exactly zero bytes.
func IsEmptyFile(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, err
	}
	if !info.Mode().IsRegular() {
		return false, nil
	}
	return info.Size() == 0, nil
}

// IsEmptyDir reports whether path is a directory whose direct listing is
// empty, hidden entries included.
func IsEmptyDir(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, err
	}
	if !info.IsDir() {
		return false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	_, err = f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// Walk visits every non-skipped path below root. Unreadable directories are
// passed over silently; fn may return fs.SkipDir or fs.SkipAll.
func Walk(root string, skip *Skipper, fn func(path string, d fs.DirEntry) error) error {
	if skip == nil {
		skip = DefaultSkipper()
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if skip.Match(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		return fn(path, d)
	})
}
