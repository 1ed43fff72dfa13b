// Package dispose performs the only file-system mutations in tidy: moving
// empty entries into a dated holding directory that is then trashed, or
// deleting them outright.
package dispose

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/thinkingscript/tidy/internal/lock"
	"github.com/thinkingscript/tidy/internal/logging"
	"github.com/thinkingscript/tidy/internal/scan"
	"github.com/thinkingscript/tidy/internal/trash"
)

type Action int

const (
	Cancel Action = iota
	MoveToTrash
	DeletePermanent
)

func (a Action) String() string {
	switch a {
	case MoveToTrash:
		return "move to trash"
	case DeletePermanent:
		return "delete permanently"
	default:
		return "cancel"
	}
}

// ConfirmToken must be typed (any case) to allow permanent deletion.
const ConfirmToken = "yes"

// Confirmed reports whether s is the confirmation token.
func Confirmed(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), ConfirmToken)
}

// Outcome records one entry that was moved or deleted.
type Outcome struct {
	Entry  scan.Entry
	Result string
	// Dest is the new location for moved entries.
	Dest string
}

// ItemError records one entry that could not be processed.
type ItemError struct {
	Entry scan.Entry
	Err   error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Entry.Path, e.Err)
}

type Report struct {
	Action     Action
	Items      []Outcome
	Errors     []ItemError
	HoldingDir string
	Trashed    bool
}

// Empty reports whether nothing was attempted.
func (r *Report) Empty() bool {
	return len(r.Items) == 0 && len(r.Errors) == 0
}

type Executor struct {
	Trash       trash.Func
	Now         func() time.Time
	Logger      *slog.Logger
	HoldingRoot string
	Prefix      string
	// LockDir, when set, holds the per-root lock files that keep two
	// sessions from disposing of the same tree concurrently.
	LockDir string
}

// NewExecutor returns an executor that creates holding directories under
// root and uses the platform trash.
func NewExecutor(root string, logger *slog.Logger) *Executor {
	return &Executor{
		Trash:       trash.Move,
		Now:         time.Now,
		Logger:      logger,
		HoldingRoot: root,
		Prefix:      PlatformPrefix(runtime.GOOS),
	}
}

// PlatformPrefix returns the holding directory prefix for goos.
func PlatformPrefix(goos string) string {
	switch goos {
	case "darwin":
		return "mac"
	case "windows":
		return "pc"
	default:
		return "linux"
	}
}

// HoldingName returns "{prefix}-clean-DD-MM-YYYY".
func HoldingName(prefix string, t time.Time) string {
	return prefix + "-clean-" + t.Format("02-01-2006")
}

// SizedName embeds the human-readable size into a file or directory name:
// notes.txt becomes notes-0B.txt, cache becomes cache-0B.
func SizedName(name string, isDir bool, size int64) string {
	if size < 0 {
		size = 0
	}
	label := strings.ReplaceAll(humanize.IBytes(uint64(size)), " ", "")
	if isDir {
		return name + "-" + label
	}
	stem, ext := splitExt(name)
	return stem + "-" + label + ext
}

func splitExt(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	if ext == name || strings.HasPrefix(name, ".") && strings.Count(name, ".") == 1 {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}

// Dispose applies action to every entry in res. Per-entry failures are
// collected in the report; the returned error covers the batch as a whole.
func (x *Executor) Dispose(res *scan.Result, action Action, confirmation string) (*Report, error) {
	report := &Report{Action: action}
	if res == nil || action == Cancel {
		return report, nil
	}

	if x.LockDir != "" {
		l, err := lock.Acquire(x.LockDir, res.Root)
		if err != nil {
			x.log().Warn("disposal lock unavailable", "root", res.Root, "error", err)
			return report, err
		}
		defer l.Release()
	}

	switch action {
	case MoveToTrash:
		return report, x.moveToTrash(res, report)
	case DeletePermanent:
		if !Confirmed(confirmation) {
			x.log().Info("permanent deletion declined", "root", res.Root)
			return report, ErrConfirmationDeclined
		}
		x.deletePermanent(res, report)
		return report, nil
	default:
		return report, fmt.Errorf("unknown action %d", int(action))
	}
}

func (x *Executor) moveToTrash(res *scan.Result, report *Report) error {
	if res.Empty() {
		return nil
	}

	holding := filepath.Join(x.HoldingRoot, HoldingName(x.Prefix, x.now()))
	if err := os.MkdirAll(holding, 0755); err != nil {
		return fmt.Errorf("creating holding directory: %w", err)
	}
	report.HoldingDir = holding

	entries := make([]scan.Entry, 0, len(res.EmptyDirs)+len(res.EmptyFiles))
	entries = append(entries, res.EmptyDirs...)
	entries = append(entries, res.EmptyFiles...)

	for _, e := range entries {
		if err := verify(e); err != nil {
			x.fail(report, "move", e, err)
			continue
		}
		dest := uniqueDest(holding, SizedName(e.Name(), e.IsDir, e.Size))
		if err := os.Rename(e.Path, dest); err != nil {
			x.fail(report, "move", e, err)
			continue
		}
		x.ok(report, "move", e, "moved to "+dest, dest)
	}

	if len(report.Items) == 0 {
		// Nothing landed in the holding directory.
		if err := os.Remove(holding); err == nil {
			x.log().Info("removed unused holding directory", "path", holding)
		}
		return nil
	}

	trashFn := x.Trash
	if trashFn == nil {
		trashFn = trash.Move
	}
	if err := trashFn(holding); err != nil {
		x.log().Error("trash failed", "path", holding, "error", err)
		return fmt.Errorf("moving %s to trash: %w", holding, err)
	}
	report.Trashed = true
	x.log().Info("holding directory trashed", "path", holding, "items", len(report.Items))
	return nil
}

func (x *Executor) deletePermanent(res *scan.Result, report *Report) {
	for _, e := range res.EmptyFiles {
		x.remove(report, e)
	}
	// EmptyDirs is in descending path order so children go before parents.
	for _, e := range res.EmptyDirs {
		x.remove(report, e)
	}
}

func (x *Executor) remove(report *Report, e scan.Entry) {
	if err := verify(e); err != nil {
		x.fail(report, "delete", e, err)
		return
	}
	// os.Remove never recurses; a directory that filled up fails here.
	if err := os.Remove(e.Path); err != nil {
		x.fail(report, "delete", e, err)
		return
	}
	x.ok(report, "delete", e, "deleted", "")
}

// verify re-checks the emptiness predicate right before mutation.
func verify(e scan.Entry) error {
	var (
		empty bool
		err   error
	)
	if e.IsDir {
		empty, err = scan.IsEmptyDir(e.Path)
	} else {
		empty, err = scan.IsEmptyFile(e.Path)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	if !empty {
		reason := "file is no longer empty"
		if e.IsDir {
			reason = "directory is no longer empty"
		}
		return &RaceConditionError{Path: e.Path, Reason: reason}
	}
	return nil
}

// uniqueDest returns dir/name, or dir/name-N when that is taken.
func uniqueDest(dir, name string) string {
	dest := filepath.Join(dir, name)
	if _, err := os.Lstat(dest); errors.Is(err, fs.ErrNotExist) {
		return dest
	}
	stem, ext := splitExt(name)
	for i := 1; ; i++ {
		dest = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
		if _, err := os.Lstat(dest); errors.Is(err, fs.ErrNotExist) {
			return dest
		}
	}
}

func (x *Executor) ok(report *Report, op string, e scan.Entry, result, dest string) {
	report.Items = append(report.Items, Outcome{Entry: e, Result: result, Dest: dest})
	x.log().Info("disposed", "op", op, "path", e.Path, "outcome", result)
}

func (x *Executor) fail(report *Report, op string, e scan.Entry, err error) {
	report.Errors = append(report.Errors, ItemError{Entry: e, Err: err})
	x.log().Warn("dispose failed", "op", op, "path", e.Path, "error", err)
}

func (x *Executor) now() time.Time {
	if x.Now != nil {
		return x.Now()
	}
	return time.Now()
}

func (x *Executor) log() *slog.Logger {
	return logging.OrDiscard(x.Logger)
}
