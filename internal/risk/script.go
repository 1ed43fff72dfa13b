package risk

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"

	"github.com/thinkingscript/tidy/internal/logging"
	"github.com/thinkingscript/tidy/internal/scan"
)

const DefaultScriptTimeout = 200 * time.Millisecond

// ScriptRule classifies entries with a user-supplied JavaScript function:
//
//	function classify(file) { // file: {path, name, parent, ext, size}
//	  if (file.parent === "fixtures") return "caution";
//	}
//
// Returning "safe", "caution" or "unsafe" picks a bucket. Anything else, a
// thrown error, or a timeout defers to the next rule.
type ScriptRule struct {
	Path    string
	Timeout time.Duration
	Logger  *slog.Logger

	vm       *goja.Runtime
	classify goja.Callable
}

// LoadScriptRule compiles the file at path. A missing file returns
// (nil, nil) so callers can treat the hook as optional. Scripts may
// require() modules that live next to them.
func LoadScriptRule(path string, logger *slog.Logger) (*ScriptRule, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	return compileScriptRule(path, string(src), logger)
}

func compileScriptRule(path, src string, logger *slog.Logger) (*ScriptRule, error) {
	dir := filepath.Dir(path)
	vm := goja.New()
	registry := require.NewRegistry(
		require.WithLoader(func(p string) ([]byte, error) {
			abs := p
			if !filepath.IsAbs(abs) {
				abs = filepath.Join(dir, p)
			}
			abs = filepath.Clean(abs)
			if abs != dir && !strings.HasPrefix(abs, dir+string(filepath.Separator)) {
				return nil, require.ModuleFileDoesNotExistError
			}
			return os.ReadFile(abs)
		}),
	)
	registry.Enable(vm)

	if _, err := vm.RunScript(path, src); err != nil {
		return nil, fmt.Errorf("loading %s: %s", path, jsError(err))
	}
	fn, ok := goja.AssertFunction(vm.Get("classify"))
	if !ok {
		return nil, fmt.Errorf("loading %s: no classify(file) function", path)
	}
	return &ScriptRule{
		Path:     path,
		Timeout:  DefaultScriptTimeout,
		Logger:   logging.OrDiscard(logger),
		vm:       vm,
		classify: fn,
	}, nil
}

func (r *ScriptRule) Classify(e scan.Entry) (b Bucket, ok bool) {
	if r == nil || r.classify == nil {
		return Unsafe, false
	}

	if r.Timeout > 0 {
		timer := time.AfterFunc(r.Timeout, func() {
			r.vm.Interrupt("classify timed out")
		})
		defer func() {
			timer.Stop()
			r.vm.ClearInterrupt()
		}()
	}

	defer func() {
		if p := recover(); p != nil {
			r.Logger.Warn("rule panic", "rules", r.Path, "path", e.Path, "panic", fmt.Sprint(p))
			b, ok = Unsafe, false
		}
	}()

	v, err := r.classify(goja.Undefined(), r.vm.ToValue(fileObject(e)))
	if err != nil {
		r.Logger.Warn("rule error", "rules", r.Path, "path", e.Path, "error", jsError(err))
		return Unsafe, false
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return Unsafe, false
	}
	return ParseBucket(v.String())
}

func fileObject(e scan.Entry) map[string]any {
	name := filepath.Base(e.Path)
	return map[string]any{
		"path":   e.Path,
		"name":   name,
		"parent": filepath.Base(filepath.Dir(e.Path)),
		"ext":    strings.ToLower(filepath.Ext(name)),
		"size":   e.Size,
	}
}

func jsError(err error) string {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return ex.Value().String()
	}
	return err.Error()
}
