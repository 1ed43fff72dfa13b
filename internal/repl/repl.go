// Package repl runs the read-dispatch-print loop.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/thinkingscript/tidy/internal/assistant"
	"github.com/thinkingscript/tidy/internal/logging"
	"github.com/thinkingscript/tidy/internal/prompt"
	"github.com/thinkingscript/tidy/internal/ui"
)

const (
	Banner  = "tidy: find and clean up empty files and folders. Type 'help' for commands, 'exit' to quit."
	Goodbye = "Goodbye!"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, input string) (string, error)
	Cwd() string
}

type Config struct {
	Dispatcher Dispatcher
	Reader     prompt.LineReader
	Out        io.Writer
	Logger     *slog.Logger
	// Home, when set, is shown as ~ in the prompt.
	Home string
}

// Run reads lines until exit, end of input or ctx cancellation. A failing
// or panicking command prints one line and the loop continues.
func Run(ctx context.Context, cfg Config) error {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	log := logging.OrDiscard(cfg.Logger)
	log.Info("session started", "cwd", cfg.Dispatcher.Cwd())

	fmt.Fprintln(out, ui.Muted.Render(Banner))
	for {
		if ctx.Err() != nil {
			return bye(out, log, "cancelled")
		}

		line, err := readLine(ctx, cfg.Reader, promptFor(cfg.Dispatcher.Cwd(), cfg.Home))
		if ctx.Err() != nil {
			restore(cfg.Reader)
			fmt.Fprintln(out)
			return bye(out, log, "cancelled")
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, prompt.ErrInterrupted) {
				fmt.Fprintln(out)
				return bye(out, log, "end of input")
			}
			log.Error("reading input", "error", err)
			bye(out, log, "read error")
			return fmt.Errorf("reading input: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		result, err := dispatch(ctx, cfg.Dispatcher, line, log)
		if errors.Is(err, assistant.ErrExit) {
			return bye(out, log, "exit")
		}
		if err != nil {
			fmt.Fprintln(out, ui.Danger.Render("Error: "+firstLine(err.Error())))
			continue
		}
		if result != "" {
			fmt.Fprint(out, result)
			if !strings.HasSuffix(result, "\n") {
				fmt.Fprintln(out)
			}
		}
	}
}

type readResult struct {
	line string
	err  error
}

// readLine returns early when ctx is cancelled. The pending read is left to
// finish on its own; the session is ending at that point.
func readLine(ctx context.Context, r prompt.LineReader, p string) (string, error) {
	ch := make(chan readResult, 1)
	go func() {
		line, err := r.ReadLine(p)
		ch <- readResult{line, err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		return res.line, res.err
	}
}

// restore gives the terminal back when a read was abandoned mid-edit.
func restore(r prompt.LineReader) {
	if rr, ok := r.(interface{ Restore() }); ok {
		rr.Restore()
	}
}

func dispatch(ctx context.Context, d Dispatcher, line string, log *slog.Logger) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("command panic", "input", line, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			out, err = "", fmt.Errorf("internal error: %v", r)
		}
	}()
	return d.Dispatch(ctx, line)
}

func bye(out io.Writer, log *slog.Logger, reason string) error {
	fmt.Fprintln(out, ui.Success.Render(Goodbye))
	log.Info("session ended", "reason", reason)
	return nil
}

func promptFor(cwd, home string) string {
	if home != "" {
		if cwd == home {
			cwd = "~"
		} else if rel, err := filepath.Rel(home, cwd); err == nil && !strings.HasPrefix(rel, "..") {
			cwd = filepath.Join("~", rel)
		}
	}
	return cwd + "> "
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
