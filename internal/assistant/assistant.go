// Package assistant turns one line of user input into a file-system action
// and returns the text to print.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/thinkingscript/tidy/internal/advisor"
	"github.com/thinkingscript/tidy/internal/dispose"
	"github.com/thinkingscript/tidy/internal/logging"
	"github.com/thinkingscript/tidy/internal/prompt"
	"github.com/thinkingscript/tidy/internal/risk"
	"github.com/thinkingscript/tidy/internal/scan"
	"github.com/thinkingscript/tidy/internal/shell"
	"github.com/thinkingscript/tidy/internal/ui"
)

// ErrExit is returned by Dispatch when the user typed "exit".
var ErrExit = errors.New("exit")

type Config struct {
	Cwd     string
	Home    string
	Aliases map[string]string

	Skip      *scan.Skipper
	Bucketer  *risk.Bucketer
	Executor  *dispose.Executor
	Advisor   *advisor.Advisor
	MaxChecks int

	Prompter prompt.Prompter
	Shell    shell.Runner
	Logger   *slog.Logger
	// Out receives the summary printed during cleanup, before prompting.
	Out     io.Writer
	Spinner func(msg string) func()
}

type Assistant struct {
	cfg     Config
	cwd     string
	home    string
	aliases map[string]string
	history []string
	log     *slog.Logger
}

func New(cfg Config) *Assistant {
	if cfg.Home == "" {
		cfg.Home, _ = os.UserHomeDir()
	}
	if cfg.Cwd == "" {
		cfg.Cwd, _ = os.Getwd()
	}
	if cfg.Skip == nil {
		cfg.Skip = scan.DefaultSkipper()
	}
	if cfg.Executor == nil {
		cfg.Executor = dispose.NewExecutor(cfg.Cwd, cfg.Logger)
	}
	if cfg.Shell == nil {
		cfg.Shell = shell.Run
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Spinner == nil {
		cfg.Spinner = ui.Spinner
	}
	if cfg.MaxChecks <= 0 {
		cfg.MaxChecks = 5
	}

	a := &Assistant{
		cfg:  cfg,
		cwd:  filepath.Clean(cfg.Cwd),
		home: cfg.Home,
		log:  logging.OrDiscard(cfg.Logger),
		aliases: map[string]string{
			"desktop":   filepath.Join(cfg.Home, "Desktop"),
			"downloads": filepath.Join(cfg.Home, "Downloads"),
			"documents": filepath.Join(cfg.Home, "Documents"),
			"home":      cfg.Home,
		},
	}
	for name, target := range cfg.Aliases {
		a.aliases[strings.ToLower(strings.TrimSpace(name))] = a.expandHome(target)
	}
	return a
}

// Cwd returns the current working path.
func (a *Assistant) Cwd() string { return a.cwd }

// History returns every dispatched line in order.
func (a *Assistant) History() []string {
	return append([]string(nil), a.history...)
}

// Dispatch handles one line. Matching is case-insensitive; arguments keep
// their original case.
func (a *Assistant) Dispatch(ctx context.Context, input string) (string, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return "", nil
	}
	a.history = append(a.history, raw)
	a.log.Debug("dispatch", "input", raw, "cwd", a.cwd)

	lower := strings.ToLower(raw)
	if lower == "exit" {
		return "", ErrExit
	}
	if strings.HasPrefix(raw, "!") {
		return a.runShell(ctx, raw[1:]), nil
	}
	if out, ok := a.keyword(ctx, raw, lower); ok {
		return out, nil
	}
	if out, ok := a.intent(ctx, raw, lower); ok {
		return out, nil
	}
	return fallbackHelp, nil
}

func (a *Assistant) keyword(ctx context.Context, raw, lower string) (string, bool) {
	word, rest := splitWord(raw)
	word = strings.ToLower(word)

	switch lower {
	case "help", "?", "what can i do?":
		return helpText, true
	case "ls", "list", "show directories", "show directory contents":
		return a.list(a.cwd), true
	case "..":
		return a.changeDirectory(".."), true
	case "history":
		return a.showHistory(), true
	}

	switch {
	case word == "cd":
		return a.changeDirectory(rest), true
	case lower == "go to" || strings.HasPrefix(lower, "go to "):
		return a.changeDirectory(strings.TrimSpace(raw[len("go to"):])), true
	case word == "cat":
		return a.showContent(rest), true
	case strings.HasPrefix(lower, "show content "):
		return a.showContent(strings.TrimSpace(raw[len("show content "):])), true
	case word == "search" || word == "find" && !strings.Contains(strings.ToLower(rest), "empty"):
		return a.search(rest), true
	case word == "analyze":
		return a.analyze(rest), true
	}

	if _, ok := a.aliases[lower]; ok {
		return a.changeDirectory(lower), true
	}
	return "", false
}

func (a *Assistant) intent(ctx context.Context, raw, lower string) (string, bool) {
	// Read-only requests win over cleanup when both match.
	switch {
	case strings.HasPrefix(lower, "what's in "):
		return a.whatsIn(strings.TrimSpace(raw[len("what's in "):])), true
	case containsAny(lower, "what's in", "show directory", "show me what's", "contents"):
		return a.list(a.cwd), true
	case containsAny(lower, "show empty files", "show me empty files"):
		return a.showEmpty(true, false), true
	case containsAny(lower, "show empty directories", "show me empty directories", "show empty folders", "show me empty folders"):
		return a.showEmpty(false, true), true
	case (strings.HasPrefix(lower, "find ") || strings.HasPrefix(lower, "show ")) && strings.Contains(lower, "empty"):
		files := strings.Contains(lower, "file")
		dirs := containsAny(lower, "director", "folder")
		if !files && !dirs {
			files, dirs = true, true
		}
		return a.showEmpty(files, dirs), true
	case containsAny(lower, "delete", "remove", "clean") && strings.Contains(lower, "empty"):
		return a.cleanup(ctx), true
	}
	return "", false
}

func (a *Assistant) runShell(ctx context.Context, command string) string {
	if strings.TrimSpace(command) == "" {
		return "Usage: !<command>"
	}
	a.log.Info("shell", "command", command, "cwd", a.cwd)
	res, err := a.cfg.Shell(ctx, a.cwd, command)
	if err != nil {
		a.log.Warn("shell failed", "command", command, "error", err)
		return ui.Danger.Render(fmt.Sprintf("Failed to execute command: %v", err))
	}
	return res.Output()
}

func (a *Assistant) showHistory() string {
	past := a.history[:len(a.history)-1]
	if len(past) == 0 {
		return "No commands yet."
	}
	var sb strings.Builder
	for i, h := range past {
		fmt.Fprintf(&sb, "%3d  %s\n", i+1, h)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func splitWord(s string) (word, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

const helpText = `Available Commands:
1. Navigation:
   - cd <path>, go to <path>: Change directory
   - ls, list: Show directory contents
   - desktop, downloads, documents, home: Quick navigation

2. File Operations:
   - find empty: Find empty files and directories
   - delete empty: Remove empty files/folders
   - cat, show content <file>: View file contents
   - search <term>, find <term>: Search by name or glob (e.g. search **/*.log)
   - analyze [path]: Totals and most recent files

3. System Commands:
   - !<command>: Execute system command (e.g., !echo test)
   - history: Show previous commands

4. Natural Language:
   - "What's in this directory?"
   - "Show me empty files"
   - "Clean up empty folders"

Type 'exit' to quit`

const fallbackHelp = `Not sure what you want to do. Try:
- A terminal command prefixed with ! (!ls, !grep, etc.)
- Ask 'What's in <location>?'
- Type 'help' for more options`
