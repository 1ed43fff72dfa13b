package assistant

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/thinkingscript/tidy/internal/dispose"
	"github.com/thinkingscript/tidy/internal/prompt"
	"github.com/thinkingscript/tidy/internal/risk"
	"github.com/thinkingscript/tidy/internal/scan"
	"github.com/thinkingscript/tidy/internal/ui"
)

const confirmPrompt = "Are you sure you want to permanently delete these items? (type 'yes' to confirm):"

func (a *Assistant) scanCwd() (*scan.Result, error) {
	stop := a.cfg.Spinner("Scanning " + a.cwd)
	defer stop()
	return scan.Scan(a.cwd, scan.Options{Skip: a.cfg.Skip, Logger: a.cfg.Logger})
}

func (a *Assistant) showEmpty(files, dirs bool) string {
	res, err := a.scanCwd()
	if err != nil {
		return ui.Danger.Render(fmt.Sprintf("Could not scan: %v", err))
	}

	var lines []string
	if files {
		if len(res.EmptyFiles) == 0 {
			lines = append(lines, ui.Success.Render("No empty files found."))
		} else {
			lines = append(lines, ui.Accent.Render(fmt.Sprintf("Found empty files (%d):", len(res.EmptyFiles))))
			for _, e := range res.EmptyFiles {
				lines = append(lines, a.item(e))
			}
		}
	}
	if dirs {
		if files {
			lines = append(lines, "")
		}
		if len(res.EmptyDirs) == 0 {
			lines = append(lines, ui.Success.Render("No empty directories found."))
		} else {
			lines = append(lines, ui.Accent.Render(fmt.Sprintf("Found empty directories (%d):", len(res.EmptyDirs))))
			for _, e := range res.EmptyDirs {
				lines = append(lines, a.item(e))
			}
		}
	}
	if note := accessNote(res); note != "" {
		lines = append(lines, "", note)
	}
	return strings.Join(lines, "\n")
}

// cleanup runs scan, bucketing, advisory checks, the action prompt and the
// executor, then formats the report.
func (a *Assistant) cleanup(ctx context.Context) string {
	res, err := a.scanCwd()
	if err != nil {
		return ui.Danger.Render(fmt.Sprintf("Could not scan: %v", err))
	}
	if res.Empty() {
		msg := ui.Success.Render("No empty files or folders found.")
		if note := accessNote(res); note != "" {
			msg += "\n" + note
		}
		return msg
	}

	a.printSummary(res)
	a.printBuckets(a.cfg.Bucketer.Bucket(res.EmptyFiles))
	a.printAdvice(ctx, res)

	if a.cfg.Prompter == nil {
		return ui.Warning.Render("No interactive prompt available. Operation cancelled.")
	}
	action, err := a.cfg.Prompter.ChooseAction()
	if err != nil {
		if errors.Is(err, prompt.ErrInvalidChoice) {
			return ui.Danger.Render("Invalid choice. Operation cancelled.")
		}
		return ui.Warning.Render("Operation cancelled.")
	}
	if action == dispose.Cancel {
		return ui.Warning.Render("Operation cancelled.")
	}

	var token string
	if action == dispose.DeletePermanent {
		token, err = a.cfg.Prompter.ConfirmToken(confirmPrompt)
		if err != nil {
			return ui.Warning.Render("Operation cancelled.")
		}
		if dispose.Confirmed(token) && a.cfg.Advisor != nil {
			stop := a.cfg.Spinner("Asking the advisor")
			ok := a.cfg.Advisor.ConfirmDeletion(ctx, a.cwd)
			stop()
			if !ok {
				fmt.Fprintln(a.cfg.Out, ui.Warning.Render("AI check did not confirm this deletion; going ahead on your confirmation."))
			}
		}
	}

	x := *a.cfg.Executor
	x.HoldingRoot = a.cwd
	if x.Logger == nil {
		x.Logger = a.cfg.Logger
	}
	report, err := x.Dispose(res, action, token)
	if errors.Is(err, dispose.ErrConfirmationDeclined) {
		return ui.Warning.Render("Operation cancelled. Nothing was deleted.")
	}
	return a.formatReport(report, err)
}

func (a *Assistant) printSummary(res *scan.Result) {
	out := a.cfg.Out
	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.Accent.Render("About Empty Files and Directories:"))
	fmt.Fprintln(out, "- Empty files (0 bytes) have no content to lose")
	fmt.Fprintln(out, "- Empty directories contain no files, not even hidden ones")
	fmt.Fprintln(out, "- Moving to trash can be undone; permanent deletion cannot")

	if len(res.EmptyFiles) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, ui.Accent.Render(fmt.Sprintf("Empty files found (%d):", len(res.EmptyFiles))))
		for _, e := range res.EmptyFiles {
			fmt.Fprintln(out, a.item(e))
		}
	}
	if len(res.EmptyDirs) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, ui.Accent.Render(fmt.Sprintf("Empty directories found (%d):", len(res.EmptyDirs))))
		for _, e := range res.EmptyDirs {
			fmt.Fprintln(out, a.item(e))
		}
	}
	if note := accessNote(res); note != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, note)
	}
}

func (a *Assistant) printBuckets(b risk.Buckets) {
	if b.Len() == 0 {
		return
	}
	sections := []struct {
		title   string
		render  func(...string) string
		mark    string
		entries []scan.Entry
	}{
		{"Safe to delete:", ui.Success.Render, "✓", b.Safe},
		{"Proceed with caution:", ui.Warning.Render, "!", b.Caution},
		{"Review carefully:", ui.Danger.Render, "✗", b.Unsafe},
	}
	for _, s := range sections {
		if len(s.entries) == 0 {
			continue
		}
		fmt.Fprintln(a.cfg.Out)
		fmt.Fprintln(a.cfg.Out, s.render(s.title))
		for _, e := range s.entries {
			fmt.Fprintf(a.cfg.Out, "  %s %s (in %s)\n", s.mark, e.Name(), filepath.Base(filepath.Dir(e.Path)))
		}
	}
}

// printAdvice shows the advisor's opinion. It never changes what happens.
func (a *Assistant) printAdvice(ctx context.Context, res *scan.Result) {
	if a.cfg.Advisor == nil {
		return
	}
	out := a.cfg.Out
	stop := a.cfg.Spinner("Asking the advisor")
	ok := a.cfg.Advisor.Recommend(ctx, a.cwd)

	var flagged []scan.Entry
	checked := 0
	candidates := append(append([]scan.Entry{}, res.EmptyDirs...), res.EmptyFiles...)
	for _, e := range candidates {
		if checked == a.cfg.MaxChecks {
			break
		}
		if !e.IsDir && a.cfg.Bucketer.Classify(e) == risk.Safe {
			continue
		}
		checked++
		if !a.cfg.Advisor.Validate(ctx, e.Path) {
			flagged = append(flagged, e)
		}
	}
	stop()

	fmt.Fprintln(out)
	if ok {
		fmt.Fprintln(out, ui.Success.Render("AI check: this location looks safe to clean."))
	} else {
		fmt.Fprintln(out, ui.Warning.Render("AI check: no confirmation available; review the list yourself."))
	}
	for _, e := range flagged {
		fmt.Fprintf(out, "  ? %s was not confirmed safe\n", a.rel(e.Path))
	}
}

func (a *Assistant) formatReport(report *dispose.Report, batchErr error) string {
	var files, dirs []string
	for _, it := range report.Items {
		line := "  - " + a.rel(it.Entry.Path)
		if it.Entry.IsDir {
			line += "/"
		}
		if it.Dest != "" {
			line += " -> " + filepath.Base(it.Dest)
		} else {
			line += " (" + it.Result + ")"
		}
		if it.Entry.IsDir {
			dirs = append(dirs, line)
		} else {
			files = append(files, line)
		}
	}

	moved := report.Action == dispose.MoveToTrash
	var lines []string
	add := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		lines = append(lines, "", ui.Success.Render(title))
		lines = append(lines, items...)
	}
	if moved {
		add("Moved files to trash:", files)
		add("Moved directories to trash:", dirs)
	} else {
		add("Processed files:", files)
		add("Processed directories:", dirs)
	}

	if len(report.Errors) > 0 {
		lines = append(lines, "", ui.Danger.Render("Errors:"))
		for _, e := range report.Errors {
			lines = append(lines, fmt.Sprintf("  - %s: %s", a.rel(e.Entry.Path), itemMessage(e.Err)))
		}
	}

	switch {
	case batchErr != nil:
		lines = append(lines, "", ui.Danger.Render(fmt.Sprintf("Error: %v", batchErr)))
		if report.HoldingDir != "" && len(report.Items) > 0 {
			lines = append(lines, "The items are still in "+report.HoldingDir)
		}
	case len(report.Items) == 0:
		lines = append(lines, "", ui.Warning.Render("No items were processed."))
	case moved && report.Trashed:
		lines = append(lines, "",
			ui.Success.Render(fmt.Sprintf("All items have been organized in %s and moved to trash", filepath.Base(report.HoldingDir))),
			"You can restore them if needed.")
	case !moved:
		n := len(report.Items)
		lines = append(lines, "", ui.Warning.Render(fmt.Sprintf("%d %s permanently deleted", n, plural(n, "item has been", "items have been"))))
	}
	return strings.TrimLeft(strings.Join(lines, "\n"), "\n")
}

func itemMessage(err error) string {
	var race *dispose.RaceConditionError
	if errors.As(err, &race) {
		return race.Reason + " since scan"
	}
	return err.Error()
}

func (a *Assistant) item(e scan.Entry) string {
	name := a.rel(e.Path)
	if e.IsDir {
		name += "/"
	}
	return fmt.Sprintf("  - %s (%s)", name, humanize.IBytes(uint64(e.Size)))
}

func accessNote(res *scan.Result) string {
	if len(res.AccessErrors) == 0 {
		return ""
	}
	return ui.Muted.Render(fmt.Sprintf("%d %s could not be read and %s skipped.",
		len(res.AccessErrors), plural(len(res.AccessErrors), "path", "paths"), plural(len(res.AccessErrors), "was", "were")))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
