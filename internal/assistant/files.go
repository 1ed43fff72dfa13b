package assistant

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"

	"github.com/thinkingscript/tidy/internal/scan"
	"github.com/thinkingscript/tidy/internal/ui"
)

const (
	largeFile     = 1 << 20
	maxSearchHits = 200
	recentFiles   = 10
)

func (a *Assistant) search(term string) string {
	term = strings.Trim(strings.TrimSpace(term), `"'`)
	if term == "" {
		return "Usage: search <term>"
	}
	glob := strings.ContainsAny(term, "*?[{")
	needle := strings.ToLower(term)
	if glob && !doublestar.ValidatePattern(needle) {
		return ui.Danger.Render("Invalid pattern: " + term)
	}

	var hits []string
	total := 0
	err := scan.Walk(a.cwd, a.cfg.Skip, func(path string, d fs.DirEntry) error {
		name := strings.ToLower(d.Name())
		rel := strings.ToLower(filepath.ToSlash(a.rel(path)))

		var match bool
		if glob {
			match, _ = doublestar.Match(needle, rel)
			if !match {
				match, _ = doublestar.Match(needle, name)
			}
		} else {
			match = strings.Contains(name, needle)
		}
		if match {
			total++
			if len(hits) < maxSearchHits {
				hits = append(hits, a.rel(path))
			}
		}
		return nil
	})
	if err != nil {
		return ui.Danger.Render(fmt.Sprintf("Error searching files: %v", err))
	}
	if total == 0 {
		return fmt.Sprintf("No files found matching '%s'", term)
	}

	lines := []string{ui.Success.Render("Found matches:")}
	for _, h := range hits {
		lines = append(lines, "- "+h)
	}
	if total > len(hits) {
		lines = append(lines, fmt.Sprintf("... and %d more", total-len(hits)))
	}
	return strings.Join(lines, "\n")
}

func (a *Assistant) showContent(name string) string {
	name = strings.Trim(strings.TrimSpace(name), `"'`)
	if name == "" {
		return "Usage: cat <file>"
	}
	path := a.resolve(name)
	info, err := os.Stat(path)
	if err != nil {
		return ui.Danger.Render("File not found: " + name)
	}
	if info.IsDir() {
		return ui.Warning.Render(name + " is a directory")
	}
	if info.Size() > largeFile {
		if a.cfg.Prompter == nil {
			return "File is large; not shown."
		}
		ok, err := a.cfg.Prompter.Confirm(fmt.Sprintf("File is large (%s). View anyway?", humanize.IBytes(uint64(info.Size()))))
		if err != nil || !ok {
			return "Operation cancelled"
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ui.Danger.Render(fmt.Sprintf("Error reading file: %v", err))
	}
	if !utf8.Valid(data) {
		return ui.Warning.Render(name + " looks like a binary file; not shown.")
	}
	return ui.Accent.Render("=== "+name+" ===") + "\n" + strings.TrimRight(string(data), "\n")
}

type fileStat struct {
	rel  string
	size int64
	mod  time.Time
}

func (a *Assistant) analyze(arg string) string {
	dir := a.cwd
	if strings.TrimSpace(arg) != "" {
		dir = a.resolve(arg)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return ui.Danger.Render("Directory does not exist: " + dir)
	}

	stop := a.cfg.Spinner("Analyzing " + dir)
	var (
		files []fileStat
		total int64
		types = map[string]int{}
	)
	err := scan.Walk(dir, a.cfg.Skip, func(path string, d fs.DirEntry) error {
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(dir, path)
		files = append(files, fileStat{rel: rel, size: info.Size(), mod: info.ModTime()})
		total += info.Size()
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext == "" {
			ext = "(none)"
		}
		types[ext]++
		return nil
	})
	stop()
	if err != nil {
		return ui.Danger.Render(fmt.Sprintf("Error analyzing directory: %v", err))
	}

	sort.Slice(files, func(i, j int) bool { return files[i].mod.After(files[j].mod) })

	lines := []string{
		ui.Success.Render("Directory Analysis for: " + dir),
		"Total Files: " + humanize.Comma(int64(len(files))),
		"Total Size: " + humanize.IBytes(uint64(total)),
	}

	if len(types) > 0 {
		exts := make([]string, 0, len(types))
		for ext := range types {
			exts = append(exts, ext)
		}
		sort.Slice(exts, func(i, j int) bool {
			if types[exts[i]] != types[exts[j]] {
				return types[exts[i]] > types[exts[j]]
			}
			return exts[i] < exts[j]
		})
		if len(exts) > 5 {
			exts = exts[:5]
		}
		lines = append(lines, "", ui.Warning.Render("File Types:"))
		for _, ext := range exts {
			lines = append(lines, fmt.Sprintf("  %s: %d", ext, types[ext]))
		}
	}

	if len(files) > 0 {
		lines = append(lines, "", ui.Warning.Render("Most Recent Files:"))
		for i, f := range files {
			if i == recentFiles {
				break
			}
			lines = append(lines, fmt.Sprintf("  %s (%s, %s)", f.rel, humanize.IBytes(uint64(f.size)),
				f.mod.Format("2006-01-02")))
		}
	}
	return strings.Join(lines, "\n")
}
