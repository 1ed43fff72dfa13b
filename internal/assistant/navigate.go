package assistant

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/thinkingscript/tidy/internal/ui"
)

func (a *Assistant) expandHome(p string) string {
	if p == "~" {
		return a.home
	}
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		return filepath.Join(a.home, p[2:])
	}
	return p
}

// resolve turns user input into an absolute path: "..", "~", aliases, then
// paths relative to the current directory.
func (a *Assistant) resolve(p string) string {
	p = strings.Trim(strings.TrimSpace(p), `"'`)
	switch strings.ToLower(p) {
	case "", "~":
		return a.home
	case ".":
		return a.cwd
	case "..":
		return filepath.Dir(a.cwd)
	}
	if target, ok := a.aliases[strings.ToLower(p)]; ok {
		return target
	}
	p = a.expandHome(p)
	if !filepath.IsAbs(p) {
		p = filepath.Join(a.cwd, p)
	}
	return filepath.Clean(p)
}

func (a *Assistant) changeDirectory(p string) string {
	target := a.resolve(p)
	info, err := os.Stat(target)
	if err != nil {
		return ui.Danger.Render("Directory does not exist: " + target)
	}
	if !info.IsDir() {
		return ui.Danger.Render("Not a directory: " + target)
	}
	a.cwd = target
	a.log.Info("changed directory", "cwd", target)
	return ui.Success.Render("Changed directory to: "+target) + "\n\n" + a.list(target)
}

func (a *Assistant) whatsIn(target string) string {
	target = strings.TrimRight(target, "?")
	switch strings.ToLower(strings.TrimSpace(target)) {
	case "", "here", "this directory", "this folder", "the current directory":
		return a.list(a.cwd)
	}
	dir := a.resolve(target)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return a.list(dir)
	}
	return a.list(a.cwd)
}

func (a *Assistant) list(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		a.log.Warn("list failed", "dir", dir, "error", err)
		return ui.Danger.Render(fmt.Sprintf("Could not list directory contents: %v", err))
	}

	var dirs, files []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, "📁 "+e.Name()+"/")
			continue
		}
		info, err := e.Info()
		if err != nil {
			files = append(files, "📄 "+e.Name())
			continue
		}
		files = append(files, fmt.Sprintf("📄 %s (%s, modified: %s)",
			e.Name(), humanize.IBytes(uint64(info.Size())), info.ModTime().Format("2006-01-02 15:04")))
	}
	sort.Strings(dirs)
	sort.Strings(files)

	header := "Current directory contents:"
	if dir != a.cwd {
		header = "Contents of " + dir + ":"
	}
	lines := []string{ui.Warning.Render(header)}
	if len(dirs)+len(files) == 0 {
		lines = append(lines, "(empty)")
	}
	for _, d := range dirs {
		lines = append(lines, ui.Accent.Render(d))
	}
	lines = append(lines, files...)
	return strings.Join(lines, "\n")
}

// rel shows path relative to the current directory when possible.
func (a *Assistant) rel(path string) string {
	r, err := filepath.Rel(a.cwd, path)
	if err != nil || strings.HasPrefix(r, "..") {
		return path
	}
	return r
}
