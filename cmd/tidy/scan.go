package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/thinkingscript/tidy/internal/scan"
	"github.com/thinkingscript/tidy/internal/ui"
)

var scanJSONFlag bool

var scanCmd = &cobra.Command{
	Use:          "scan [dir]",
	Short:        "List empty files and folders without changing anything",
	Args:         cobra.MaximumNArgs(1),
	RunE:         runScan,
	SilenceUsage: true,
}

func init() {
	scanCmd.Flags().BoolVar(&scanJSONFlag, "json", false, "Print the result as JSON")
}

type scanReport struct {
	Root      string       `json:"root"`
	Scanned   int          `json:"scanned"`
	EmptyDirs []scan.Entry `json:"empty_dirs"`
	Safe      []scan.Entry `json:"safe"`
	Caution   []scan.Entry `json:"caution"`
	Unsafe    []scan.Entry `json:"unsafe"`
	Errors    []string     `json:"errors,omitempty"`
}

func runScan(cmd *cobra.Command, args []string) error {
	resolved := loadConfig()
	dir, err := startDir(args)
	if err != nil {
		return err
	}

	stop := ui.Spinner("Scanning " + dir + "...")
	res, err := scan.Scan(dir, scan.Options{Skip: scan.NewSkipper(resolved.Skip, resolved.Allow)})
	stop()
	if err != nil {
		return err
	}

	buckets := newBucketer(resolved.RulesPath, nil).Bucket(res.EmptyFiles)
	report := scanReport{
		Root:      res.Root,
		Scanned:   res.Scanned,
		EmptyDirs: nonNil(res.EmptyDirs),
		Safe:      nonNil(buckets.Safe),
		Caution:   nonNil(buckets.Caution),
		Unsafe:    nonNil(buckets.Unsafe),
	}
	for _, e := range res.AccessErrors {
		report.Errors = append(report.Errors, e.Error())
	}

	out := cmd.OutOrStdout()
	if scanJSONFlag {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printScan(out, report)
	return nil
}

func printScan(w io.Writer, r scanReport) {
	fmt.Fprintln(w, ui.Heading.Render(fmt.Sprintf("Scanned %s entries in %s", humanize.Comma(int64(r.Scanned)), r.Root)))
	groups := []struct {
		title   string
		entries []scan.Entry
	}{
		{"Empty directories", r.EmptyDirs},
		{"Safe to delete", r.Safe},
		{"Proceed with caution", r.Caution},
		{"Review carefully", r.Unsafe},
	}
	for _, g := range groups {
		fmt.Fprintf(w, "%s (%d)\n", g.title, len(g.entries))
		for _, e := range g.entries {
			fmt.Fprintf(w, "  - %s\n", e.Path)
		}
	}
	for _, e := range r.Errors {
		fmt.Fprintln(w, ui.Warning.Render("  ! "+e))
	}
}

func nonNil(entries []scan.Entry) []scan.Entry {
	if entries == nil {
		return []scan.Entry{}
	}
	return entries
}
