package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/thinkingscript/tidy/internal/cache"
	"github.com/thinkingscript/tidy/internal/config"
)

// expiredAge is how old an entry must be for cache --expired to remove it.
const expiredAge = 7 * 24 * time.Hour

var (
	cacheClearFlag   bool
	cacheExpiredFlag bool
)

var cacheCmd = &cobra.Command{
	Use:          "cache",
	Short:        "Manage cached AI safety verdicts",
	Long:         "Print the cache directory and its entries, or clear them.",
	Args:         cobra.NoArgs,
	RunE:         runCache,
	SilenceUsage: true,
}

func init() {
	cacheCmd.Flags().BoolVar(&cacheClearFlag, "clear", false, "Remove every cached verdict")
	cacheCmd.Flags().BoolVar(&cacheExpiredFlag, "expired", false, "Remove verdicts older than 7 days")
	cacheCmd.MarkFlagsMutuallyExclusive("clear", "expired")
}

func runCache(cmd *cobra.Command, args []string) error {
	store, err := cache.New(config.CacheDir())
	if err != nil {
		return err
	}

	if cacheClearFlag {
		if err := store.Clear(); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Fprintln(os.Stderr, "Cache cleared.")
		return nil
	}

	if cacheExpiredFlag {
		n, err := store.ClearExpired(expiredAge)
		if err != nil {
			return fmt.Errorf("clearing expired entries: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Removed %d expired %s.\n", n, pluralize(n, "entry", "entries"))
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, store.Dir())
	entries, err := store.List()
	if err != nil {
		return fmt.Errorf("listing cache: %w", err)
	}
	for _, e := range entries {
		key := e.Key
		if len(key) > 12 {
			key = key[:12]
		}
		fmt.Fprintf(out, "  %s  %-16s %s\n", key, humanize.Time(e.Timestamp), humanize.IBytes(uint64(e.Size)))
	}
	return nil
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
