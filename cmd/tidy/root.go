package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/thinkingscript/tidy/internal/advisor"
	"github.com/thinkingscript/tidy/internal/assistant"
	"github.com/thinkingscript/tidy/internal/cache"
	"github.com/thinkingscript/tidy/internal/config"
	"github.com/thinkingscript/tidy/internal/dispose"
	"github.com/thinkingscript/tidy/internal/logging"
	"github.com/thinkingscript/tidy/internal/prompt"
	"github.com/thinkingscript/tidy/internal/provider"
	"github.com/thinkingscript/tidy/internal/repl"
	"github.com/thinkingscript/tidy/internal/risk"
	"github.com/thinkingscript/tidy/internal/scan"
	"github.com/thinkingscript/tidy/internal/ui"
)

var (
	noAIFlag   bool
	logDirFlag string
)

var rootCmd = &cobra.Command{
	Use:   "tidy [dir]",
	Short: "Find and clean up empty files and folders",
	Long: "tidy starts an interactive session in dir (default: the current directory). " +
		"Ask it to find empty files, then move them to the trash or delete them permanently.",
	Args:         cobra.MaximumNArgs(1),
	RunE:         runSession,
	SilenceUsage: true,
}

func execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&noAIFlag, "no-ai", false, "Disable the AI safety check")
	rootCmd.Flags().StringVar(&logDirFlag, "log-dir", "", "Directory for session log files")
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(setupCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	if err := config.EnsureHomeDir(); err != nil {
		return fmt.Errorf("setting up home directory: %w", err)
	}
	resolved := loadConfig()
	if logDirFlag != "" {
		resolved.LogDir = logDirFlag
	}
	if noAIFlag {
		resolved.AdvisorEnabled = false
	}

	cwd, err := startDir(args)
	if err != nil {
		return err
	}

	logger, logPath, closer, err := logging.New(resolved.LogDir, time.Now(), slog.LevelInfo)
	if err != nil {
		warn("logging disabled: " + err.Error())
		logger = logging.Discard()
	} else {
		defer closer.Close()
	}
	logger.Info("tidy starting",
		"cwd", cwd,
		"provider", resolved.Provider,
		"model", resolved.Model,
		"advisor", resolved.AdvisorEnabled,
	)

	ctx := cmd.Context()
	reader := repl.NewReader(os.Stdin, os.Stdout)

	var p prompt.Prompter = &prompt.Line{In: reader, Out: os.Stdout}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		p = &prompt.Huh{Input: os.Stdin, Output: os.Stderr}
	}

	executor := dispose.NewExecutor(cwd, logger)
	executor.LockDir = filepath.Join(config.HomeDir(), "locks")

	home, _ := os.UserHomeDir()
	a := assistant.New(assistant.Config{
		Cwd:       cwd,
		Home:      home,
		Aliases:   resolved.Aliases,
		Skip:      scan.NewSkipper(resolved.Skip, resolved.Allow),
		Bucketer:  newBucketer(resolved.RulesPath, logger),
		Executor:  executor,
		Advisor:   newAdvisor(ctx, resolved, logger),
		MaxChecks: resolved.MaxChecks,
		Prompter:  p,
		Logger:    logger,
		Out:       os.Stdout,
	})

	if logPath != "" {
		fmt.Fprintln(os.Stderr, ui.Bullet(ui.Muted, ui.Muted.Render("Logging to "+logPath)))
	}
	return repl.Run(ctx, repl.Config{
		Dispatcher: a,
		Reader:     reader,
		Out:        os.Stdout,
		Logger:     logger,
		Home:       home,
	})
}

// loadConfig reads .env files and config.yaml. A broken config file is
// reported and the defaults are used.
func loadConfig() *config.Resolved {
	config.LoadDotEnv()
	resolved, err := config.Resolve()
	if err != nil {
		warn(err.Error())
	}
	return resolved
}

func startDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory does not exist: %s", dir)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", dir)
	}
	return abs, nil
}

func newBucketer(rulesPath string, logger *slog.Logger) *risk.Bucketer {
	rule, err := risk.LoadScriptRule(rulesPath, logger)
	if err != nil {
		warn("ignoring " + rulesPath + ": " + err.Error())
		return &risk.Bucketer{}
	}
	if rule == nil {
		return &risk.Bucketer{}
	}
	return &risk.Bucketer{Rules: []risk.Rule{rule}}
}

// newAdvisor returns nil when the advisor is disabled or has no credentials;
// the session then runs without AI checks.
func newAdvisor(ctx context.Context, resolved *config.Resolved, logger *slog.Logger) *advisor.Advisor {
	if !resolved.AdvisorEnabled {
		logger.Info("advisor disabled")
		return nil
	}
	p, err := provider.New(ctx, resolved)
	if err != nil {
		if !errors.Is(err, provider.ErrNoAPIKey) {
			warn("AI check unavailable: " + err.Error())
		}
		logger.Info("advisor unavailable", "error", err)
		return nil
	}

	store, err := cache.New(resolved.CacheDir)
	if err != nil {
		logger.Warn("advisor cache unavailable", "error", err)
		store = nil
	}
	return advisor.New(advisor.Config{
		Provider:    p,
		Model:       resolved.Model,
		MaxTokens:   resolved.MaxTokens,
		Timeout:     resolved.AdvisorTimeout,
		Cache:       store,
		CacheMaxAge: resolved.CacheMaxAge,
		Logger:      logger,
	})
}

func warn(msg string) {
	fmt.Fprintln(os.Stderr, ui.Bullet(ui.Warning, "Warning: "+msg))
}
