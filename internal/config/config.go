package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultProvider       = "anthropic"
	DefaultAnthropicModel = "claude-sonnet-4-5-20250929"
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultMaxTokens      = 512
	DefaultAdvisorTimeout = 20 * time.Second
	DefaultCacheMaxAge    = 24 * time.Hour
	DefaultMaxChecks      = 5
)

type AdvisorConfig struct {
	Enabled     *bool  `yaml:"enabled,omitempty"`
	Timeout     string `yaml:"timeout,omitempty"`
	CacheMaxAge string `yaml:"cache_max_age,omitempty"`
	MaxChecks   int    `yaml:"max_checks,omitempty"`
}

// Config mirrors config.yaml in the home directory.
type Config struct {
	Provider string            `yaml:"provider,omitempty"`
	Model    string            `yaml:"model,omitempty"`
	APIKey   string            `yaml:"api_key,omitempty"`
	Advisor  AdvisorConfig     `yaml:"advisor,omitempty"`
	Skip     []string          `yaml:"skip,omitempty"`
	Allow    []string          `yaml:"allow,omitempty"`
	Aliases  map[string]string `yaml:"aliases,omitempty"`
	LogDir   string            `yaml:"log_dir,omitempty"`
}

// Resolved holds the final merged configuration.
type Resolved struct {
	Provider       string
	Model          string
	APIKey         string
	MaxTokens      int
	AdvisorEnabled bool
	AdvisorTimeout time.Duration
	CacheMaxAge    time.Duration
	MaxChecks      int
	Skip           []string
	Allow          []string
	Aliases        map[string]string
	LogDir         string
	CacheDir       string
	RulesPath      string
}

func HomeDir() string {
	if v := os.Getenv("TIDY_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".tidy")
	}
	return filepath.Join(home, ".tidy")
}

func EnsureHomeDir() error {
	home := HomeDir()
	dirs := []string{
		home,
		filepath.Join(home, "logs"),
		filepath.Join(home, "cache"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}
	return nil
}

// Path returns the location of config.yaml.
func Path() string {
	return filepath.Join(HomeDir(), "config.yaml")
}

// CacheDir returns the directory used by the advisor response cache.
func CacheDir() string {
	return filepath.Join(HomeDir(), "cache")
}

// RulesPath returns the optional JavaScript risk rule file.
func RulesPath() string {
	return filepath.Join(HomeDir(), "rules.js")
}

// LoadDotEnv loads .env from the working directory and the home directory.
// Variables already present in the environment are never overwritten.
func LoadDotEnv() {
	for _, p := range []string{".env", filepath.Join(HomeDir(), ".env")} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// Load reads config.yaml. A missing file yields an empty config.
func Load() (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", Path(), err)
	}
	return cfg, nil
}

// Save writes config.yaml with 0600 permissions.
func Save(cfg *Config) error {
	if err := os.MkdirAll(HomeDir(), 0700); err != nil {
		return fmt.Errorf("creating home directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(Path(), data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Resolve merges config layers: defaults < config.yaml < env vars.
// A broken config.yaml is reported but does not prevent resolution.
func Resolve() (*Resolved, error) {
	cfg, loadErr := Load()

	resolved := &Resolved{
		Provider:       cfg.Provider,
		Model:          cfg.Model,
		APIKey:         cfg.APIKey,
		MaxTokens:      DefaultMaxTokens,
		AdvisorEnabled: true,
		AdvisorTimeout: parseDuration(cfg.Advisor.Timeout, DefaultAdvisorTimeout),
		CacheMaxAge:    parseDuration(cfg.Advisor.CacheMaxAge, DefaultCacheMaxAge),
		MaxChecks:      cfg.Advisor.MaxChecks,
		Skip:           cfg.Skip,
		Allow:          cfg.Allow,
		Aliases:        cfg.Aliases,
		LogDir:         cfg.LogDir,
		CacheDir:       CacheDir(),
		RulesPath:      RulesPath(),
	}
	if cfg.Advisor.Enabled != nil {
		resolved.AdvisorEnabled = *cfg.Advisor.Enabled
	}

	if v := getEnv("PROVIDER"); v != "" {
		resolved.Provider = v
	}
	if resolved.Provider == "" {
		resolved.Provider = DefaultProvider
	}
	resolved.Provider = strings.ToLower(resolved.Provider)

	if v := getEnv("MODEL"); v != "" {
		resolved.Model = v
	}
	if resolved.Model == "" {
		resolved.Model = defaultModel(resolved.Provider)
	}

	if v := getEnv("API_KEY"); v != "" {
		resolved.APIKey = v
	}
	if resolved.APIKey == "" {
		resolved.APIKey = providerKeyFromEnv(resolved.Provider)
	}

	switch strings.ToLower(getEnv("ADVISOR")) {
	case "off", "none", "disable", "false", "0":
		resolved.AdvisorEnabled = false
	}

	if resolved.MaxChecks <= 0 {
		resolved.MaxChecks = DefaultMaxChecks
	}
	if resolved.LogDir == "" {
		resolved.LogDir = filepath.Join(HomeDir(), "logs")
	}
	return resolved, loadErr
}

func defaultModel(provider string) string {
	if provider == "gemini" {
		return DefaultGeminiModel
	}
	return DefaultAnthropicModel
}

func providerKeyFromEnv(provider string) string {
	switch provider {
	case "gemini":
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			return v
		}
		return os.Getenv("GOOGLE_API_KEY")
	default:
		return os.Getenv("ANTHROPIC_API_KEY")
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getEnv(key string) string {
	return os.Getenv("TIDY__" + key)
}
