// Package advisor asks a hosted model whether a cleanup step looks safe.
// Every answer is advisory: failures, timeouts and unparsable replies all
// come back as "not safe" so the caller falls back to manual confirmation.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/thinkingscript/tidy/internal/cache"
	"github.com/thinkingscript/tidy/internal/logging"
	"github.com/thinkingscript/tidy/internal/provider"
)

type Kind string

const (
	KindRecommend Kind = "recommend"
	KindValidate  Kind = "validate"
	KindConfirm   Kind = "confirm"
)

// ErrUnavailable wraps every provider, timeout and parse failure.
var ErrUnavailable = errors.New("advisor unavailable")

const systemPrompt = `You are a safety validator for file cleanup operations on a personal computer.
Reply with a single JSON object and nothing else:
{"safe": true or false, "reason": "<one short sentence>"}
Say safe only when removing the item cannot plausibly break software or lose user data.`

type Config struct {
	Provider    provider.Provider
	Model       string
	MaxTokens   int
	Timeout     time.Duration
	Cache       *cache.Store
	CacheMaxAge time.Duration
	Logger      *slog.Logger
}

type Advisor struct {
	cfg Config
	log *slog.Logger
}

func New(cfg Config) *Advisor {
	return &Advisor{cfg: cfg, log: logging.OrDiscard(cfg.Logger)}
}

// Recommend asks whether dir is a reasonable place to clean up.
func (a *Advisor) Recommend(ctx context.Context, dir string) bool {
	return a.check(ctx, KindRecommend, dir)
}

// Validate asks whether one entry is safe to process.
func (a *Advisor) Validate(ctx context.Context, path string) bool {
	return a.check(ctx, KindValidate, path)
}

// ConfirmDeletion asks for a final opinion before permanent deletion.
func (a *Advisor) ConfirmDeletion(ctx context.Context, path string) bool {
	return a.check(ctx, KindConfirm, path)
}

func (a *Advisor) check(ctx context.Context, kind Kind, path string) bool {
	if a == nil {
		return false
	}
	safe, _, err := a.Verdict(ctx, kind, path)
	if err != nil {
		a.log.Warn("advisor fallback", "kind", string(kind), "path", path, "error", err)
		return false
	}
	return safe
}

// Verdict returns the model's answer and its reason.
func (a *Advisor) Verdict(ctx context.Context, kind Kind, path string) (bool, string, error) {
	if a == nil || a.cfg.Provider == nil {
		return false, "", ErrUnavailable
	}

	key := cache.Key(string(kind) + "|" + a.cfg.Model + "|" + path)
	if raw, ok := a.cfg.Cache.Get(key, a.cfg.CacheMaxAge); ok {
		if safe, reason, err := parseVerdict(raw); err == nil {
			a.log.Debug("advisor cache hit", "kind", string(kind), "path", path)
			return safe, reason, nil
		}
	}

	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	resp, err := a.cfg.Provider.Chat(ctx, provider.ChatParams{
		Model:     a.cfg.Model,
		System:    systemPrompt,
		Messages:  []provider.Message{provider.NewUserMessage(question(kind, path))},
		MaxTokens: a.cfg.MaxTokens,
		JSON:      true,
	})
	if err != nil {
		return false, "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp == nil {
		return false, "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}

	safe, reason, err := parseVerdict(resp.Text)
	if err != nil {
		return false, "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if a.cfg.Cache != nil {
		if err := a.cfg.Cache.Put(key, extractJSON(resp.Text)); err != nil {
			a.log.Warn("advisor cache write failed", "error", err)
		}
	}
	a.log.Info("advisor verdict", "kind", string(kind), "path", path, "safe", safe, "reason", reason, "stop_reason", resp.StopReason)
	return safe, reason, nil
}

func question(kind Kind, path string) string {
	switch kind {
	case KindRecommend:
		return fmt.Sprintf("Is it safe to remove empty files and empty directories found under %s?", path)
	case KindConfirm:
		return fmt.Sprintf("The user is about to permanently delete the empty item %s. Is this safe?", path)
	default:
		return fmt.Sprintf("Is it safe to move the empty item %s to the trash?", path)
	}
}

// extractJSON trims code fences and prose around the first JSON object.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return strings.TrimSpace(text)
	}
	return text[start : end+1]
}

func parseVerdict(text string) (bool, string, error) {
	raw := extractJSON(text)
	if !gjson.Valid(raw) {
		return false, "", errors.New("reply is not JSON")
	}
	safe := gjson.Get(raw, "safe")
	if safe.Type != gjson.True && safe.Type != gjson.False {
		return false, "", errors.New(`reply has no boolean "safe" field`)
	}
	return safe.Bool(), gjson.Get(raw, "reason").String(), nil
}
