package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thinkingscript/tidy/internal/config"
)

// Provider is the interface that all LLM providers must implement.
type Provider interface {
	Chat(ctx context.Context, params ChatParams) (*ChatResponse, error)
}

type ChatParams struct {
	Model     string
	System    string
	Messages  []Message
	MaxTokens int
	// JSON asks the provider for a JSON-only answer where supported.
	JSON bool
}

type Message struct {
	Role string // "user" or "assistant"
	Text string
}

type ChatResponse struct {
	Text       string
	StopReason string
}

var ErrNoAPIKey = errors.New("no API key configured")

func NewUserMessage(text string) Message {
	return Message{Role: "user", Text: text}
}

// New builds the provider named in cfg.
func New(ctx context.Context, cfg *config.Resolved) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	switch strings.ToLower(cfg.Provider) {
	case "", "anthropic":
		return NewAnthropicProvider(cfg.APIKey), nil
	case "gemini", "google":
		return NewGeminiProvider(ctx, cfg.APIKey)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
