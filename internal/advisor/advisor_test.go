package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/thinkingscript/tidy/internal/cache"
	"github.com/thinkingscript/tidy/internal/provider"
)

type fakeProvider struct {
	text  string
	err   error
	block bool
	calls int
	last  provider.ChatParams
}

func (f *fakeProvider) Chat(ctx context.Context, params provider.ChatParams) (*provider.ChatResponse, error) {
	f.calls++
	f.last = params
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &provider.ChatResponse{Text: f.text}, nil
}

func TestNilAdvisor(t *testing.T) {
	var a *Advisor
	ctx := context.Background()
	if a.Recommend(ctx, "/tmp") || a.Validate(ctx, "/tmp/x") || a.ConfirmDeletion(ctx, "/tmp/x") {
		t.Error("nil advisor should never report safe")
	}
	if _, _, err := a.Verdict(ctx, KindValidate, "/tmp/x"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Verdict error = %v, want ErrUnavailable", err)
	}
}

func TestVerdictParsing(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		safe   bool
		reason string
		err    bool
	}{
		{"plain", `{"safe": true, "reason": "placeholder file"}`, true, "placeholder file", false},
		{"fenced", "```json\n{\"safe\": false, \"reason\": \"config\"}\n```", false, "config", false},
		{"prose", `Sure! {"safe":true} Hope that helps.`, true, "", false},
		{"string bool", `{"safe": "yes"}`, false, "", true},
		{"not json", `I think it is fine`, false, "", true},
		{"missing field", `{"ok": true}`, false, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(Config{Provider: &fakeProvider{text: tt.text}, Model: "m"})
			safe, reason, err := a.Verdict(context.Background(), KindValidate, "/tmp/x")
			if tt.err {
				if !errors.Is(err, ErrUnavailable) {
					t.Errorf("error = %v, want ErrUnavailable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verdict error: %v", err)
			}
			if safe != tt.safe || reason != tt.reason {
				t.Errorf("Verdict = %v, %q, want %v, %q", safe, reason, tt.safe, tt.reason)
			}
		})
	}
}

func TestDegradesOnError(t *testing.T) {
	a := New(Config{Provider: &fakeProvider{err: errors.New("network down")}})
	if a.Validate(context.Background(), "/tmp/x") {
		t.Error("provider error should degrade to false")
	}
}

func TestDegradesOnTimeout(t *testing.T) {
	fp := &fakeProvider{block: true}
	a := New(Config{Provider: fp, Timeout: 20 * time.Millisecond})

	start := time.Now()
	if a.ConfirmDeletion(context.Background(), "/tmp/x") {
		t.Error("timeout should degrade to false")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("advisor did not honor its timeout")
	}
}

func TestCachesVerdicts(t *testing.T) {
	store, err := cache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	fp := &fakeProvider{text: `{"safe": true, "reason": "ok"}`}
	a := New(Config{Provider: fp, Model: "m", Cache: store, CacheMaxAge: time.Hour})
	ctx := context.Background()

	if !a.Validate(ctx, "/tmp/x") || !a.Validate(ctx, "/tmp/x") {
		t.Fatal("expected safe verdicts")
	}
	if fp.calls != 1 {
		t.Errorf("provider calls = %d, want 1", fp.calls)
	}

	// Different kinds do not share answers.
	a.ConfirmDeletion(ctx, "/tmp/x")
	if fp.calls != 2 {
		t.Errorf("provider calls = %d, want 2", fp.calls)
	}
}

func TestFailuresAreNotCached(t *testing.T) {
	store, _ := cache.New(t.TempDir())
	fp := &fakeProvider{text: "garbage"}
	a := New(Config{Provider: fp, Cache: store})
	ctx := context.Background()

	a.Validate(ctx, "/tmp/x")
	fp.text = `{"safe": true}`
	if !a.Validate(ctx, "/tmp/x") {
		t.Error("second call should reach the provider")
	}
	if fp.calls != 2 {
		t.Errorf("provider calls = %d, want 2", fp.calls)
	}
}

func TestPromptContents(t *testing.T) {
	fp := &fakeProvider{text: `{"safe": false}`}
	a := New(Config{Provider: fp, Model: "model-x", MaxTokens: 64})
	a.Recommend(context.Background(), "/home/me/Downloads")

	if fp.last.Model != "model-x" || fp.last.MaxTokens != 64 || !fp.last.JSON {
		t.Errorf("params = %+v", fp.last)
	}
	if len(fp.last.Messages) != 1 || !strings.Contains(fp.last.Messages[0].Text, "/home/me/Downloads") {
		t.Errorf("messages = %+v", fp.last.Messages)
	}
}
