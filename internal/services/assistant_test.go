package services

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/persona"
)

type stubProvider struct {
	reply  string
	err    error
	calls  int
	prompt []models.PromptMessage
}

func (p *stubProvider) Name() string  { return "stub" }
func (p *stubProvider) Model() string { return "stub-model" }

func (p *stubProvider) Complete(ctx context.Context, prompt []models.PromptMessage) (string, error) {
	p.calls++
	p.prompt = prompt
	return p.reply, p.err
}

type stubCache struct {
	entries map[string]string
	getErr  error
	sets    int
}

func (c *stubCache) Get(ctx context.Context, key string) (string, bool, error) {
	if c.getErr != nil {
		return "", false, c.getErr
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *stubCache) Set(ctx context.Context, key, reply string) error {
	if c.entries == nil {
		c.entries = make(map[string]string)
	}
	c.entries[key] = reply
	c.sets++
	return nil
}

func newTestService(p Provider, suggestions ...string) *AssistantService {
	store := persona.Static(persona.New("You are a test persona.", suggestions))
	return NewAssistantService(p, "OPENAI_API_KEY", store, zap.NewNop())
}

func TestReply_MissingCredential(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.Reply(context.Background(), "hello")
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if svc.Configured() {
		t.Fatalf("service without provider must not report configured")
	}
}

func TestReply_BlankMessageSkipsProvider(t *testing.T) {
	p := &stubProvider{reply: "x"}
	svc := newTestService(p)

	for _, msg := range []string{"", "   ", "\n\t"} {
		_, err := svc.Reply(context.Background(), msg)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError for %q, got %v", msg, err)
		}
	}
	if p.calls != 0 {
		t.Fatalf("expected no provider calls, got %d", p.calls)
	}
}

func TestReply_TrimsAndAttachesSuggestions(t *testing.T) {
	p := &stubProvider{reply: "  Nine years of fintech work.\n"}
	svc := newTestService(p, "Tell me more", "Is she available?")

	resp, err := svc.Reply(context.Background(), "Who is she?")
	if err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	if resp.Reply != "Nine years of fintech work." {
		t.Errorf("unexpected reply %q", resp.Reply)
	}
	if len(resp.Suggestions) != 2 || resp.Suggestions[0] != "Tell me more" {
		t.Errorf("unexpected suggestions %q", resp.Suggestions)
	}
}

func TestReply_EmptyCompletionUsesFallback(t *testing.T) {
	for _, completion := range []string{"", "   \n"} {
		p := &stubProvider{reply: completion}
		svc := newTestService(p)

		resp, err := svc.Reply(context.Background(), "hi")
		if err != nil {
			t.Fatalf("Reply failed: %v", err)
		}
		if resp.Reply != FallbackReply {
			t.Errorf("expected fallback reply, got %q", resp.Reply)
		}
	}
}

func TestReply_ProviderErrorPassesThrough(t *testing.T) {
	upstream := &UpstreamError{Provider: "stub", StatusCode: 500, Body: `{"error":"boom"}`}
	svc := newTestService(&stubProvider{err: upstream})

	_, err := svc.Reply(context.Background(), "hi")
	var got *UpstreamError
	if !errors.As(err, &got) || got.Body != upstream.Body {
		t.Fatalf("expected upstream error to pass through, got %v", err)
	}
}

func TestBuildPrompt_UserTurnIsVerbatim(t *testing.T) {
	svc := newTestService(&stubProvider{})
	messages := []string{
		"plain",
		`quotes " and \ backslashes`,
		"<script>alert('x')</script> & ампер",
		"  leading and trailing space  ",
		"multi\nline\r\nmessage",
	}

	for _, msg := range messages {
		prompt := svc.BuildPrompt(msg)
		if len(prompt) != 2 {
			t.Fatalf("expected two-message prompt, got %d", len(prompt))
		}
		if prompt[0].Role != models.PromptRoleSystem || prompt[0].Content != "You are a test persona." {
			t.Errorf("unexpected system turn: %+v", prompt[0])
		}
		if prompt[1].Role != models.PromptRoleUser || prompt[1].Content != msg {
			t.Errorf("user turn mutated: want %q, got %q", msg, prompt[1].Content)
		}
	}
}

func TestReply_SendsFramedPrompt(t *testing.T) {
	p := &stubProvider{reply: "ok"}
	svc := newTestService(p)

	if _, err := svc.Reply(context.Background(), "  spaced  "); err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	if p.calls != 1 {
		t.Fatalf("expected one provider call, got %d", p.calls)
	}
	if p.prompt[1].Content != "  spaced  " {
		t.Errorf("expected verbatim user content, got %q", p.prompt[1].Content)
	}
}

func TestReply_CacheHitSkipsProvider(t *testing.T) {
	p := &stubProvider{reply: "fresh"}
	cache := &stubCache{}
	svc := newTestService(p).WithCache(cache)

	first, err := svc.Reply(context.Background(), "What tools?")
	if err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	p.reply = "different"
	second, err := svc.Reply(context.Background(), "What tools?")
	if err != nil {
		t.Fatalf("Reply failed: %v", err)
	}

	if p.calls != 1 {
		t.Errorf("expected one provider call, got %d", p.calls)
	}
	if first.Reply != "fresh" || second.Reply != "fresh" {
		t.Errorf("expected cached reply, got %q then %q", first.Reply, second.Reply)
	}
}

func TestReply_WithoutCacheEveryRequestCallsProvider(t *testing.T) {
	p := &stubProvider{reply: "fresh"}
	svc := newTestService(p)

	for i := 0; i < 3; i++ {
		if _, err := svc.Reply(context.Background(), "What tools?"); err != nil {
			t.Fatalf("Reply failed: %v", err)
		}
	}
	if p.calls != 3 {
		t.Errorf("expected a provider call per request, got %d", p.calls)
	}
}

func TestReply_FallbackIsNotCached(t *testing.T) {
	cache := &stubCache{}
	svc := newTestService(&stubProvider{reply: ""}).WithCache(cache)

	if _, err := svc.Reply(context.Background(), "hi"); err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	if cache.sets != 0 {
		t.Errorf("fallback reply must not be cached")
	}
}

func TestReply_CacheErrorFallsThrough(t *testing.T) {
	p := &stubProvider{reply: "live"}
	svc := newTestService(p).WithCache(&stubCache{getErr: errors.New("redis down")})

	resp, err := svc.Reply(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	if resp.Reply != "live" || p.calls != 1 {
		t.Errorf("expected provider to answer when cache fails, got %q (%d calls)", resp.Reply, p.calls)
	}
}

func TestCacheKey_DependsOnAllParts(t *testing.T) {
	base := cacheKey("openai", "gpt-4o-mini", "v1", "hi")
	variants := []string{
		cacheKey("gemini", "gpt-4o-mini", "v1", "hi"),
		cacheKey("openai", "gpt-4o", "v1", "hi"),
		cacheKey("openai", "gpt-4o-mini", "v2", "hi"),
		cacheKey("openai", "gpt-4o-mini", "v1", "hi "),
	}
	for _, v := range variants {
		if v == base {
			t.Errorf("expected distinct cache key, got collision %s", v)
		}
	}
}
