package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"go.uber.org/zap"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/persona"
)

// FallbackReply substitutes a completion that carried no text.
const FallbackReply = "I'm sorry, I couldn't generate a response."

// Provider is an external chat-completion API.
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, prompt []models.PromptMessage) (string, error)
}

// ReplyCache stores finished replies by prompt fingerprint.
type ReplyCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, reply string) error
}

type personaSource interface {
	Current() *persona.Persona
}

type AssistantService struct {
	provider      Provider
	credentialEnv string
	personas      personaSource
	cache         ReplyCache
	log           *zap.Logger
}

// NewAssistantService wires the proxy logic. A nil provider means the
// credential was not configured; every Reply then fails with ErrMissingCredential.
func NewAssistantService(provider Provider, credentialEnv string, personas personaSource, log *zap.Logger) *AssistantService {
	return &AssistantService{
		provider:      provider,
		credentialEnv: credentialEnv,
		personas:      personas,
		log:           log,
	}
}

// WithCache enables the optional reply cache.
func (s *AssistantService) WithCache(cache ReplyCache) *AssistantService {
	s.cache = cache
	return s
}

func (s *AssistantService) Configured() bool {
	return s.provider != nil
}

func (s *AssistantService) CredentialEnv() string {
	return s.credentialEnv
}

func (s *AssistantService) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// BuildPrompt frames a message with the current persona instruction.
func (s *AssistantService) BuildPrompt(message string) []models.PromptMessage {
	return buildPrompt(s.personas.Current(), message)
}

// Reply forwards one user message to the provider and returns the trimmed reply.
func (s *AssistantService) Reply(ctx context.Context, message string) (*models.AssistantResponse, error) {
	if s.provider == nil {
		return nil, ErrMissingCredential
	}
	if strings.TrimSpace(message) == "" {
		return nil, &ValidationError{Message: "No message provided"}
	}

	p := s.personas.Current()
	key := cacheKey(s.provider.Name(), s.provider.Model(), p.Version, message)

	if s.cache != nil {
		reply, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn("reply cache lookup failed", zap.Error(err))
		} else if ok {
			s.log.Debug("reply cache hit", zap.String("key", key))
			return newResponse(reply, p.Suggestions), nil
		}
	}

	text, err := s.provider.Complete(ctx, buildPrompt(p, message))
	if err != nil {
		return nil, err
	}

	reply := strings.TrimSpace(text)
	if reply == "" {
		s.log.Warn("provider returned empty completion, using fallback",
			zap.String("provider", s.provider.Name()))
		return newResponse(FallbackReply, p.Suggestions), nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, reply); err != nil {
			s.log.Warn("reply cache store failed", zap.Error(err))
		}
	}

	return newResponse(reply, p.Suggestions), nil
}

func buildPrompt(p *persona.Persona, message string) []models.PromptMessage {
	return []models.PromptMessage{
		{Role: models.PromptRoleSystem, Content: p.Instruction},
		{Role: models.PromptRoleUser, Content: message},
	}
}

func newResponse(reply string, suggestions []string) *models.AssistantResponse {
	resp := &models.AssistantResponse{Reply: reply}
	if len(suggestions) > 0 {
		resp.Suggestions = append([]string(nil), suggestions...)
	}
	return resp
}

func cacheKey(provider, model, personaVersion, message string) string {
	h := sha256.New()
	for _, part := range []string{provider, model, personaVersion, message} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "assistant:reply:" + hex.EncodeToString(h.Sum(nil))
}
