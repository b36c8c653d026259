package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"portfolio-backend/internal/models"
)

type GeminiProvider struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGeminiProvider(ctx context.Context, apiKey, model string, temperature float32, opts ...option.ClientOption) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:      client,
		model:       model,
		temperature: temperature,
	}, nil
}

func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

func (p *GeminiProvider) Name() string  { return "gemini" }
func (p *GeminiProvider) Model() string { return p.model }

func (p *GeminiProvider) Complete(ctx context.Context, prompt []models.PromptMessage) (string, error) {
	system, parts := splitPrompt(prompt)

	// GenerativeModel carries per-call settings, so one is built per request.
	model := p.client.GenerativeModel(p.model)
	model.SetTemperature(p.temperature)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	resp, err := model.GenerateContent(ctx, parts...)
	// A blocked prompt or candidate is an answer without text.
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return "", nil
	}
	if err != nil {
		return "", p.wrapError(err)
	}

	return firstCandidateText(resp), nil
}

func (p *GeminiProvider) wrapError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		body := apiErr.Body
		if body == "" {
			body = apiErr.Message
		}
		return &UpstreamError{Provider: p.Name(), StatusCode: apiErr.Code, Body: compactBody(body)}
	}

	return fmt.Errorf("calling gemini: %w", err)
}

func compactBody(body string) string {
	return string(compactJSON([]byte(body)))
}

// splitPrompt folds system messages into one instruction and keeps user
// messages as separate text parts.
func splitPrompt(prompt []models.PromptMessage) (string, []genai.Part) {
	var system []string
	var parts []genai.Part
	for _, m := range prompt {
		if m.Role == models.PromptRoleSystem {
			system = append(system, m.Content)
			continue
		}
		parts = append(parts, genai.Text(m.Content))
	}
	return strings.Join(system, "\n\n"), parts
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return ""
	}

	var text strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String()
}
