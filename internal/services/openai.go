package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"portfolio-backend/internal/models"
)

type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewOpenAIProvider(apiKey, baseURL, model string, temperature float32) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Transport: &errorBodyCapture{next: http.DefaultTransport}}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temperature,
	}
}

func (p *OpenAIProvider) Name() string  { return "openai" }
func (p *OpenAIProvider) Model() string { return p.model }

// Complete sends the prompt to the chat-completions endpoint and returns the
// first choice's content untouched.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt []models.PromptMessage) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(prompt))
	for _, m := range prompt {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	captured := &capturedBody{}
	ctx = context.WithValue(ctx, capturedBodyKey{}, captured)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: p.temperature,
	})
	if err != nil {
		return "", p.wrapError(err, captured)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) wrapError(err error, captured *capturedBody) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{
			Provider:   p.Name(),
			StatusCode: apiErr.HTTPStatusCode,
			Body:       captured.orElse(apiErr.Message),
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &UpstreamError{
			Provider:   p.Name(),
			StatusCode: reqErr.HTTPStatusCode,
			Body:       captured.orElse(reqErr.Error()),
		}
	}

	// Non-JSON error pages come back from the SDK as plain errors.
	if captured.status != 0 {
		return &UpstreamError{
			Provider:   p.Name(),
			StatusCode: captured.status,
			Body:       captured.orElse(err.Error()),
		}
	}

	return fmt.Errorf("calling openai: %w", err)
}

type capturedBodyKey struct{}

type capturedBody struct {
	status int
	data   []byte
}

func (c *capturedBody) orElse(fallback string) string {
	if len(c.data) == 0 {
		return fallback
	}
	return string(c.data)
}

// errorBodyCapture keeps a copy of failed response bodies so the raw upstream
// payload can be logged after the SDK has decoded it.
type errorBodyCapture struct {
	next http.RoundTripper
}

func (t *errorBodyCapture) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode < http.StatusBadRequest {
		return resp, err
	}

	captured, ok := req.Context().Value(capturedBodyKey{}).(*capturedBody)
	if !ok {
		return resp, nil
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("reading upstream error body: %w", readErr)
	}

	captured.status = resp.StatusCode
	captured.data = compactJSON(body)
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

func compactJSON(body []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return bytes.TrimSpace(body)
	}
	return buf.Bytes()
}
