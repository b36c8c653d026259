package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"portfolio-backend/internal/models"
)

// DefaultEndpoint is where the local assistant proxy listens.
const DefaultEndpoint = "http://127.0.0.1:8001/api/assistant"

// HTTPTransport posts messages to the assistant proxy over HTTP.
type HTTPTransport struct {
	endpoint string
	client   *http.Client
}

// NewHTTPTransport creates a transport for endpoint. A nil client uses
// http.DefaultClient; deadlines come from the caller's context.
func NewHTTPTransport(endpoint string, client *http.Client) *HTTPTransport {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{endpoint: endpoint, client: client}
}

// StatusError is a non-2xx answer from the proxy.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("assistant returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("assistant returned status %d: %s", e.StatusCode, e.Message)
}

func (t *HTTPTransport) Ask(ctx context.Context, payload models.AssistantRequest) (*models.AssistantResponse, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling assistant: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody models.ErrorResponse
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		_ = json.Unmarshal(body, &errBody)
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	var out models.AssistantResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &out, nil
}
