package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/services"
)

type assistantService interface {
	Reply(ctx context.Context, message string) (*models.AssistantResponse, error)
	Configured() bool
	CredentialEnv() string
	ProviderName() string
}

type AssistantHandler struct {
	assistant     assistantService
	log           *zap.Logger
	exposeDetails bool
	maxBodyBytes  int64
}

func NewAssistantHandler(assistant assistantService, log *zap.Logger, exposeDetails bool, maxBodyBytes int64) *AssistantHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 64 << 10
	}
	return &AssistantHandler{
		assistant:     assistant,
		log:           log,
		exposeDetails: exposeDetails,
		maxBodyBytes:  maxBodyBytes,
	}
}

type assistantRequest struct {
	Message json.RawMessage `json:"message"`
	Page    json.RawMessage `json:"page"`
}

// Ask relays one user message to the provider and answers {reply}.
func (h *AssistantHandler) Ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResp("Method not allowed", r))
		return
	}

	if !h.assistant.Configured() {
		h.log.Error("assistant credential not configured",
			zap.String("env", h.assistant.CredentialEnv()),
			zap.String("request_id", middleware.GetRequestID(r.Context())))
		writeJSON(w, http.StatusInternalServerError, missingCredentialResp(h.assistant.CredentialEnv(), r))
		return
	}

	message, page, ok := h.decodeRequest(w, r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("No message provided", r))
		return
	}

	h.log.Debug("assistant request",
		zap.Int("message_len", len(message)),
		zap.String("page", page),
		zap.String("request_id", middleware.GetRequestID(r.Context())))

	resp, err := h.assistant.Reply(r.Context(), message)
	if err != nil {
		h.handleReplyError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// decodeRequest reads the bounded body, which must hold exactly one JSON
// value, and extracts a non-blank string message.
func (h *AssistantHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	var req assistantRequest
	if err := dec.Decode(&req); err != nil {
		return "", "", false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return "", "", false
	}

	var message string
	if len(req.Message) == 0 || json.Unmarshal(req.Message, &message) != nil {
		return "", "", false
	}
	if strings.TrimSpace(message) == "" {
		return "", "", false
	}

	// page is context for logs only; a malformed value is ignored.
	var page string
	if len(req.Page) > 0 {
		_ = json.Unmarshal(req.Page, &page)
	}

	return message, page, true
}

func (h *AssistantHandler) handleReplyError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())

	var validationErr *services.ValidationError
	var upstreamErr *services.UpstreamError

	switch {
	case errors.Is(err, services.ErrMissingCredential):
		writeJSON(w, http.StatusInternalServerError, missingCredentialResp(h.assistant.CredentialEnv(), r))
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResp(validationErr.Message, r))
	case errors.As(err, &upstreamErr):
		h.log.Error("upstream provider error",
			zap.String("provider", upstreamErr.Provider),
			zap.Int("status", upstreamErr.StatusCode),
			zap.String("body", upstreamErr.Body),
			zap.String("request_id", requestID))
		resp := errorResp("Upstream error", r)
		if h.exposeDetails {
			resp.Details = upstreamErr.Body
		}
		writeJSON(w, http.StatusInternalServerError, resp)
	default:
		h.log.Error("assistant request failed", zap.Error(err), zap.String("request_id", requestID))
		writeJSON(w, http.StatusInternalServerError, errorResp("Server error", r))
	}
}

func missingCredentialResp(env string, r *http.Request) models.ErrorResponse {
	return errorResp(fmt.Sprintf("Missing %s on server", env), r)
}

type healthResponse struct {
	Status     string `json:"status"`
	Provider   string `json:"provider,omitempty"`
	Configured bool   `json:"configured"`
}

// Health reports liveness and whether the provider credential is present.
func (h *AssistantHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Provider:   h.assistant.ProviderName(),
		Configured: h.assistant.Configured(),
	})
}
