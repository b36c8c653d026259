package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"portfolio-backend/internal/i18n"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/widget"
)

func newTestREPL(t *testing.T, handler http.HandlerFunc) (*repl, *bytes.Buffer) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tr := i18n.MustNew()
	w := widget.New(widget.NewHTTPTransport(server.URL, server.Client()), tr, zap.NewNop())
	out := &bytes.Buffer{}
	r := &repl{w: w, tr: tr, out: out, timeout: 5 * time.Second}
	w.OnUpdate(r.render)
	w.Open()
	return r, out
}

func TestREPL_Session(t *testing.T) {
	var asked []string
	r, out := newTestREPL(t, func(w http.ResponseWriter, req *http.Request) {
		var body models.AssistantRequest
		json.NewDecoder(req.Body).Decode(&body)
		asked = append(asked, body.Message)
		json.NewEncoder(w).Encode(models.AssistantResponse{Reply: "reply to " + body.Message, Suggestions: []string{"Next question"}})
	})

	input := strings.Join([]string{"hello there", "/1", "/lang xx", "/quit", "never sent"}, "\n")
	if err := r.run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	tr := i18n.MustNew()
	if len(asked) != 2 || asked[0] != "hello there" || asked[1] != "Next question" {
		t.Fatalf("unexpected questions sent: %q", asked)
	}
	text := out.String()
	for _, want := range []string{tr.T("en", "chat.welcome"), "assistant: reply to hello there", "/1 Next question", "languages: en, et, ru"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, text)
		}
	}
}

func TestREPL_ErrorTurn(t *testing.T) {
	r, out := newTestREPL(t, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Upstream error"}`))
	})

	r.handle(context.Background(), "/lang ru")
	r.handle(context.Background(), "привет")

	tr := i18n.MustNew()
	if !strings.Contains(out.String(), "! "+tr.T("ru", "chat.error")) {
		t.Errorf("expected localized error line, got:\n%s", out.String())
	}
}
