// Package widget is the client side of the portfolio chat: a panel that
// holds one conversation in memory and sends each user turn to the assistant
// proxy, one request at a time.
package widget

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"portfolio-backend/internal/i18n"
	"portfolio-backend/internal/models"
)

// Transport delivers one user message to the assistant proxy.
type Transport interface {
	Ask(ctx context.Context, req models.AssistantRequest) (*models.AssistantResponse, error)
}

var defaultSuggestionKeys = []string{"chat.q1", "chat.q2", "chat.q3", "chat.q4"}

// State is a copy of the widget as a renderer sees it.
type State struct {
	// Session changes whenever the conversation is reset.
	Session     uint64
	Open        bool
	Language    string
	Messages    []models.ChatMessage
	Input       string
	Suggestions []string
	Awaiting    bool
}

// SuggestionsVisible reports whether the suggestion chips are shown.
func (s State) SuggestionsVisible() bool {
	return !s.Awaiting && len(s.Messages) > 0 && len(s.Suggestions) > 0
}

type Widget struct {
	transport Transport
	tr        *i18n.Translator
	log       *zap.Logger

	mu          sync.Mutex
	open        bool
	lang        string
	page        string
	messages    []models.ChatMessage
	input       string
	suggestions []string
	// session advances on every reset so replies to an older
	// conversation are recognised and dropped.
	session  uint64
	onUpdate func(State)

	// inflight holds a token while a request is outstanding.
	inflight chan struct{}
}

// New returns a closed widget in the default language, already holding the
// welcome message and default suggestions.
func New(transport Transport, tr *i18n.Translator, log *zap.Logger) *Widget {
	w := &Widget{
		transport: transport,
		tr:        tr,
		log:       log,
		lang:      i18n.DefaultLanguage,
		inflight:  make(chan struct{}, 1),
	}
	w.resetLocked()
	return w
}

// OnUpdate registers the hook run after every visible change. Renderers use
// it to redraw and scroll to the newest message.
func (w *Widget) OnUpdate(fn func(State)) {
	w.mu.Lock()
	w.onUpdate = fn
	w.mu.Unlock()
}

// SetPage sets the page path sent along with each message.
func (w *Widget) SetPage(page string) {
	w.mu.Lock()
	w.page = page
	w.mu.Unlock()
}

func (w *Widget) Open() {
	w.mu.Lock()
	if w.open {
		w.mu.Unlock()
		return
	}
	w.open = true
	w.resetLocked()
	w.mu.Unlock()
	w.notify()
}

func (w *Widget) Close() {
	w.mu.Lock()
	if !w.open {
		w.mu.Unlock()
		return
	}
	w.open = false
	w.mu.Unlock()
	w.notify()
}

func (w *Widget) Toggle() {
	if w.IsOpen() {
		w.Close()
		return
	}
	w.Open()
}

func (w *Widget) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.open
}

// HandleClickOutside closes the panel for a pointer-down that landed neither
// inside the panel nor on the launcher button.
func (w *Widget) HandleClickOutside(insidePanel, onTrigger bool) {
	if insidePanel || onTrigger {
		return
	}
	w.Close()
}

// SetLanguage switches the UI language. An open panel restarts its
// conversation in the new language.
func (w *Widget) SetLanguage(lang string) {
	w.mu.Lock()
	if lang == w.lang {
		w.mu.Unlock()
		return
	}
	w.lang = lang
	if !w.open {
		w.mu.Unlock()
		return
	}
	w.resetLocked()
	w.mu.Unlock()
	w.notify()
}

func (w *Widget) SetInput(text string) {
	w.mu.Lock()
	w.input = text
	w.mu.Unlock()
}

// KeyDown handles a key press in the input field. Enter without Shift sends.
func (w *Widget) KeyDown(ctx context.Context, key string, shift bool) bool {
	if key != "Enter" || shift {
		return false
	}
	return w.Send(ctx)
}

// Send submits the current input buffer.
func (w *Widget) Send(ctx context.Context) bool {
	w.mu.Lock()
	text := w.input
	w.mu.Unlock()
	return w.Submit(ctx, text)
}

// ChooseSuggestion submits the text of the i-th visible suggestion chip.
func (w *Widget) ChooseSuggestion(ctx context.Context, i int) bool {
	s := w.Snapshot()
	if !s.SuggestionsVisible() || i < 0 || i >= len(s.Suggestions) {
		return false
	}
	return w.Submit(ctx, s.Suggestions[i])
}

// Submit sends one user turn and blocks until its reply or error has been
// appended. It is a no-op returning false for blank text or while another
// request is outstanding.
func (w *Widget) Submit(ctx context.Context, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	select {
	case w.inflight <- struct{}{}:
	default:
		return false
	}

	w.mu.Lock()
	w.messages = append(w.messages, models.ChatMessage{Role: models.RoleUser, Text: text})
	w.input = ""
	session := w.session
	req := models.AssistantRequest{Message: text, Page: w.page}
	w.mu.Unlock()
	w.notify()

	resp, err := w.transport.Ask(ctx, req)

	w.mu.Lock()
	switch {
	case session != w.session:
		w.log.Debug("dropping reply for a reset conversation")
	case err != nil || resp == nil:
		w.log.Warn("chat request failed", zap.Error(err))
		w.messages = append(w.messages, models.ChatMessage{
			Role:    models.RoleModel,
			Text:    w.tr.T(w.lang, "chat.error"),
			IsError: true,
		})
	default:
		w.messages = append(w.messages, models.ChatMessage{Role: models.RoleModel, Text: resp.Reply})
		if len(resp.Suggestions) > 0 {
			w.suggestions = append([]string(nil), resp.Suggestions...)
		}
	}
	<-w.inflight
	w.mu.Unlock()
	w.notify()

	return true
}

func (w *Widget) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Widget) snapshotLocked() State {
	return State{
		Session:     w.session,
		Open:        w.open,
		Language:    w.lang,
		Messages:    append([]models.ChatMessage(nil), w.messages...),
		Input:       w.input,
		Suggestions: append([]string(nil), w.suggestions...),
		Awaiting:    len(w.inflight) == 1,
	}
}

// resetLocked starts a fresh conversation: the welcome message and the
// default suggestions in the current language.
func (w *Widget) resetLocked() {
	w.session++
	w.messages = []models.ChatMessage{{Role: models.RoleModel, Text: w.tr.T(w.lang, "chat.welcome")}}
	w.suggestions = make([]string, 0, len(defaultSuggestionKeys))
	for _, key := range defaultSuggestionKeys {
		w.suggestions = append(w.suggestions, w.tr.T(w.lang, key))
	}
}

func (w *Widget) notify() {
	w.mu.Lock()
	fn := w.onUpdate
	s := w.snapshotLocked()
	w.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}
