// Command chat is a terminal front-end for the portfolio chat widget.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"portfolio-backend/internal/i18n"
	"portfolio-backend/internal/logger"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/widget"
)

func main() {
	endpoint := flag.String("endpoint", widget.DefaultEndpoint, "assistant proxy URL")
	lang := flag.String("lang", i18n.DefaultLanguage, "UI language")
	page := flag.String("page", "/", "page path sent with each message")
	timeout := flag.Duration("timeout", 60*time.Second, "per-message timeout")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	log, err := logger.New(false, *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tr := i18n.MustNew()
	w := widget.New(widget.NewHTTPTransport(*endpoint, nil), tr, log.Named("widget"))
	w.SetPage(*page)
	w.SetLanguage(*lang)

	r := &repl{
		w:       w,
		tr:      tr,
		out:     os.Stdout,
		timeout: *timeout,
	}
	w.OnUpdate(r.render)
	w.Open()

	if err := r.run(ctx, os.Stdin); err != nil && err != io.EOF {
		log.Error("chat stopped", zap.Error(err))
		os.Exit(1)
	}
}

type repl struct {
	w       *widget.Widget
	tr      *i18n.Translator
	out     io.Writer
	timeout time.Duration
	session uint64
	shown   int
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		r.prompt()
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return io.EOF
		}
		if quit := r.handle(ctx, scanner.Text()); quit {
			return nil
		}
	}
}

// handle processes one input line and reports whether to quit.
func (r *repl) handle(ctx context.Context, line string) bool {
	cmd := strings.TrimSpace(line)
	switch {
	case cmd == "/quit" || cmd == "/exit":
		return true
	case cmd == "/open":
		r.w.Open()
	case cmd == "/close":
		r.w.Close()
		fmt.Fprintln(r.out, r.tr.T(r.w.Snapshot().Language, "chat.openHint")+"  (/open)")
	case strings.HasPrefix(cmd, "/lang"):
		lang := strings.TrimSpace(strings.TrimPrefix(cmd, "/lang"))
		if !r.tr.Supports(lang) {
			fmt.Fprintf(r.out, "languages: %s\n", strings.Join(r.tr.Languages(), ", "))
			return false
		}
		r.w.SetLanguage(lang)
	case len(cmd) > 1 && cmd[0] == '/':
		n, err := strconv.Atoi(cmd[1:])
		if err != nil {
			fmt.Fprintln(r.out, "commands: /1-/4, /open, /close, /lang <code>, /quit")
			return false
		}
		r.send(ctx, func(ctx context.Context) bool { return r.w.ChooseSuggestion(ctx, n-1) })
	default:
		if !r.w.IsOpen() {
			r.w.Open()
		}
		r.w.SetInput(line)
		r.send(ctx, func(ctx context.Context) bool { return r.w.KeyDown(ctx, "Enter", false) })
	}
	return false
}

func (r *repl) send(ctx context.Context, submit func(context.Context) bool) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	submit(ctx)
}

func (r *repl) prompt() {
	if r.w.IsOpen() {
		fmt.Fprint(r.out, "> ")
	}
}

// render prints messages not yet shown and the suggestion chips.
func (r *repl) render(s widget.State) {
	if !s.Open {
		return
	}
	if s.Session != r.session {
		r.session = s.Session
		r.shown = 0
		fmt.Fprintln(r.out, "──────")
	}

	for _, m := range s.Messages[r.shown:] {
		switch {
		case m.Role == models.RoleUser:
			fmt.Fprintf(r.out, "you: %s\n", m.Text)
		case m.IsError:
			fmt.Fprintf(r.out, "! %s\n", m.Text)
		default:
			fmt.Fprintf(r.out, "assistant: %s\n", m.Text)
		}
	}
	r.shown = len(s.Messages)

	if s.Awaiting {
		fmt.Fprintln(r.out, "…")
		return
	}
	if s.SuggestionsVisible() {
		for i, q := range s.Suggestions {
			fmt.Fprintf(r.out, "  /%d %s\n", i+1, q)
		}
	}
}
