package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/middleware"
)

type Options struct {
	FrontendURLs []string
	StaticDir    string
}

func New(
	assistantHandler *handlers.AssistantHandler,
	log *zap.Logger,
	opts Options,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recover(log))
	r.Use(middleware.CORS(opts.FrontendURLs))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	// Health check
	r.Get("/health", assistantHandler.Health)

	// Every method is routed so the handler answers non-POST with its own 405.
	r.HandleFunc("/api/assistant", assistantHandler.Ask)

	if opts.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
	}

	return r
}
