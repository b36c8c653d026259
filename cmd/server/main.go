package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"portfolio-backend/internal/config"
	"portfolio-backend/internal/database"
	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/logger"
	"portfolio-backend/internal/persona"
	"portfolio-backend/internal/repository"
	"portfolio-backend/internal/router"
	"portfolio-backend/internal/services"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	log, err := logger.New(cfg.IsProduction(), cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("starting portfolio assistant", zap.String("env", cfg.Env), zap.String("provider", cfg.Provider))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 2: Load Persona ────
	personas, err := persona.NewStore(persona.Sources{
		DesignerName:    cfg.DesignerName,
		InstructionPath: cfg.PersonaPath,
		FactsPath:       cfg.PersonaFactsPath,
		Suggestions:     cfg.Suggestions,
	}, log.Named("persona"))
	if err != nil {
		log.Fatal("persona load failed", zap.Error(err))
	}
	log.Info("persona loaded", zap.String("version", personas.Current().Version))

	if cfg.PersonaWatch {
		if err := personas.Watch(ctx); err != nil {
			log.Fatal("persona watcher failed", zap.Error(err))
		}
		log.Info("persona hot reload enabled")
	}

	// ──── Step 3: Initialize Provider ────
	provider, closeProvider, err := newProvider(ctx, cfg)
	if err != nil {
		log.Fatal("provider initialization failed", zap.Error(err))
	}
	defer closeProvider()
	if provider == nil {
		log.Warn("provider credential missing, assistant requests will fail",
			zap.String("env", cfg.CredentialEnv()))
	} else {
		log.Info("provider initialized", zap.String("provider", provider.Name()), zap.String("model", provider.Model()))
	}

	assistant := services.NewAssistantService(provider, cfg.CredentialEnv(), personas, log.Named("assistant"))

	// ──── Step 4: Optional Reply Cache ────
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(ctx, cfg.RedisURL, 30*time.Second)
		if err != nil {
			log.Warn("redis unavailable, reply cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			assistant.WithCache(repository.NewReplyCacheRepo(rdb, cfg.ReplyCacheTTL))
			log.Info("reply cache enabled", zap.Duration("ttl", cfg.ReplyCacheTTL))
		}
	}

	// ──── Step 5: Start HTTP Server ────
	assistantHandler := handlers.NewAssistantHandler(assistant, log.Named("http"), cfg.ExposeUpstreamDetails, int64(cfg.MaxBodyBytes))
	r := router.New(assistantHandler, log.Named("http"), router.Options{
		FrontendURLs: cfg.FrontendURLs,
		StaticDir:    cfg.StaticDir,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info("portfolio assistant ready",
		zap.String("api", fmt.Sprintf("http://localhost:%s/api/assistant", cfg.Port)))

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("server error", zap.Error(err))
	}
}

// newProvider returns a nil Provider when the credential is absent so the
// endpoint can report the missing variable per request.
func newProvider(ctx context.Context, cfg *config.Config) (services.Provider, func(), error) {
	noop := func() {}
	if cfg.APIKey() == "" {
		return nil, noop, nil
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return services.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.Temperature), noop, nil
	case config.ProviderGemini:
		p, err := services.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Temperature)
		if err != nil {
			return nil, noop, err
		}
		return p, func() { p.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown ASSISTANT_PROVIDER %q", cfg.Provider)
	}
}
