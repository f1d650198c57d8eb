package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadhook_backend/internal/abuse"
	"leadhook_backend/internal/bitrix"
	"leadhook_backend/internal/captcha"
	"leadhook_backend/internal/email"
	"leadhook_backend/internal/events"
	apphttp "leadhook_backend/internal/http"
	"leadhook_backend/internal/http/router"
	"leadhook_backend/internal/intake"
	"leadhook_backend/internal/notification"
	"leadhook_backend/internal/ratelimit"
	"leadhook_backend/internal/telegram"
	"leadhook_backend/platform/config"
	"leadhook_backend/platform/logger"
	"leadhook_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	store, closeStore := initRateLimitStore(cfg, log)
	if closeStore != nil {
		defer closeStore()
	}

	var verifier captcha.Verifier
	if turnstile := captcha.NewTurnstile(cfg.TurnstileSecret, cfg.HTTPClientTimeout, log); turnstile != nil {
		verifier = turnstile
		log.Info("turnstile captcha enabled")
	} else {
		log.Warn("TURNSTILE_SECRET_KEY not configured; captcha disabled")
	}

	guard := abuse.NewGuard(verifier, store, cfg.RateLimitWindow, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	crm := bitrix.NewClient(cfg, cfg, log)

	// Notification module subscribes to domain events (not HTTP-facing)
	emailSender := email.NewSender(cfg, cfg)
	telegramClient := telegram.NewClient(cfg, cfg, log)
	notificationModule := notification.NewModule(emailSender, telegramClient, log)
	notificationModule.RegisterHandlers(eventBus)

	templates := intake.DefaultTemplates()
	if path := cfg.GetFormTemplatesFile(); path != "" {
		templates, err = intake.LoadTemplates(path)
		if err != nil {
			log.Error("failed to load form templates", "error", err, "path", path)
			panic("failed to load form templates: " + err.Error())
		}
		log.Info("form templates loaded", "path", path)
	}

	intakeService := intake.NewService(cfg, guard, templates, crm, eventBus, val, log)
	intakeModule := intake.NewModule(cfg, intakeService)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			intakeModule,
		},
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initRateLimitStore picks the submission rate-limit backend: Redis when
// configured, the in-process store as an explicit fallback, otherwise
// rate limiting is disabled.
func initRateLimitStore(cfg *config.Config, log *logger.Logger) (ratelimit.Store, func()) {
	if cfg.RedisURL != "" {
		store, err := ratelimit.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			panic("failed to connect to redis: " + err.Error())
		}
		log.Info("rate limiting enabled", "backend", "redis")
		return store, func() { _ = store.Close() }
	}

	if cfg.UseMemoryRateLimit() {
		store := ratelimit.NewMemoryStore(10 * time.Minute)
		log.Info("rate limiting enabled", "backend", "memory")
		return store, func() { _ = store.Close() }
	}

	log.Warn("REDIS_URL not configured; submission rate limiting disabled")
	return nil, nil
}
