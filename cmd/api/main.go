package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"realty_agent_backend/internal/conversation"
	"realty_agent_backend/internal/conversation/service"
	"realty_agent_backend/internal/email"
	"realty_agent_backend/internal/events"
	apphttp "realty_agent_backend/internal/http"
	"realty_agent_backend/internal/http/router"
	"realty_agent_backend/internal/leads"
	"realty_agent_backend/internal/leadstore"
	"realty_agent_backend/internal/llm"
	"realty_agent_backend/internal/scheduler"
	"realty_agent_backend/internal/search"
	"realty_agent_backend/internal/transcript"
	"realty_agent_backend/platform/config"
	"realty_agent_backend/platform/logger"
	"realty_agent_backend/platform/validator"

	"golang.org/x/sync/errgroup"
)

const (
	redeliveryInterval = 30 * time.Second
	sessionSweep       = 10 * time.Minute
	sessionMaxIdle     = 30 * time.Minute
	followupDelay      = time.Minute
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

	// Lead store opens corrupt-tolerant: recovery and degraded mode are
	// handled inside, so startup never fails on a bad database file.
	store, err := leadstore.Open(cfg, log, eventBus)
	if err != nil {
		log.Error("failed to open lead store", "error", err)
		panic("failed to open lead store: " + err.Error())
	}
	defer store.Close()
	if store.Degraded() {
		log.Warn("lead store started degraded; writes are buffered in memory")
	}

	followupScheduler, closeScheduler := initFollowupScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	sender := email.NewSender(cfg)

	// Follow-up emails go through the task queue when Redis is
	// configured; otherwise they are sent directly off the event bus.
	eventBus.Subscribe("leadstore.lead.persisted", events.HandlerFunc(func(hctx context.Context, e events.Event) error {
		persisted, ok := e.(events.LeadPersisted)
		if !ok {
			return nil
		}
		if followupScheduler != nil {
			return followupScheduler.ScheduleLeadFollowup(hctx,
				scheduler.LeadFollowupEmailPayload{SessionID: persisted.SessionID},
				time.Now().Add(followupDelay))
		}
		if persisted.Degraded {
			// The durable row does not exist yet; the summary would
			// race redelivery. Skip and let operators use the API.
			return nil
		}
		lead, err := store.Get(hctx, persisted.SessionID)
		if err != nil {
			return err
		}
		return sender.SendLeadSummary(hctx, lead)
	}))

	// Shared validator instance for dependency injection
	val := validator.New()

	transcripts := transcript.NewWriter(cfg, log)
	provider := search.NewClient(cfg, log)

	var rephraser service.Rephraser
	if cfg.IsLLMEnabled() {
		var r *llm.Rephraser
		if err := withRetry(ctx, log, "rephraser init", 3, time.Second, func() error {
			var err error
			r, err = llm.New(ctx, cfg, log)
			return err
		}); err != nil {
			log.Warn("rephraser unavailable, serving scripted replies", "error", err)
		} else {
			rephraser = r
			log.Info("rephraser initialized", "model", cfg.GeminiModel)
		}
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	conversationModule := conversation.NewModule(store, provider, transcripts, eventBus, val, rephraser, cfg, log)
	leadsModule := leads.NewModule(store, transcripts, log)

	// Background maintenance: replay buffered leads once the durable
	// store heals, and drop abandoned sessions.
	maintenance, mctx := errgroup.WithContext(ctx)
	maintenance.Go(func() error {
		runRedelivery(mctx, store, log)
		return nil
	})
	maintenance.Go(func() error {
		runSessionSweep(mctx, conversationModule.Service())
		return nil
	})

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   store,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			conversationModule,
			leadsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Flush anything still buffered before the process exits.
		if store.Degraded() {
			if err := store.Redeliver(shutdownCtx); err != nil {
				log.Error("final redelivery failed, buffered leads lost", "error", err)
			}
		}
		_ = maintenance.Wait()
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func runRedelivery(ctx context.Context, store *leadstore.Store, log *logger.Logger) {
	ticker := time.NewTicker(redeliveryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !store.Degraded() {
				continue
			}
			if err := store.Redeliver(ctx); err != nil {
				log.Warn("lead store redelivery attempt failed", "error", err)
			}
		}
	}
}

func runSessionSweep(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(sessionSweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.PruneIdle(ctx, sessionMaxIdle)
		}
	}
}

func initFollowupScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.FollowupScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; lead follow-up queue disabled")
		return nil, nil
	}

	followupClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize follow-up scheduler client", "error", err)
		return nil, nil
	}

	return followupClient, func() {
		_ = followupClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
