package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"realty_agent_backend/internal/email"
	"realty_agent_backend/internal/leadstore"
	"realty_agent_backend/internal/scheduler"
	"realty_agent_backend/platform/config"
	"realty_agent_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.IsSchedulerEnabled() {
		log.Error("REDIS_URL not configured; worker has nothing to do")
		os.Exit(1)
	}

	// The worker shares the lead database with the API read-only in
	// spirit: it only loads rows to render summaries.
	store, err := leadstore.Open(cfg, log, nil)
	if err != nil {
		log.Error("failed to open lead store", "error", err)
		panic("failed to open lead store: " + err.Error())
	}
	defer store.Close()

	sender := email.NewSender(cfg)
	if !cfg.GetEmailEnabled() {
		log.Warn("email disabled; follow-up tasks will be acknowledged without sending")
	}

	worker, err := scheduler.NewWorker(cfg, store, sender, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	log.Info("worker listening", "queue", cfg.GetAsynqQueueName())
	worker.Run(ctx)
	log.Info("worker stopped")
}
