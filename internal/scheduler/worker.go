package scheduler

import (
	"context"
	"fmt"

	"realty_agent_backend/internal/email"
	"realty_agent_backend/internal/leadstore"
	"realty_agent_backend/platform/config"
	"realty_agent_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	store  *leadstore.Store
	sender email.Sender
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, store *leadstore.Store, sender email.Sender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		store:  store,
		sender: sender,
		log:    log,
	}

	mux.HandleFunc(TaskLeadFollowupEmail, w.handleLeadFollowupEmail)

	return w, nil
}

func (w *Worker) handleLeadFollowupEmail(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadFollowupEmailPayload(task)
	if err != nil {
		return err
	}

	lead, err := w.store.Get(ctx, payload.SessionID)
	if err != nil {
		return fmt.Errorf("load lead %s: %w", payload.SessionID, err)
	}

	if err := w.sender.SendLeadSummary(ctx, lead); err != nil {
		return fmt.Errorf("send lead summary %s: %w", payload.SessionID, err)
	}

	w.log.Info("lead follow-up email sent", "session_id", payload.SessionID, "qualified", lead.Qualified)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
