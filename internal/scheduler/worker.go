package scheduler

import (
	"context"
	"fmt"

	"helpdesk_backend/platform/config"
	"helpdesk_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// TicketNotifier delivers one ticket notification.
type TicketNotifier interface {
	NotifyTicket(ctx context.Context, payload TicketNotificationPayload) error
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	notifier TicketNotifier
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, notifier TicketNotifier, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server:   server,
		mux:      asynq.NewServeMux(),
		notifier: notifier,
		log:      log,
	}
	w.mux.HandleFunc(TaskTicketNotification, w.handleTicketNotification)

	return w, nil
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

func (w *Worker) handleTicketNotification(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseTicketNotificationPayload(task)
	if err != nil {
		// a malformed payload never succeeds
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	switch payload.Kind {
	case TicketNotificationConfirmed, TicketNotificationResolved:
	default:
		return fmt.Errorf("%w: unknown notification kind %q", asynq.SkipRetry, payload.Kind)
	}

	if err := w.notifier.NotifyTicket(ctx, payload); err != nil {
		w.log.Warn("ticket notification failed", "ticket_number", payload.TicketNumber, "kind", payload.Kind, "error", err)
		return err
	}
	w.log.Info("ticket notification sent", "ticket_number", payload.TicketNumber, "kind", payload.Kind)
	return nil
}
