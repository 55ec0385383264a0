package scheduler

import (
	"context"
	"time"

	"helpdesk_backend/platform/logger"
)

const (
	defaultPendingTicketCleanupInterval = time.Hour
	defaultPendingTicketRetention       = 7 * 24 * time.Hour
)

// PendingTicketPurger removes suggestions nobody confirmed or cancelled.
type PendingTicketPurger interface {
	DeletePendingBefore(ctx context.Context, before time.Time) (int64, error)
}

// PendingTicketCleanup periodically removes stale pending tickets.
type PendingTicketCleanup struct {
	repo      PendingTicketPurger
	log       *logger.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewPendingTicketCleanup(repo PendingTicketPurger, log *logger.Logger, interval, retention time.Duration) *PendingTicketCleanup {
	if interval <= 0 {
		interval = defaultPendingTicketCleanupInterval
	}
	if retention <= 0 {
		retention = defaultPendingTicketRetention
	}

	return &PendingTicketCleanup{
		repo:      repo,
		log:       log,
		interval:  interval,
		retention: retention,
		now:       time.Now,
	}
}

func (c *PendingTicketCleanup) Run(ctx context.Context) {
	if c == nil || c.repo == nil {
		return
	}

	c.cleanup(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *PendingTicketCleanup) cleanup(ctx context.Context) {
	deleted, err := c.repo.DeletePendingBefore(ctx, c.now().Add(-c.retention))
	if err != nil {
		c.log.Warn("pending ticket cleanup failed", "error", err)
		return
	}

	if deleted > 0 {
		c.log.Info("pending ticket cleanup deleted stale suggestions", "deleted", deleted)
	}
}
