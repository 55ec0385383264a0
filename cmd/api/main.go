package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"helpdesk_backend/internal/adapters/storage"
	"helpdesk_backend/internal/attachments"
	"helpdesk_backend/internal/chats"
	"helpdesk_backend/internal/email"
	"helpdesk_backend/internal/events"
	"helpdesk_backend/internal/gateway"
	apphttp "helpdesk_backend/internal/http"
	"helpdesk_backend/internal/http/router"
	"helpdesk_backend/internal/notification"
	"helpdesk_backend/internal/scheduler"
	"helpdesk_backend/internal/tickets"
	"helpdesk_backend/internal/users"
	"helpdesk_backend/migrations"
	"helpdesk_backend/platform/config"
	"helpdesk_backend/platform/db"
	"helpdesk_backend/platform/logger"
	"helpdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	relay := attachments.NewRelay(storageSvc, attachments.Options{
		Bucket:       cfg.GetMinioBucketChatAttachments(),
		MaxBytes:     cfg.GetUploadMaxBytes(),
		FetchTimeout: cfg.GetAttachmentFetchTimeout(),
	}, log)
	attachmentsModule := attachments.NewModule(relay)
	if err := withRetry(ctx, log, "ensure chat-attachments bucket", 5, 2*time.Second, func() error {
		return attachmentsModule.EnsureBucket(ctx)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketChatAttachments())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "bucket", cfg.GetMinioBucketChatAttachments())

	gatewayClient := gateway.NewClient(cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	usersModule := users.NewModule(pool)
	chatsModule := chats.NewModule(pool, usersModule.Repository(), gatewayClient, relay, val, log)
	ticketsModule := tickets.NewModule(pool, usersModule.Repository(), chatsModule.Chats(), eventBus, val, log)

	notificationModule := notification.New(email.NewSender(cfg), usersModule.Repository(), cfg.GetSupportInboxAddress(), log)
	notificationModule.RegisterHandlers(eventBus)
	closeQueue := initNotificationQueue(cfg, log, notificationModule)
	if closeQueue != nil {
		defer closeQueue()
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			usersModule,
			chatsModule,
			attachmentsModule,
			ticketsModule,
			notificationModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		// no WriteTimeout: image turns may legitimately run for the full gateway budget
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		notificationModule.SSE().Close()
		return srv.Shutdown(shutdownCtx)
	})
	if closeQueue == nil {
		// without a worker deployment the API purges stale suggestions itself
		cleanup := scheduler.NewPendingTicketCleanup(ticketsModule.Repository(), log, 0, 0)
		g.Go(func() error {
			cleanup.Run(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	eventBus.Wait()
	log.Info("server stopped")
}

func initNotificationQueue(cfg config.SchedulerConfig, log *logger.Logger, module *notification.Module) func() {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; ticket notifications are sent inline")
		return nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize notification queue client", "error", err)
		return nil
	}
	module.SetQueue(client)

	return func() {
		_ = client.Close()
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
