package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/mailroom/internal/api/http"
	"github.com/spec-kit/mailroom/internal/api/http/handlers"
	"github.com/spec-kit/mailroom/internal/config"
	"github.com/spec-kit/mailroom/internal/dedup"
	"github.com/spec-kit/mailroom/internal/events"
	"github.com/spec-kit/mailroom/internal/ingest"
	"github.com/spec-kit/mailroom/internal/notify"
	"github.com/spec-kit/mailroom/internal/observability"
	"github.com/spec-kit/mailroom/internal/persistence"
	"github.com/spec-kit/mailroom/internal/repository"
	"github.com/spec-kit/mailroom/internal/storage"
	"github.com/spec-kit/mailroom/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient := persistence.NewRedis(cfg.Redis, logger)
	defer redisClient.Close()

	objectStore, err := storage.New(cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to init object storage", zap.Error(err))
	}

	pool := pg.PoolHandle()
	ticketStore := repository.NewTicketStore(pool)
	userDirectory := repository.NewUserDirectory(pool)
	dedupStore := dedup.NewRedisStore(redisClient.Client, cfg.Ingest.DedupTTL())

	dispatcher := events.NewInMemoryDispatcher(logger)
	notifier := notify.NewSMTPNotifier(cfg.SMTP, logger)
	notificationService := notify.NewNotificationService(dispatcher, notifier, logger, cfg.Ingest)
	worker.StartNotificationWorker(notificationService)

	resolver := ingest.NewResolver(ticketStore, cfg.Ingest.TicketScanCap, logger)
	authorizer := ingest.NewAuthorizer(userDirectory, logger)
	attachmentIngestor := ingest.NewAttachmentIngestor(objectStore, logger)
	pipeline := ingest.NewPipeline(ticketStore, resolver, authorizer, attachmentIngestor, dedupStore, dispatcher, logger)

	handshakeClient := &http.Client{Timeout: cfg.Ingest.HandshakeTimeout()}
	ingestRouter := ingest.NewRouter(pipeline, handshakeClient, logger)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: 25 * 1024 * 1024, // raw MIME payloads with attachments
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisClient)
	webhookHandler := handlers.NewWebhookHandler(ingestRouter)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  healthHandler,
		Webhook: webhookHandler,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
