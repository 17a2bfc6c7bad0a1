package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/helpdesk-io/helpdesk-service/internal/api/http"
	"github.com/helpdesk-io/helpdesk-service/internal/api/http/handlers"
	"github.com/helpdesk-io/helpdesk-service/internal/auth"
	"github.com/helpdesk-io/helpdesk-service/internal/config"
	"github.com/helpdesk-io/helpdesk-service/internal/events"
	"github.com/helpdesk-io/helpdesk-service/internal/observability"
	"github.com/helpdesk-io/helpdesk-service/internal/persistence"
	"github.com/helpdesk-io/helpdesk-service/internal/repository"
	"github.com/helpdesk-io/helpdesk-service/internal/service"
	"github.com/helpdesk-io/helpdesk-service/internal/sla"
	"github.com/helpdesk-io/helpdesk-service/internal/worker"
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)

	clock := sla.SystemClock{}
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, userRepo)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		CategoryRepo: categoryRepo,
		UserRepo:     userRepo,
		Clock:        clock,
		Dispatcher:   dispatcher,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:   ticketRepo,
		UserRepo:     userRepo,
		CategoryRepo: categoryRepo,
		Clock:        clock,
		Dispatcher:   dispatcher,
	})
	analysisService := service.NewAnalysisService(service.AnalysisDependencies{
		TicketRepo: ticketRepo,
		Clock:      clock,
		Cache:      redis.Client,
		Logger:     logger,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification, clock)
	worker.StartNotificationWorker(notificationService)

	slaMonitor := service.NewSLAMonitor(service.SLAMonitorDependencies{
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		Notifier:   notificationService,
		Clock:      clock,
		Cache:      redis.Client,
		Logger:     logger,
	})

	var slaWorker *worker.SLAWorker
	if cfg.SLA.SweepEnabled {
		slaWorker = worker.NewSLAWorker(slaMonitor, cfg.SLA.SweepSchedule, logger)
		if err := slaWorker.Start(); err != nil {
			logger.Fatal("failed to start sla worker", zap.Error(err))
		}
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, clock),
		Assignment:     handlers.NewAssignmentHandler(assignmentService),
		Analysis:       handlers.NewAnalysisHandler(analysisService),
		Categories:     handlers.NewCategoriesHandler(categoryRepo),
		SLA:            handlers.NewSLAHandler(slaMonitor, metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if slaWorker != nil {
		slaWorker.Stop()
	}
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
