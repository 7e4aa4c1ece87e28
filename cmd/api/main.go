package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/case-service/internal/api/http"
	"github.com/spec-kit/case-service/internal/api/http/handlers"
	"github.com/spec-kit/case-service/internal/auth"
	"github.com/spec-kit/case-service/internal/config"
	"github.com/spec-kit/case-service/internal/events"
	"github.com/spec-kit/case-service/internal/observability"
	"github.com/spec-kit/case-service/internal/persistence"
	"github.com/spec-kit/case-service/internal/repository"
	"github.com/spec-kit/case-service/internal/service"
	"github.com/spec-kit/case-service/internal/worker"
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
	citizenRepo := repository.NewCitizenRepository(pool)
	officerRepo := repository.NewOfficerRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	applicationRepo := repository.NewApplicationRepository(pool)
	historyRepo := repository.NewApplicationHistoryRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		CitizenRepo:       citizenRepo,
		OfficerRepo:       officerRepo,
		PasswordResetRepo: resetRepo,
	})
	officerService := service.NewOfficerService(*cfg, service.OrgDependencies{
		DepartmentRepo: departmentRepo,
		OfficerRepo:    officerRepo,
	})

	stamper := service.NewHashStamper(logger)
	lifecycleService := service.NewLifecycleService(cfg.Lifecycle, service.LifecycleDependencies{
		ApplicationRepo: applicationRepo,
		OfficerRepo:     officerRepo,
		HistoryRepo:     historyRepo,
		Dispatcher:      dispatcher,
		Stamper:         stamper,
		Logger:          logger,
	})
	assignmentService := service.NewAssignmentService(officerRepo, applicationRepo)
	applicationService := service.NewApplicationService(cfg.Lifecycle, service.ApplicationDependencies{
		ApplicationRepo: applicationRepo,
		HistoryRepo:     historyRepo,
		Lifecycle:       lifecycleService,
		Selector:        assignmentService,
		Dispatcher:      dispatcher,
		Redis:           redis.Client,
		Logger:          logger,
	})
	escalationService := service.NewEscalationService(applicationRepo, officerRepo, lifecycleService, assignmentService, logger)
	finalizationService := service.NewFinalizationService(applicationRepo, lifecycleService, logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)
	worker.StartEscalationWorker(ctx, escalationService, cfg.Scheduler.EscalationInterval(), logger)
	worker.StartFinalizationWorker(ctx, finalizationService, cfg.Scheduler.FinalizationInterval(), logger)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), citizenRepo, officerRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:              handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Citizens:            handlers.NewCitizensHandler(authService),
		Officers:            handlers.NewOfficersHandler(authService, officerService),
		Applications:        handlers.NewApplicationsHandler(applicationService, lifecycleService),
		OfficerApplications: handlers.NewOfficerApplicationsHandler(applicationService, lifecycleService),
		AuthMiddleware:      authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
