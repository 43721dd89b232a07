package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/booking-service/internal/api/http"
	"github.com/spec-kit/booking-service/internal/api/http/handlers"
	"github.com/spec-kit/booking-service/internal/auth"
	"github.com/spec-kit/booking-service/internal/config"
	"github.com/spec-kit/booking-service/internal/events"
	"github.com/spec-kit/booking-service/internal/observability"
	"github.com/spec-kit/booking-service/internal/persistence"
	"github.com/spec-kit/booking-service/internal/repository"
	"github.com/spec-kit/booking-service/internal/schedule"
	"github.com/spec-kit/booking-service/internal/service"
	"github.com/spec-kit/booking-service/internal/worker"
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

	redisConn := persistence.NewRedis(cfg.Redis, logger)
	defer redisConn.Close()

	slots, err := schedule.ParseSlotTimes(cfg.Scheduling.SlotTimes)
	if err != nil {
		logger.Fatal("invalid slot configuration", zap.Error(err))
	}
	location, err := time.LoadLocation(cfg.Scheduling.Timezone)
	if err != nil {
		logger.Fatal("invalid schedule timezone", zap.Error(err))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	appointmentRepo := repository.NewAppointmentRepository(pool)
	historyRepo := repository.NewHistoryRepository(pool)

	dispatcher := events.NewInMemoryDispatcher(logger)
	kafkaBridge := events.NewKafkaBridge(cfg.Kafka, logger)
	if kafkaBridge != nil {
		kafkaBridge.Register(dispatcher)
		defer kafkaBridge.Close()
	}

	availabilityCache := schedule.NewCache(redisConn.Client, logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		StaffRepo:         staffRepo,
		PasswordResetRepo: resetRepo,
	})
	staffService := service.NewStaffService(*cfg, staffRepo)
	appointmentService := service.NewAppointmentService(service.AppointmentDependencies{
		AppointmentRepo: appointmentRepo,
		UserRepo:        userRepo,
		StaffRepo:       staffRepo,
		HistoryRepo:     historyRepo,
		Dispatcher:      dispatcher,
		Slots:           slots,
		Location:        location,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		AppointmentRepo: appointmentRepo,
		StaffRepo:       staffRepo,
		HistoryRepo:     historyRepo,
		Dispatcher:      dispatcher,
	})
	availabilityService := service.NewAvailabilityService(service.AvailabilityDependencies{
		AppointmentRepo: appointmentRepo,
		StaffRepo:       staffRepo,
		Cache:           availabilityCache,
		Slots:           slots,
		Location:        location,
		Logger:          logger,
	})
	availabilityService.RegisterInvalidation(dispatcher)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, staffRepo)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisConn),
		Users:          handlers.NewUsersHandler(authService),
		Staff:          handlers.NewStaffHandler(authService, staffService),
		Appointments:   handlers.NewAppointmentsHandler(appointmentService),
		Availability:   handlers.NewAvailabilityHandler(availabilityService),
		Dispatch:       handlers.NewDispatchHandler(appointmentService, assignmentService),
		Sales:          handlers.NewSalesHandler(appointmentService, assignmentService),
		Metrics:        handlers.NewMetricsHandler(metrics),
		AuthMiddleware: authMiddleware,
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
