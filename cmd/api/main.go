package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-manager/internal/api/http"
	"github.com/spec-kit/ticket-manager/internal/api/http/handlers"
	"github.com/spec-kit/ticket-manager/internal/auth"
	"github.com/spec-kit/ticket-manager/internal/config"
	"github.com/spec-kit/ticket-manager/internal/events"
	"github.com/spec-kit/ticket-manager/internal/observability"
	"github.com/spec-kit/ticket-manager/internal/persistence"
	"github.com/spec-kit/ticket-manager/internal/repository"
	"github.com/spec-kit/ticket-manager/internal/service"
	"github.com/spec-kit/ticket-manager/internal/worker"
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
	userRepo := repository.NewUserRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	modRepo := repository.NewModificationRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	refRepo := repository.NewReferenceRepository(pool, redis.Client, cfg.Reference.CacheTTL())

	refData, err := config.LoadReferenceData(cfg.Reference.Dir)
	if err != nil {
		logger.Fatal("failed to load reference data", zap.Error(err))
	}
	if seeded, err := refRepo.EnsureSeeded(ctx, refData); err != nil {
		logger.Fatal("failed to seed reference data", zap.Error(err))
	} else if seeded > 0 {
		logger.Info("seeded reference data", zap.Int("rows", seeded))
	}

	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:        userRepo,
		ResetRepo:       resetRepo,
		Tokens:          tokens,
		BcryptCost:      cfg.Auth.BcryptCost,
		ResetTTLMinutes: cfg.Auth.PasswordResetTTLMinutes,
	})
	userService := service.NewUserService(userRepo, refRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:    ticketRepo,
		ReferenceRepo: refRepo,
		UserRepo:      userRepo,
		CommentRepo:   commentRepo,
		Dispatcher:    dispatcher,
	})
	resolver := service.NewReferenceResolver(refRepo, userRepo)
	modService := service.NewModificationService(service.ModificationDependencies{
		ModificationRepo: modRepo,
		TicketRepo:       ticketRepo,
		UserRepo:         userRepo,
		Resolver:         resolver,
		Dispatcher:       dispatcher,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService, userService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Modifications:  handlers.NewModificationsHandler(modService),
		Comments:       handlers.NewCommentsHandler(ticketService),
		References:     handlers.NewReferenceHandler(refRepo),
		Dashboard:      handlers.NewDashboardHandler(ticketService),
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
