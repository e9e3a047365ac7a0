package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apihttp "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/api/web"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/realtime"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/storage"
	"github.com/spec-kit/helpdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	rdb := persistence.NewRedis(cfg.Redis, logger)
	defer rdb.Close()

	attachments, err := storage.NewLocalStore(cfg.Storage.AttachmentDir)
	if err != nil {
		logger.Fatal("attachment store init failed", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(pg.PoolHandle())
	categoryRepo := repository.NewCategoryRepository(pg.PoolHandle())
	ticketRepo := repository.NewTicketRepository(pg.PoolHandle())
	commentRepo := repository.NewCommentRepository(pg.PoolHandle())
	messageRepo := repository.NewMessageRepository(pg.PoolHandle())

	dispatcher := events.NewInMemoryDispatcher()
	broker := realtime.NewRedisBroker(rdb.Client, logger)
	hub := realtime.NewHub(broker, logger)

	categoryService := service.NewCategoryService(categoryRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		CategoryRepo: categoryRepo,
		UserRepo:     userRepo,
		CommentRepo:  commentRepo,
		MessageRepo:  messageRepo,
		Attachments:  attachments,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	commentService := service.NewCommentService(commentRepo, ticketRepo, dispatcher)
	messageService := service.NewMessageService(service.MessageDependencies{
		MessageRepo: messageRepo,
		TicketRepo:  ticketRepo,
		Broker:      broker,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notify)
	worker.StartNotificationWorker(notificationService)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL())
	sessions := auth.NewSessionStore(rdb.Client, cfg.Auth.SessionTTL())
	authMiddleware := auth.NewMiddleware(tokens, sessions, userRepo, cfg.Auth.SessionCookieName)

	metrics := observability.NewMetrics()
	realtimeHandler := handlers.NewRealtimeHandler(hub, ticketService, logger)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
		BodyLimit:             int(cfg.Storage.APIMaxUploadBytes) + 1024*1024,
	})
	apihttp.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	apiRouter := &apihttp.Router{
		Auth:       authMiddleware,
		Health:     handlers.NewHealthHandler(pg, rdb),
		Categories: handlers.NewCategoriesHandler(categoryService),
		Tickets:    handlers.NewTicketsHandler(ticketService, cfg.Storage.APIMaxUploadBytes),
		Comments:   handlers.NewCommentsHandler(commentService),
		Messages:   handlers.NewMessagesHandler(messageService),
		Realtime:   realtimeHandler,
	}
	apiRouter.Register(app)

	webRouter := &web.Router{
		Auth:        authMiddleware,
		Dashboard:   web.NewDashboardHandler(ticketService, sessions, logger),
		Tickets:     web.NewTicketsHandler(ticketService, categoryService, sessions, logger, cfg.Storage.WebMaxUploadBytes),
		Categories:  web.NewCategoriesHandler(categoryService, sessions, logger),
		Comments:    web.NewCommentsHandler(commentService, sessions, logger),
		Messages:    web.NewMessagesHandler(messageService),
		Attachments: web.NewAttachmentsHandler(attachments),
	}
	webRouter.Register(app)

	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env), zap.String("version", cfg.App.Version))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
