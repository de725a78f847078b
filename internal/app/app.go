package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/classhub/portal-service/internal/config"
	"github.com/classhub/portal-service/internal/delivery/httpd"
	"github.com/classhub/portal-service/internal/repository"
	"github.com/classhub/portal-service/internal/service"
	"github.com/classhub/portal-service/internal/service/integration"
	"github.com/classhub/portal-service/internal/service/storage"
)

type App struct {
	server    *http.Server
	logger    zerolog.Logger
	config    *config.Config
	db        *sql.DB
	publisher integration.EventPublisher
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	// Storage and messaging are best-effort at startup. The service keeps
	// working without them, submissions just skip mirroring and events.
	var fileStore storage.FileStore
	minioStore, err := storage.NewMinIOStore(
		cfg.Storage.Endpoint,
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.Bucket,
		cfg.Storage.Region,
		cfg.Storage.UseSSL,
		cfg.Storage.ConnectTimeout,
		log,
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create object storage client")
	} else {
		fileStore = minioStore
	}

	publisher, err := integration.NewRabbitMQPublisher(
		cfg.RabbitMQ.URL,
		cfg.RabbitMQ.Exchange,
		cfg.RabbitMQ.QueueName,
		log,
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create RabbitMQ publisher")
		publisher = nil
	}

	submissionRepo := repository.NewSubmissionRepository(db, log)
	assignmentRepo := repository.NewAssignmentRepository(db, log)
	userRepo := repository.NewUserRepository(db, log)
	notificationRepo := repository.NewNotificationRepository(db, log)
	settingsRepo := repository.NewSettingsRepository(db, log)

	submissionService := service.NewSubmissionService(
		submissionRepo,
		assignmentRepo,
		userRepo,
		notificationRepo,
		settingsRepo,
		fileStore,
		publisher,
		log,
	)
	assignmentService := service.NewAssignmentService(
		assignmentRepo,
		userRepo,
		notificationRepo,
		log,
	)
	userService := service.NewUserService(userRepo, log)
	notificationService := service.NewNotificationService(notificationRepo, log)
	settingsService := service.NewSettingsService(settingsRepo, log)

	handler := httpd.NewHandler(
		submissionService,
		assignmentService,
		userService,
		notificationService,
		settingsService,
		log,
	)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:    server,
		logger:    log,
		config:    cfg,
		db:        db,
		publisher: publisher,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info().Msgf("Starting portal service on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down portal service...")

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	return a.server.Shutdown(ctx)
}
