package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/student-portal-api/internal/config"
	"github.com/noah-isme/student-portal-api/internal/credential"
	"github.com/noah-isme/student-portal-api/internal/database"
	"github.com/noah-isme/student-portal-api/internal/handler"
	"github.com/noah-isme/student-portal-api/internal/middleware"
	"github.com/noah-isme/student-portal-api/internal/repository"
	"github.com/noah-isme/student-portal-api/internal/router"
	"github.com/noah-isme/student-portal-api/internal/service"
	"github.com/noah-isme/student-portal-api/pkg/airtable"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	deriver, err := credential.NewDeriver(cfg.PasswordSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid credential configuration")
	}

	source, err := airtable.New(airtable.Config{
		APIKey:  cfg.AirtableAPIKey,
		BaseID:  cfg.AirtableBaseID,
		BaseURL: cfg.AirtableAPIURL,
		Timeout: cfg.AirtableTimeout,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create airtable client")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	}

	var auditRepo repository.AuditLogRepository
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		if err := database.Migrate(db); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
		auditRepo = repository.NewAuditLogRepository(db)
	}

	var publisher service.EventPublisher
	if cfg.NATSURL != "" {
		natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer drainNATS(natsConn, logger)
		publisher = natsConn
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	rosterRepo := repository.NewRosterRepository(source, cfg.StudentsTable, cfg.StudentsView)
	attendanceRepo := repository.NewAttendanceRepository(source, repository.AttendanceTable{
		Table:       cfg.AttendanceTable,
		View:        cfg.AttendanceView,
		NameField:   cfg.AttendanceNameField,
		CourseField: cfg.AttendanceCourseField,
	})

	directory := service.NewDirectoryService(rosterRepo, deriver, service.DirectoryOptions{
		Interval: cfg.DirectoryRefresh,
		Timeout:  cfg.DirectoryRefreshTimeout,
	}, logger)

	loadCtx, loadCancel := context.WithTimeout(ctx, cfg.DirectoryRefreshTimeout)
	err = directory.Refresh(loadCtx)
	loadCancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initial student directory load failed")
	}

	directory.Start(ctx)
	if redisClient != nil {
		if err := directory.ListenForTriggers(ctx, redisClient, cfg.RefreshChannel); err != nil {
			logger.Fatal().Err(err).Msg("failed to subscribe to directory refresh channel")
		}
	}

	auditService := service.NewAuditService(auditRepo, publisher, cfg.NATSSubjectBase, logger)
	authService := service.NewAuthService(directory, auditService, cfg.MasterPassword, logger)
	attendanceService := service.NewAttendanceService(directory, attendanceRepo, cfg.AttendanceCutoff, logger)
	rosterService := service.NewRosterService(directory, attendanceRepo, cfg.AttendanceCutoff, cfg.ClassReportJobs, logger)
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL, cfg.AppName)

	if cfg.MasterPassword == "" {
		logger.Info().Msg("staff override disabled")
	}
	if !auditService.Enabled() {
		logger.Info().Msg("audit log persistence disabled; staff overrides are logged only")
	}
	if !tokens.Enabled() {
		logger.Info().Msg("session tokens disabled; attendance and class routes are open")
	}

	var limiterStorage fiber.Storage
	if redisClient != nil {
		limiterStorage = middleware.NewRedisStorage(redisClient, "portal:limiter:")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowedOrigins: cfg.AllowedOrigins})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, tokens, validate, logger),
		AttendanceHandler: handler.NewAttendanceHandler(attendanceService, logger),
		AuditHandler:      handler.NewAuditHandler(auditService, logger),
		RosterHandler:     handler.NewRosterHandler(rosterService, logger),
		Directory:         directory,
		Audit:             auditService,
		Tokens:            tokens,
		LoginLimiter: middleware.RateLimit(middleware.RateLimitConfig{
			Identifier: "login",
			Max:        cfg.LoginRateMax,
			Window:     cfg.LoginRateWindow,
			Storage:    limiterStorage,
			Message:    "Too many login attempts, please try again later",
		}),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	logger.Info().Str("address", cfg.HTTPAddress()).Int("students", directory.Size()).Msg("server started")

	waitForShutdown(app, cancel, logger)
}

func waitForShutdown(app *fiber.App, stopBackground context.CancelFunc, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}

func drainNATS(conn *nats.Conn, logger zerolog.Logger) {
	if err := conn.Drain(); err != nil {
		logger.Warn().Err(err).Msg("failed to drain nats connection")
	}
}
