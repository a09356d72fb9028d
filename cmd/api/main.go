package main

import (
	"context"
	"errors"
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

	"github.com/noah-isme/certify-api/internal/config"
	"github.com/noah-isme/certify-api/internal/database"
	"github.com/noah-isme/certify-api/internal/handler"
	"github.com/noah-isme/certify-api/internal/middleware"
	"github.com/noah-isme/certify-api/internal/repository"
	"github.com/noah-isme/certify-api/internal/router"
	"github.com/noah-isme/certify-api/internal/scheduler"
	"github.com/noah-isme/certify-api/internal/service"
	cloud "github.com/noah-isme/certify-api/pkg/cloudinary"
	"github.com/noah-isme/certify-api/pkg/mailer"
	"github.com/noah-isme/certify-api/pkg/pdf"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := newLogger(cfg)

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		probes["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		logger.Warn().Msg("redis url not set, verification cache disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		probes["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return errors.New("nats disconnected")
			}
			return nil
		}
	} else {
		logger.Warn().Msg("nats url not set, events are only logged")
	}

	var artifactStorage, certificateStorage service.FileStorage
	if cfg.CloudinaryCloudName != "" {
		artifacts, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		documents, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryCertFolder,
			Stable:    true,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		artifactStorage, certificateStorage = artifacts, documents
	} else {
		logger.Warn().Msg("cloudinary not configured, uploads and certificate documents disabled")
	}

	var certificateMailer service.CertificateMailer = mailer.NewLogMailer(logger)
	if cfg.SendGridAPIKey != "" {
		sendgrid, err := mailer.NewSendGrid(mailer.Config{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create sendgrid mailer: %v", err)
		}
		certificateMailer = sendgrid
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	events := service.NewNATSPublisher(natsConn, logger)

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	doubtRepo := repository.NewDoubtRepository(db)
	verifierRequestRepo := repository.NewVerifierRequestRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	scoreService := service.NewScoreService(enrollmentRepo, submissionRepo, courseRepo, certificateRepo, logger)
	certificateService := service.NewCertificateService(service.CertificateDependencies{
		Enrollments:  enrollmentRepo,
		Certificates: certificateRepo,
		Scores:       scoreService,
		Renderer:     pdf.NewCertificateRenderer("Certificate of Completion", cfg.CertificateIssuer),
		Storage:      certificateStorage,
		Mailer:       certificateMailer,
		Events:       events,
		Cache:        redisClient,
		CacheTTL:     cfg.VerifyCacheTTL,
		BaseURL:      cfg.CertificateBaseURL,
	}, logger)
	courseService := service.NewCourseService(courseRepo, userRepo, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, validate, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, courseRepo, userRepo, certificateRepo, certificateService, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, enrollmentRepo, courseRepo, scoreService, events, validate, logger)
	evaluationService := service.NewEvaluationService(submissionRepo, enrollmentRepo, courseRepo, scoreService, events, validate, logger)
	doubtService := service.NewDoubtService(doubtRepo, enrollmentRepo, courseRepo, events, validate, logger)
	analyticsService := service.NewAnalyticsService(analyticsRepo, redisClient, cfg.AnalyticsCacheTTL, logger)
	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		Enrollments:  enrollmentRepo,
		Courses:      courseRepo,
		Certificates: certificateRepo,
		Submissions:  submissionRepo,
		Doubts:       doubtRepo,
	}, logger)
	userService := service.NewUserService(userRepo, validate, logger)
	verifierRequestService := service.NewVerifierRequestService(verifierRequestRepo, events, cfg.VerifierEmailDomains, validate, logger)

	var uploadHandler *handler.UploadHandler
	if artifactStorage != nil {
		uploadHandler = handler.NewUploadHandler(service.NewUploadService(artifactStorage, cfg.UploadMaxSizeMB, logger), logger)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		CourseHandler:         handler.NewCourseHandler(courseService, logger),
		AssignmentHandler:     handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler:     handler.NewSubmissionHandler(submissionService, logger),
		EvaluationHandler:     handler.NewEvaluationHandler(evaluationService, logger),
		EnrollmentHandler:     handler.NewEnrollmentHandler(enrollmentService, logger),
		CertificateHandler:    handler.NewCertificateHandler(certificateService, validate, logger),
		ResultsHandler:        handler.NewResultsHandler(scoreService, logger),
		UploadHandler:         uploadHandler,
		DoubtHandler:          handler.NewDoubtHandler(doubtService, logger),
		AnalyticsHandler:      handler.NewAnalyticsHandler(analyticsService, logger),
		DashboardHandler:      handler.NewDashboardHandler(dashboardService, logger),
		UserHandler:           handler.NewUserHandler(userService, logger),
		VerifierHandler:       handler.NewVerifierRequestHandler(verifierRequestService, logger),
		HealthProbes:          probes,
		JWTMiddleware:         middleware.JWTProtected(cfg.JWTSecret),
		OptionalJWTMiddleware: middleware.JWTOptional(cfg.JWTSecret),
		VerifyLimiter:         middleware.RateLimit("verify", cfg.RateLimitMax, cfg.RateLimitWindow),
		SubmitLimiter:         middleware.RateLimit("submit", cfg.RateLimitMax, cfg.RateLimitWindow),
		ApplyLimiter:          middleware.RateLimit("verifier_apply", cfg.RateLimitMax, cfg.RateLimitWindow),
		ExposeMetrics:         true,
	})

	var sweeper *scheduler.ResultsSweeper
	if cfg.ResultsCron != "" {
		sweeper = scheduler.NewResultsSweeper(courseRepo, scoreService, logger)
		if err := sweeper.Start(cfg.ResultsCron); err != nil {
			log.Fatalf("failed to start results sweeper: %v", err)
		}
	}

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, logger, func(ctx context.Context) {
		if sweeper != nil {
			sweeper.Stop(ctx)
		}
		if natsConn != nil {
			if err := natsConn.Drain(); err != nil {
				logger.Warn().Err(err).Msg("failed to drain nats connection")
			}
		}
	})
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()
	if !cfg.IsProduction() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger, cleanup func(context.Context)) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	cleanup(ctx)

	logger.Info().Msg("server stopped")
}
