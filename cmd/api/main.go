package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/config"
	"github.com/noah-isme/learnhub-api/internal/database"
	"github.com/noah-isme/learnhub-api/internal/handler"
	"github.com/noah-isme/learnhub-api/internal/middleware"
	"github.com/noah-isme/learnhub-api/internal/repository"
	"github.com/noah-isme/learnhub-api/internal/router"
	"github.com/noah-isme/learnhub-api/internal/service"
	"github.com/noah-isme/learnhub-api/internal/utils"
	cloud "github.com/noah-isme/learnhub-api/pkg/cloudinary"
	"github.com/noah-isme/learnhub-api/pkg/mailer"
	"github.com/noah-isme/learnhub-api/pkg/objectstore"
	"github.com/noah-isme/learnhub-api/pkg/payment"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if !cfg.IsProduction() {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	db, err := database.Connect(cfg.DatabaseURL, database.Options{LogSQL: !cfg.IsProduction()})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
	}

	provider, err := newPaymentProvider(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure payment provider")
	}
	uploader, err := newUploader(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure file storage")
	}
	mail, err := newMailer(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure mailer")
	}

	probes := map[string]handler.HealthProbe{"database": database.SQLProbe(db)}
	if redisClient != nil {
		probes["redis"] = database.RedisProbe(redisClient)
	}
	if natsConn != nil {
		probes["nats"] = database.NATSProbe(natsConn)
	}

	validate := utils.NewValidator()

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	events := service.NewNATSEventPublisher(natsConn, cfg.EventSubjectPrefix, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.EventSubjectPrefix, natsConn, validate, logger)
	activityService := service.NewActivityService(activityRepo, validate, logger)

	authService := service.NewAuthService(userRepo, sessionRepo, validate, service.AuthConfig{
		JWTSecret:  cfg.JWTSecret,
		SessionTTL: cfg.SessionTTL,
	}, logger)
	userService := service.NewUserService(userRepo, activityService, validate, logger)
	courseService := service.NewCourseService(courseRepo, activityService, validate, cfg.PaymentCurrency, logger)
	catalogService := service.NewCatalogService(courseRepo, validate, logger)
	lessonService := service.NewLessonService(courseRepo, enrollmentRepo, progressRepo, logger)
	enrollmentService := service.NewEnrollmentService(courseRepo, enrollmentRepo, progressRepo, notificationService, events, logger)
	progressService := service.NewProgressService(courseRepo, enrollmentRepo, progressRepo, notificationService, events, validate, logger)
	certificateService := service.NewCertificateService(courseRepo, progressRepo, certificateRepo, userRepo, notificationService, events, mail, validate, logger)
	reviewService := service.NewReviewService(courseRepo, enrollmentRepo, reviewRepo, validate, logger)
	paymentService := service.NewPaymentService(courseRepo, paymentRepo, provider, notificationService, events, validate, cfg.PaymentCurrency, logger)
	dashboardService := service.NewDashboardService(courseRepo, enrollmentRepo, progressRepo, certificateRepo, redisClient, cfg.DashboardCacheTTL, logger)
	analyticsService := service.NewAnalyticsService(service.AnalyticsDeps{
		Analytics:    analyticsRepo,
		Courses:      courseRepo,
		Enrollments:  enrollmentRepo,
		Progress:     progressRepo,
		Certificates: certificateRepo,
	}, validate, redisClient, cfg.AnalyticsCacheTTL, logger)
	seedService := service.NewSeedService(userRepo, courseRepo, cfg.SeedEnabled, cfg.SeedToken, logger)

	var uploadService service.UploadService
	if uploader != nil {
		uploadService = service.NewUploadService(courseRepo, uploader, activityService, logger)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(service.MaxImageBytes) + 1<<20,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSOrigins,
		AccessLog:    !cfg.IsProduction(),
	})
	router.Register(app, cfg, router.Dependencies{
		Sessions: middleware.SessionResolverFunc(func(ctx context.Context, token string) (middleware.Identity, error) {
			identity, err := authService.ResolveSession(ctx, token)
			if err != nil {
				return middleware.Identity{}, err
			}
			return middleware.Identity{UserID: identity.UserID, Role: identity.Role}, nil
		}),
		HealthProbes:         probes,
		AuthHandler:          handler.NewAuthHandler(authService, logger),
		UserHandler:          handler.NewUserHandler(userService, logger),
		CourseHandler:        handler.NewCourseHandler(courseService, uploadService, logger),
		CatalogHandler:       handler.NewCatalogHandler(catalogService, logger),
		LessonHandler:        handler.NewLessonHandler(lessonService, progressService, logger),
		ProgressHandler:      handler.NewProgressHandler(progressService, logger),
		EnrollmentHandler:    handler.NewEnrollmentHandler(enrollmentService, logger),
		CertificateHandler:   handler.NewCertificateHandler(certificateService, logger),
		ReviewHandler:        handler.NewReviewHandler(reviewService, logger),
		PaymentHandler:       handler.NewPaymentHandler(paymentService, logger),
		NotificationHandler:  handler.NewNotificationHandler(notificationService, logger, cfg.NotificationKeepAlive),
		DashboardHandler:     handler.NewDashboardHandler(dashboardService, logger),
		AnalyticsHandler:     handler.NewAnalyticsHandler(analyticsService, logger),
		AdminActivityHandler: handler.NewAdminActivityHandler(activityService, logger),
		SeedHandler:          handler.NewSeedHandler(seedService, logger),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notificationService.Start(ctx)

	var scheduler *service.Scheduler
	if cfg.SchedulerEnabled {
		scheduler = service.NewScheduler(sessionRepo, paymentService, logger)
		if err := scheduler.Start(); err != nil {
			logger.Fatal().Err(err).Msg("failed to start scheduler")
		}
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Str("env", cfg.AppEnv).Msg("http server starting")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, scheduler, logger)
}

func newPaymentProvider(cfg config.Config, logger zerolog.Logger) (payment.Provider, error) {
	switch cfg.PaymentProvider {
	case "stripe":
		return payment.NewStripeClient(payment.StripeConfig{
			APIKey:  cfg.PaymentAPIKey,
			BaseURL: cfg.PaymentBaseURL,
		}, logger)
	case "sandbox":
		logger.Warn().Msg("using sandbox payment provider")
		return payment.NewSandbox(), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.PaymentProvider)
	}
}

// newUploader returns nil when storage is disabled; the image endpoint then answers 503.
func newUploader(cfg config.Config, logger zerolog.Logger) (service.FileUploader, error) {
	switch cfg.StorageDriver {
	case "cloudinary":
		return cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
	case "minio":
		store, err := objectstore.New(objectstore.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		}, logger)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func newMailer(cfg config.Config, logger zerolog.Logger) (mailer.Sender, error) {
	switch cfg.MailProvider {
	case "sendgrid":
		return mailer.NewSendGrid(cfg.SendGridAPIKey, mailer.From{
			Address: cfg.MailFromAddress,
			Name:    cfg.MailFromName,
		}, logger)
	case "log", "":
		return mailer.NewLog(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.MailProvider)
	}
}

func waitForShutdown(app *fiber.App, scheduler *service.Scheduler, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-ctx.Done():
			logger.Warn().Msg("scheduler jobs still running at shutdown")
		}
	}

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
