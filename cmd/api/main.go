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
	"github.com/rs/zerolog"

	"github.com/noah-isme/studyfriend-api/internal/config"
	"github.com/noah-isme/studyfriend-api/internal/database"
	"github.com/noah-isme/studyfriend-api/internal/handler"
	"github.com/noah-isme/studyfriend-api/internal/middleware"
	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/repository"
	"github.com/noah-isme/studyfriend-api/internal/router"
	"github.com/noah-isme/studyfriend-api/internal/service"
	"github.com/noah-isme/studyfriend-api/pkg/ai"
	"github.com/noah-isme/studyfriend-api/pkg/mailer"
	"github.com/noah-isme/studyfriend-api/pkg/vector"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.College{},
		&models.Subject{},
		&models.Course{},
		&models.Enrollment{},
		&models.Material{},
		&models.Query{},
		&models.MockTest{},
		&models.TestAttempt{},
		&models.Assignment{},
		&models.Submission{},
		&models.Session{},
		&models.Payment{},
		&models.Refund{},
		&models.Transaction{},
		&models.Notification{},
		&models.OTP{},
		&models.PendingRegistration{},
		&models.PasswordResetAttempt{},
		&models.ChatConversation{},
		&vector.Document{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	mail, err := mailer.NewSendgridMailer(mailer.SendgridConfig{
		APIKey:    cfg.SendgridAPIKey,
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("failed to create mailer: %v", err)
	}

	assistant, err := ai.NewOpenAIAssistant(ai.OpenAIConfig{
		APIKey:         cfg.AIAPIKey,
		BaseURL:        cfg.AIBaseURL,
		Model:          cfg.AIModel,
		EmbeddingModel: cfg.EmbeddingModel,
		Logger:         logger,
	})
	if err != nil {
		log.Fatalf("failed to create ai client: %v", err)
	}

	store := vector.NewStore(db, assistant, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	collegeRepo := repository.NewCollegeRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	queryRepo := repository.NewQueryRepository(db)
	testRepo := repository.NewTestRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	chatRepo := repository.NewChatRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, logger)
	otpService := service.NewOTPService(otpRepo, mail, cfg.OTPTTL, logger)
	authService := service.NewAuthService(userRepo, otpRepo, otpService, mail, validate, cfg.JWTSecret, cfg.TokenTTL, cfg.OTPTTL, logger)
	searchService := service.NewSearchService(store, materialRepo, courseRepo, queryRepo, validate, logger)
	catalogService := service.NewCatalogService(collegeRepo, subjectRepo, courseRepo, userRepo, searchService, validate, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, courseRepo, validate, logger)
	materialService := service.NewMaterialService(materialRepo, searchService, validate, logger)
	queryService := service.NewQueryService(queryRepo, assistant, notificationService, searchService, validate, logger)
	testService := service.NewTestService(testRepo, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, notificationService, validate, logger)
	walletService := service.NewWalletService(userRepo, paymentRepo, logger)
	paymentService := service.NewPaymentService(paymentRepo, walletService, service.GatewayCredentials{
		RazorpayKeyID:         cfg.RazorpayKeyID,
		RazorpayKeySecret:     cfg.RazorpayKeySecret,
		RazorpayWebhookSecret: cfg.RazorpayWebhookSecret,
		StripeSecretKey:       cfg.StripeSecretKey,
		StripeWebhookSecret:   cfg.StripeWebhookSecret,
		PayPalClientID:        cfg.PayPalClientID,
		PayPalClientSecret:    cfg.PayPalClientSecret,
	}, cfg.PaymentIntentTTL, validate, logger)
	sessionService := service.NewSessionService(sessionRepo, userRepo, walletService, notificationService, validate, logger)
	assistantService := service.NewAssistantService(assistant, store, userRepo, enrollmentRepo, courseRepo, queryRepo, chatRepo, searchService, validate, logger)
	adminService := service.NewAdminService(userRepo, collegeRepo, courseRepo, enrollmentRepo, materialRepo, sessionRepo, paymentRepo, queryRepo, testRepo, notificationService, redisClient, cfg.ReportCacheTTL, cfg.PendingCacheTTL, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(authService, validate, logger),
		CatalogHandler:      handler.NewCatalogHandler(catalogService, validate, logger),
		EnrollmentHandler:   handler.NewEnrollmentHandler(enrollmentService, validate, logger),
		MaterialHandler:     handler.NewMaterialHandler(materialService, validate, logger),
		QueryHandler:        handler.NewQueryHandler(queryService, validate, logger),
		TestHandler:         handler.NewTestHandler(testService, validate, logger),
		AssignmentHandler:   handler.NewAssignmentHandler(assignmentService, validate, logger),
		SessionHandler:      handler.NewSessionHandler(sessionService, validate, logger),
		PaymentHandler:      handler.NewPaymentHandler(paymentService, walletService, validate, logger),
		AssistantHandler:    handler.NewAssistantHandler(assistantService, searchService, validate, logger),
		AdminHandler:        handler.NewAdminHandler(adminService, validate, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
