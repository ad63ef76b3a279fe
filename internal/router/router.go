package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/studyfriend-api/internal/config"
	"github.com/noah-isme/studyfriend-api/internal/handler"
	"github.com/noah-isme/studyfriend-api/internal/middleware"
	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	CatalogHandler      *handler.CatalogHandler
	EnrollmentHandler   *handler.EnrollmentHandler
	MaterialHandler     *handler.MaterialHandler
	QueryHandler        *handler.QueryHandler
	TestHandler         *handler.TestHandler
	AssignmentHandler   *handler.AssignmentHandler
	SessionHandler      *handler.SessionHandler
	PaymentHandler      *handler.PaymentHandler
	AssistantHandler    *handler.AssistantHandler
	AdminHandler        *handler.AdminHandler
	NotificationHandler *handler.NotificationHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})

	jwtProtected := middleware.JWTProtected(cfg.JWTSecret)
	studentOnly := middleware.RequireRole(models.RoleStudent)
	facultyOnly := middleware.RequireRole(models.RoleFaculty)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	// Authentication, rate limited tightly since OTP issuance sends mail.
	auth := api.Group("/auth", middleware.RateLimit("auth", middleware.AuthRateLimit, time.Minute))
	deps.AuthHandler.Register(auth)
	authProtected := api.Group("/auth", jwtProtected)
	deps.AuthHandler.RegisterProtected(authProtected)

	// Public catalog browsing.
	public := api.Group("", middleware.RateLimit("api", middleware.APIRateLimit, time.Minute))
	deps.CatalogHandler.RegisterPublic(public)

	// Student surface.
	students := api.Group("/students", jwtProtected, studentOnly, middleware.RateLimit("students", middleware.APIRateLimit, time.Minute))
	deps.AuthHandler.RegisterProfile(students)
	deps.EnrollmentHandler.RegisterStudent(students)
	deps.MaterialHandler.Register(students)
	deps.QueryHandler.RegisterStudent(students)
	deps.TestHandler.RegisterStudent(students)
	deps.AssignmentHandler.RegisterStudent(students)
	deps.SessionHandler.RegisterStudent(students)

	// Faculty surface.
	faculties := api.Group("/faculties", jwtProtected, facultyOnly, middleware.RateLimit("faculties", middleware.APIRateLimit, time.Minute))
	deps.AuthHandler.RegisterProfile(faculties)
	deps.EnrollmentHandler.RegisterFaculty(faculties)
	deps.MaterialHandler.Register(faculties)
	deps.QueryHandler.RegisterFaculty(faculties)
	deps.TestHandler.RegisterFaculty(faculties)
	deps.AssignmentHandler.RegisterFaculty(faculties)
	deps.SessionHandler.RegisterFaculty(faculties)

	// AI assistant, budgeted separately from the general API limit.
	ai := api.Group("/ai", jwtProtected, middleware.RateLimit("ai", middleware.AIRateLimit, time.Minute))
	deps.AssistantHandler.Register(ai)

	// Payments and wallet.
	payments := api.Group("/payment", jwtProtected, middleware.RateLimit("payments", middleware.APIRateLimit, time.Minute))
	deps.PaymentHandler.Register(payments)

	// Gateway callbacks carry their own signature check instead of a token.
	webhooks := api.Group("/payment", middleware.RateLimit("webhooks", middleware.WebhookRateLimit, time.Minute))
	deps.PaymentHandler.RegisterWebhooks(webhooks)

	// Notifications for any authenticated user.
	notifications := api.Group("/notifications", jwtProtected, middleware.RateLimit("notifications", middleware.APIRateLimit, time.Minute))
	deps.NotificationHandler.Register(notifications)

	// Administration.
	admin := api.Group("/admin", jwtProtected, adminOnly, middleware.RateLimit("admin", middleware.APIRateLimit, time.Minute))
	deps.AdminHandler.Register(admin)
	deps.AuthHandler.RegisterAdmin(admin)
	deps.CatalogHandler.RegisterAdmin(admin)
	deps.PaymentHandler.RegisterAdmin(admin)
	deps.AssistantHandler.RegisterAdmin(admin)
}
