package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/learnhub-api/internal/config"
	"github.com/noah-isme/learnhub-api/internal/handler"
	"github.com/noah-isme/learnhub-api/internal/middleware"
	"github.com/noah-isme/learnhub-api/internal/observability"
)

const (
	authRateLimitMax      = 5
	authRateLimitWindow   = 15 * time.Minute
	searchRateLimitMax    = 30
	searchRateLimitWindow = time.Minute
)

// Dependencies groups router dependencies for registration. Nil handlers are skipped.
type Dependencies struct {
	Sessions     middleware.SessionResolver
	HealthProbes map[string]handler.HealthProbe

	AuthHandler          *handler.AuthHandler
	UserHandler          *handler.UserHandler
	CourseHandler        *handler.CourseHandler
	CatalogHandler       *handler.CatalogHandler
	LessonHandler        *handler.LessonHandler
	ProgressHandler      *handler.ProgressHandler
	EnrollmentHandler    *handler.EnrollmentHandler
	CertificateHandler   *handler.CertificateHandler
	ReviewHandler        *handler.ReviewHandler
	PaymentHandler       *handler.PaymentHandler
	NotificationHandler  *handler.NotificationHandler
	DashboardHandler     *handler.DashboardHandler
	AnalyticsHandler     *handler.AnalyticsHandler
	AdminActivityHandler *handler.AdminActivityHandler
	SeedHandler          *handler.SeedHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	// identity is bound when a valid token is present; each handler decides what it requires
	api.Use(middleware.OptionalAuthenticate(cfg.JWTSecret, deps.Sessions))
	if cfg.RateLimitMax > 0 {
		api.Use(middleware.RateLimit("api", cfg.RateLimitMax, cfg.RateLimitWindow))
	}

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"), middleware.RateLimit("auth", authRateLimitMax, authRateLimitWindow))
	}
	if deps.UserHandler != nil {
		deps.UserHandler.Register(api.Group("/users"))
	}
	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(api.Group("/courses"))
	}
	if deps.CatalogHandler != nil {
		deps.CatalogHandler.RegisterCategories(api.Group("/categories"))
		deps.CatalogHandler.RegisterSearch(api.Group("/search", middleware.RateLimit("search", searchRateLimitMax, searchRateLimitWindow)))
	}
	if deps.LessonHandler != nil {
		deps.LessonHandler.Register(api.Group("/lessons"))
	}
	if deps.ProgressHandler != nil {
		deps.ProgressHandler.Register(api.Group("/progress"))
	}
	if deps.EnrollmentHandler != nil {
		deps.EnrollmentHandler.Register(api.Group("/enrollments"))
	}
	if deps.CertificateHandler != nil {
		deps.CertificateHandler.Register(api.Group("/certificates"))
	}
	if deps.ReviewHandler != nil {
		deps.ReviewHandler.Register(api.Group("/reviews"))
	}
	if deps.PaymentHandler != nil {
		deps.PaymentHandler.Register(api.Group("/payments"))
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications"))
	}

	// personal views reject bad tokens outright instead of treating the caller as anonymous
	requireSession := middleware.Authenticate(cfg.JWTSecret, deps.Sessions)
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(api.Group("/dashboard", requireSession))
	}
	if deps.AnalyticsHandler != nil {
		deps.AnalyticsHandler.Register(api.Group("/analytics", requireSession))
	}

	admin := api.Group("/admin")
	if deps.AdminActivityHandler != nil {
		deps.AdminActivityHandler.Register(admin.Group("/activities", requireSession, middleware.RequireRole(middleware.AuthRoleAdmin)))
	}
	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(admin.Group("/seed"))
	}
}
