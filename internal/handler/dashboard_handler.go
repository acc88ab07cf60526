package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/middleware"
	"github.com/noah-isme/learnhub-api/internal/service"
	"github.com/noah-isme/learnhub-api/internal/utils"
)

// DashboardHandler serves the learner dashboard.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register wires dashboard routes.
func (h *DashboardHandler) Register(router fiber.Router) {
	authed := middleware.AuthOptions{RequireUser: true}

	router.Get("/", middleware.WithAuth(h.overview, authed))
	router.Get("/streak", middleware.WithAuth(h.streak, authed))
}

func (h *DashboardHandler) overview(c *fiber.Ctx) error {
	dashboard, err := h.service.Overview(requestContext(c), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load dashboard")
	}
	return utils.OK(c, dashboard, "dashboard retrieved", nil)
}

func (h *DashboardHandler) streak(c *fiber.Ctx) error {
	streak, err := h.service.Streak(requestContext(c), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load learning streak")
	}
	return utils.OK(c, streak, "streak retrieved", nil)
}
