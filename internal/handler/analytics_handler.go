package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/middleware"
	"github.com/noah-isme/learnhub-api/internal/service"
	"github.com/noah-isme/learnhub-api/internal/utils"
)

// AnalyticsHandler exposes platform, instructor, student and course analytics.
type AnalyticsHandler struct {
	service service.AnalyticsService
	logger  zerolog.Logger
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(service service.AnalyticsService, logger zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		logger:  logger.With().Str("component", "analytics_handler").Logger(),
	}
}

// Register attaches analytics routes to the router group.
func (h *AnalyticsHandler) Register(router fiber.Router) {
	router.Get("/platform", middleware.WithAuth(h.platform, middleware.AuthOptions{Role: middleware.AuthRoleAdmin}))
	router.Get("/instructor", middleware.WithAuth(h.instructor, middleware.AuthOptions{Role: middleware.AuthRoleInstructor}))
	router.Get("/student", middleware.WithAuth(h.student, middleware.AuthOptions{RequireUser: true}))
	router.Get("/course/:courseId", middleware.WithAuth(h.course, middleware.AuthOptions{Role: middleware.AuthRoleInstructor}))
}

func (h *AnalyticsHandler) platform(c *fiber.Ctx) error {
	var req dto.AnalyticsRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.service.Platform(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load platform analytics")
	}
	return utils.OK(c, result, "platform analytics", nil)
}

func (h *AnalyticsHandler) instructor(c *fiber.Ctx) error {
	var req dto.AnalyticsRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.service.Instructor(requestContext(c), activityActorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load instructor analytics")
	}
	return utils.OK(c, result, "instructor analytics", nil)
}

func (h *AnalyticsHandler) student(c *fiber.Ctx) error {
	var req dto.AnalyticsRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.service.Student(requestContext(c), userIDFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load student analytics")
	}
	return utils.OK(c, result, "student analytics", nil)
}

func (h *AnalyticsHandler) course(c *fiber.Ctx) error {
	courseID, ok := paramID(c, "courseId")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	result, err := h.service.Course(requestContext(c), activityActorFromContext(c), courseID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load course analytics")
	}
	return utils.OK(c, result, "course analytics", nil)
}
