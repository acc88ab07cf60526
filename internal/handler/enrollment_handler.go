package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/middleware"
	"github.com/noah-isme/learnhub-api/internal/service"
	"github.com/noah-isme/learnhub-api/internal/utils"
)

// EnrollmentHandler admits learners into courses.
type EnrollmentHandler struct {
	service service.EnrollmentService
	logger  zerolog.Logger
}

// NewEnrollmentHandler constructs an enrollment handler.
func NewEnrollmentHandler(service service.EnrollmentService, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service: service,
		logger:  logger.With().Str("component", "enrollment_handler").Logger(),
	}
}

// Register wires enrollment routes.
func (h *EnrollmentHandler) Register(router fiber.Router) {
	authed := middleware.AuthOptions{RequireUser: true}

	router.Post("/", middleware.WithAuth(h.enroll, authed))
	router.Get("/my-courses", middleware.WithAuth(h.myCourses, authed))
	router.Get("/status/:courseId", middleware.WithAuth(h.status, authed))
}

func (h *EnrollmentHandler) enroll(c *fiber.Ctx) error {
	var req dto.EnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.CourseID == 0 {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", []utils.FieldError{{Field: "course_id", Message: "course_id is required"}})
	}

	result, err := h.service.Enroll(requestContext(c), userIDFromContext(c), req.CourseID)
	if err != nil {
		return respondError(c, h.logger, err, "enrollment failed")
	}

	message := "enrolled successfully"
	if result.RequiresPayment {
		message = "enrollment pending payment"
	}
	return utils.Respond(c, fiber.StatusCreated, result, message, nil)
}

func (h *EnrollmentHandler) myCourses(c *fiber.Ctx) error {
	courses, err := h.service.ListMine(requestContext(c), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list enrolled courses")
	}
	return utils.OK(c, courses, "enrolled courses retrieved", nil)
}

func (h *EnrollmentHandler) status(c *fiber.Ctx) error {
	courseID, ok := paramID(c, "courseId")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	status, err := h.service.Status(requestContext(c), userIDFromContext(c), courseID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load enrollment status")
	}
	return utils.OK(c, status, "enrollment status retrieved", nil)
}
