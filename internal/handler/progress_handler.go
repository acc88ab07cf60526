package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/middleware"
	"github.com/noah-isme/learnhub-api/internal/service"
	"github.com/noah-isme/learnhub-api/internal/utils"
)

// ProgressHandler serves the course-addressed progress and note endpoints.
type ProgressHandler struct {
	service service.ProgressService
	logger  zerolog.Logger
}

// NewProgressHandler constructs a progress handler.
func NewProgressHandler(service service.ProgressService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		logger:  logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register wires progress routes.
func (h *ProgressHandler) Register(router fiber.Router) {
	authed := middleware.AuthOptions{RequireUser: true}

	router.Post("/lesson", middleware.WithAuth(h.updateLesson, authed))
	router.Get("/course/:courseId", middleware.WithAuth(h.courseProgress, authed))
	router.Post("/notes", middleware.WithAuth(h.addNote, authed))
	router.Get("/notes/:courseId/:lessonId", middleware.WithAuth(h.notes, authed))
}

func (h *ProgressHandler) updateLesson(c *fiber.Ctx) error {
	var req dto.CourseLessonProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.UpdateCourseLesson(requestContext(c), userIDFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update lesson progress")
	}
	return utils.OK(c, result, "progress updated", nil)
}

func (h *ProgressHandler) courseProgress(c *fiber.Ctx) error {
	courseID, ok := paramID(c, "courseId")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	progress, err := h.service.CourseProgress(requestContext(c), userIDFromContext(c), courseID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load course progress")
	}
	return utils.OK(c, progress, "course progress retrieved", nil)
}

func (h *ProgressHandler) addNote(c *fiber.Ctx) error {
	var req dto.CourseNoteCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	note, err := h.service.AddCourseNote(requestContext(c), userIDFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to add note")
	}
	return utils.Created(c, note, "note created")
}

func (h *ProgressHandler) notes(c *fiber.Ctx) error {
	courseID, ok := paramID(c, "courseId")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}
	lessonID, ok := paramID(c, "lessonId")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid lesson id")
	}

	notes, err := h.service.CourseLessonNotes(requestContext(c), userIDFromContext(c), courseID, lessonID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list notes")
	}
	return utils.OK(c, notes, "notes retrieved", nil)
}
