package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/middleware"
	"github.com/noah-isme/learnhub-api/internal/service"
	"github.com/noah-isme/learnhub-api/internal/utils"
)

// LessonHandler serves lesson content, navigation, progress and notes addressed by lesson id.
type LessonHandler struct {
	lessons  service.LessonService
	progress service.ProgressService
	logger   zerolog.Logger
}

// NewLessonHandler constructs a lesson handler.
func NewLessonHandler(lessons service.LessonService, progress service.ProgressService, logger zerolog.Logger) *LessonHandler {
	return &LessonHandler{
		lessons:  lessons,
		progress: progress,
		logger:   logger.With().Str("component", "lesson_handler").Logger(),
	}
}

// Register wires lesson routes.
func (h *LessonHandler) Register(router fiber.Router) {
	authed := middleware.AuthOptions{RequireUser: true}

	router.Delete("/notes/:noteId", middleware.WithAuth(h.deleteNote, authed))
	router.Get("/:id", middleware.WithAuth(h.get, authed))
	router.Get("/:id/navigation", middleware.WithAuth(h.navigation, authed))
	router.Post("/:id/progress", middleware.WithAuth(h.updateProgress, authed))
	router.Post("/:id/notes", middleware.WithAuth(h.addNote, authed))
	router.Get("/:id/notes", middleware.WithAuth(h.notes, authed))
}

func (h *LessonHandler) get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid lesson id")
	}

	lesson, err := h.lessons.Get(requestContext(c), activityActorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load lesson")
	}
	return utils.OK(c, lesson, "lesson retrieved", nil)
}

func (h *LessonHandler) navigation(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid lesson id")
	}

	nav, err := h.lessons.Navigation(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load lesson navigation")
	}
	return utils.OK(c, nav, "lesson navigation retrieved", nil)
}

func (h *LessonHandler) updateProgress(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid lesson id")
	}
	var req dto.LessonProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.progress.UpdateLesson(requestContext(c), userIDFromContext(c), id, req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update lesson progress")
	}
	return utils.OK(c, result, "progress updated", nil)
}

func (h *LessonHandler) addNote(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid lesson id")
	}
	var req dto.NoteCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	note, err := h.progress.AddNote(requestContext(c), userIDFromContext(c), id, req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to add note")
	}
	return utils.Created(c, note, "note created")
}

func (h *LessonHandler) notes(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid lesson id")
	}

	notes, err := h.progress.Notes(requestContext(c), userIDFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list notes")
	}
	return utils.OK(c, notes, "notes retrieved", nil)
}

func (h *LessonHandler) deleteNote(c *fiber.Ctx) error {
	id, ok := paramID(c, "noteId")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid note id")
	}

	if err := h.progress.DeleteNote(requestContext(c), userIDFromContext(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete note")
	}
	return utils.OK(c, nil, "note deleted", nil)
}
