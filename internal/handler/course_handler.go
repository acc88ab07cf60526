package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/middleware"
	"github.com/noah-isme/learnhub-api/internal/service"
	"github.com/noah-isme/learnhub-api/internal/utils"
)

// CourseHandler serves the public catalog and instructor course authoring.
type CourseHandler struct {
	courses service.CourseService
	uploads service.UploadService
	logger  zerolog.Logger
}

// NewCourseHandler constructs a course handler. Uploads may be nil when storage is disabled.
func NewCourseHandler(courses service.CourseService, uploads service.UploadService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		courses: courses,
		uploads: uploads,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register wires course routes. Static segments come before /:id.
func (h *CourseHandler) Register(router fiber.Router) {
	instructor := middleware.AuthOptions{Role: middleware.AuthRoleInstructor}

	router.Get("/", h.list)
	router.Get("/mine", middleware.WithAuth(h.mine, instructor))
	router.Post("/", middleware.WithAuth(h.create, instructor))
	router.Get("/:id", h.get)
	router.Patch("/:id", middleware.WithAuth(h.update, instructor))
	router.Patch("/:id/status", middleware.WithAuth(h.setStatus, instructor))
	router.Post("/:id/modules", middleware.WithAuth(h.addModule, instructor))
	router.Post("/:id/modules/:moduleId/lessons", middleware.WithAuth(h.addLesson, instructor))
	router.Post("/:id/image", middleware.WithAuth(h.uploadImage, instructor))
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	var req dto.CourseListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	courses, total, err := h.courses.List(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list courses")
	}
	return utils.OK(c, courses, "courses retrieved", utils.NewPageMeta(total, req.Limit, req.Offset))
}

func (h *CourseHandler) mine(c *fiber.Ctx) error {
	var req dto.CourseListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	courses, total, err := h.courses.Mine(requestContext(c), userIDFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list instructor courses")
	}
	return utils.OK(c, courses, "courses retrieved", utils.NewPageMeta(total, req.Limit, req.Offset))
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	course, err := h.courses.Get(requestContext(c), activityActorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load course")
	}
	return utils.OK(c, course, "course retrieved", nil)
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	var req dto.CourseCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.courses.Create(requestContext(c), activityActorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create course")
	}
	return utils.Created(c, course, "course created")
}

func (h *CourseHandler) update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}
	var req dto.CourseUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.courses.Update(requestContext(c), activityActorFromContext(c), id, req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update course")
	}
	return utils.OK(c, course, "course updated", nil)
}

func (h *CourseHandler) setStatus(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}
	var req dto.CourseStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.courses.SetStatus(requestContext(c), activityActorFromContext(c), id, req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to change course status")
	}
	return utils.OK(c, course, "course status updated", nil)
}

func (h *CourseHandler) addModule(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}
	var req dto.ModuleCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	module, err := h.courses.AddModule(requestContext(c), activityActorFromContext(c), id, req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to add module")
	}
	return utils.Created(c, module, "module created")
}

func (h *CourseHandler) addLesson(c *fiber.Ctx) error {
	courseID, ok := paramID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}
	moduleID, ok := paramID(c, "moduleId")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid module id")
	}
	var req dto.LessonCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	lesson, err := h.courses.AddLesson(requestContext(c), activityActorFromContext(c), courseID, moduleID, req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to add lesson")
	}
	return utils.Created(c, lesson, "lesson created")
}

func (h *CourseHandler) uploadImage(c *fiber.Ctx) error {
	if h.uploads == nil {
		return utils.SendError(c, fiber.StatusServiceUnavailable, service.ErrUploadUnavailable.Error())
	}
	id, ok := paramID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}
	file, err := c.FormFile("image")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "image file is required")
	}

	result, err := h.uploads.UploadCourseImage(requestContext(c), activityActorFromContext(c), id, file)
	if err != nil {
		return respondError(c, h.logger, err, "course image upload failed")
	}
	return utils.OK(c, result, "course image uploaded", nil)
}
