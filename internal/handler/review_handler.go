package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/middleware"
	"github.com/noah-isme/learnhub-api/internal/service"
	"github.com/noah-isme/learnhub-api/internal/utils"
)

// ReviewHandler serves course reviews and helpful votes.
type ReviewHandler struct {
	service service.ReviewService
	logger  zerolog.Logger
}

// NewReviewHandler constructs a review handler.
func NewReviewHandler(service service.ReviewService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  logger.With().Str("component", "review_handler").Logger(),
	}
}

// Register wires review routes.
func (h *ReviewHandler) Register(router fiber.Router) {
	authed := middleware.AuthOptions{RequireUser: true}

	router.Get("/course/:courseId", h.listByCourse)
	router.Post("/", middleware.WithAuth(h.create, authed))
	router.Put("/:id", middleware.WithAuth(h.update, authed))
	router.Delete("/:id", middleware.WithAuth(h.delete, authed))
	router.Post("/:id/helpful", middleware.WithAuth(h.helpful, authed))
}

func (h *ReviewHandler) listByCourse(c *fiber.Ctx) error {
	courseID, ok := paramID(c, "courseId")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}
	var req dto.ReviewListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	reviews, total, err := h.service.ListByCourse(requestContext(c), courseID, req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list reviews")
	}
	return utils.OK(c, reviews, "reviews retrieved", utils.NewPageMeta(total, req.Limit, req.Offset))
}

func (h *ReviewHandler) create(c *fiber.Ctx) error {
	var req dto.ReviewCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	review, err := h.service.Create(requestContext(c), userIDFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create review")
	}
	return utils.Created(c, review, "review created")
}

func (h *ReviewHandler) update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid review id")
	}
	var req dto.ReviewUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	review, err := h.service.Update(requestContext(c), userIDFromContext(c), id, req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update review")
	}
	return utils.OK(c, review, "review updated", nil)
}

func (h *ReviewHandler) delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid review id")
	}

	if err := h.service.Delete(requestContext(c), userIDFromContext(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete review")
	}
	return utils.OK(c, nil, "review deleted", nil)
}

func (h *ReviewHandler) helpful(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid review id")
	}

	result, err := h.service.MarkHelpful(requestContext(c), userIDFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to mark review helpful")
	}
	return utils.OK(c, result, "review marked as helpful", nil)
}
