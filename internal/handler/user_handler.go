package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/middleware"
	"github.com/noah-isme/learnhub-api/internal/service"
	"github.com/noah-isme/learnhub-api/internal/utils"
)

// UserHandler serves profile endpoints and admin account management.
type UserHandler struct {
	service service.UserService
	logger  zerolog.Logger
}

// NewUserHandler constructs a user handler.
func NewUserHandler(service service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register wires user routes.
func (h *UserHandler) Register(router fiber.Router) {
	authed := middleware.AuthOptions{RequireUser: true}
	admin := middleware.AuthOptions{Role: middleware.AuthRoleAdmin}

	router.Get("/profile", middleware.WithAuth(h.profile, authed))
	router.Put("/profile", middleware.WithAuth(h.updateProfile, authed))
	router.Get("/", middleware.WithAuth(h.list, admin))
	router.Patch("/:id/status", middleware.WithAuth(h.setStatus, admin))
	router.Delete("/:id", middleware.WithAuth(h.delete, admin))
}

func (h *UserHandler) profile(c *fiber.Ctx) error {
	user, err := h.service.Profile(requestContext(c), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load profile")
	}
	return utils.OK(c, user, "profile retrieved", nil)
}

func (h *UserHandler) updateProfile(c *fiber.Ctx) error {
	var req dto.ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.service.UpdateProfile(requestContext(c), userIDFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update profile")
	}
	return utils.OK(c, user, "profile updated", nil)
}

func (h *UserHandler) list(c *fiber.Ctx) error {
	var req dto.AdminUserListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	users, total, err := h.service.List(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list users")
	}
	return utils.OK(c, users, "users retrieved", utils.NewPageMeta(total, req.Limit, req.Offset))
}

func (h *UserHandler) setStatus(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}
	var req dto.UserStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.IsActive == nil {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", []utils.FieldError{{Field: "is_active", Message: "is_active is required"}})
	}

	user, err := h.service.SetStatus(requestContext(c), activityActorFromContext(c), id, *req.IsActive)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update user status")
	}
	return utils.OK(c, user, "user status updated", nil)
}

func (h *UserHandler) delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	if err := h.service.Delete(requestContext(c), activityActorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete user")
	}
	return utils.OK(c, nil, "user deleted", nil)
}
