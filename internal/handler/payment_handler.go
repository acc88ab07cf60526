package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/middleware"
	"github.com/noah-isme/learnhub-api/internal/service"
	"github.com/noah-isme/learnhub-api/internal/utils"
)

// PaymentHandler runs checkout against the configured payment provider.
type PaymentHandler struct {
	service service.PaymentService
	logger  zerolog.Logger
}

// NewPaymentHandler constructs a payment handler.
func NewPaymentHandler(service service.PaymentService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger.With().Str("component", "payment_handler").Logger(),
	}
}

// Register wires payment routes.
func (h *PaymentHandler) Register(router fiber.Router) {
	authed := middleware.AuthOptions{RequireUser: true}

	router.Post("/create-intent", middleware.WithAuth(h.createIntent, authed))
	router.Post("/confirm", middleware.WithAuth(h.confirm, authed))
	router.Get("/history", middleware.WithAuth(h.history, authed))
}

func (h *PaymentHandler) createIntent(c *fiber.Ctx) error {
	var req dto.CreateIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	intent, err := h.service.CreateIntent(requestContext(c), userIDFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create payment intent")
	}
	return utils.Created(c, intent, "payment intent created")
}

func (h *PaymentHandler) confirm(c *fiber.Ctx) error {
	var req dto.ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Confirm(requestContext(c), userIDFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "payment confirmation failed")
	}
	return utils.OK(c, result, "payment confirmed", nil)
}

func (h *PaymentHandler) history(c *fiber.Ctx) error {
	payments, err := h.service.History(requestContext(c), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load payment history")
	}
	return utils.OK(c, payments, "payment history retrieved", nil)
}
