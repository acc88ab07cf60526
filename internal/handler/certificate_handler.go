package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/middleware"
	"github.com/noah-isme/learnhub-api/internal/service"
	"github.com/noah-isme/learnhub-api/internal/utils"
)

// CertificateHandler issues and verifies course certificates.
type CertificateHandler struct {
	service service.CertificateService
	logger  zerolog.Logger
}

// NewCertificateHandler constructs a certificate handler.
func NewCertificateHandler(service service.CertificateService, logger zerolog.Logger) *CertificateHandler {
	return &CertificateHandler{
		service: service,
		logger:  logger.With().Str("component", "certificate_handler").Logger(),
	}
}

// Register wires certificate routes. Verification is public.
func (h *CertificateHandler) Register(router fiber.Router) {
	authed := middleware.AuthOptions{RequireUser: true}

	router.Get("/verify/:certificateNumber", h.verify)
	router.Post("/generate", middleware.WithAuth(h.generate, authed))
	router.Get("/", middleware.WithAuth(h.list, authed))
	router.Get("/:id", middleware.WithAuth(h.get, authed))
}

func (h *CertificateHandler) generate(c *fiber.Ctx) error {
	var req dto.GenerateCertificateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	certificate, err := h.service.Generate(requestContext(c), userIDFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "certificate generation failed")
	}
	return utils.Created(c, certificate, "certificate generated")
}

func (h *CertificateHandler) list(c *fiber.Ctx) error {
	certificates, err := h.service.List(requestContext(c), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list certificates")
	}
	return utils.OK(c, certificates, "certificates retrieved", nil)
}

func (h *CertificateHandler) get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid certificate id")
	}

	certificate, err := h.service.Get(requestContext(c), userIDFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load certificate")
	}
	return utils.OK(c, certificate, "certificate retrieved", nil)
}

func (h *CertificateHandler) verify(c *fiber.Ctx) error {
	number := strings.TrimSpace(c.Params("certificateNumber"))
	if number == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "certificate number is required")
	}

	result, err := h.service.Verify(requestContext(c), number)
	if err != nil {
		return respondError(c, h.logger, err, "certificate verification failed")
	}
	return utils.OK(c, result, "certificate verified", nil)
}
