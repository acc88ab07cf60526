package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/service"
	"github.com/noah-isme/learnhub-api/internal/utils"
)

// CatalogHandler serves category browsing and course search.
type CatalogHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler constructs a catalog handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("component", "catalog_handler").Logger(),
	}
}

// RegisterCategories wires the /categories routes.
func (h *CatalogHandler) RegisterCategories(router fiber.Router) {
	router.Get("/", h.categories)
	router.Get("/:category/courses", h.categoryCourses)
}

// RegisterSearch wires the /search routes.
func (h *CatalogHandler) RegisterSearch(router fiber.Router) {
	router.Get("/courses", h.search)
	router.Get("/suggestions", h.suggestions)
	router.Get("/popular", h.popular)
}

func (h *CatalogHandler) categories(c *fiber.Ctx) error {
	categories, err := h.service.Categories(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list categories")
	}
	return utils.OK(c, categories, "categories retrieved", nil)
}

func (h *CatalogHandler) categoryCourses(c *fiber.Ctx) error {
	category := strings.TrimSpace(c.Params("category"))
	if category == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "category is required")
	}
	var req dto.CategoryCoursesRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	courses, total, err := h.service.CategoryCourses(requestContext(c), category, req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list category courses")
	}
	return utils.OK(c, courses, "courses retrieved", utils.NewPageMeta(total, req.Limit, req.Offset))
}

func (h *CatalogHandler) search(c *fiber.Ctx) error {
	var req dto.CourseSearchRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	courses, total, err := h.service.Search(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "course search failed")
	}
	return utils.OK(c, courses, "search results", utils.NewPageMeta(total, req.Limit, req.Offset))
}

func (h *CatalogHandler) suggestions(c *fiber.Ctx) error {
	var req dto.SuggestionsRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	suggestions, err := h.service.Suggestions(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load suggestions")
	}
	return utils.OK(c, suggestions, "suggestions retrieved", nil)
}

func (h *CatalogHandler) popular(c *fiber.Ctx) error {
	popular, err := h.service.Popular(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load popular searches")
	}
	return utils.OK(c, popular, "popular searches retrieved", nil)
}
