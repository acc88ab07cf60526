package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/repository"
)

// CatalogService answers browse and search queries over the published catalog.
type CatalogService interface {
	Categories(ctx context.Context) ([]dto.CategoryResponse, error)
	CategoryCourses(ctx context.Context, category string, req dto.CategoryCoursesRequest) ([]dto.CourseSummary, int64, error)
	Search(ctx context.Context, req dto.CourseSearchRequest) ([]dto.CourseSummary, int64, error)
	Suggestions(ctx context.Context, req dto.SuggestionsRequest) (dto.SuggestionsResponse, error)
	Popular(ctx context.Context) (dto.PopularResponse, error)
}

type catalogService struct {
	courses   repository.CourseRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCatalogService constructs the catalog service.
func NewCatalogService(courses repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) CatalogService {
	return &catalogService{
		courses:   courses,
		validator: validate,
		logger:    logger.With().Str("component", "catalog_service").Logger(),
	}
}

func (s *catalogService) Categories(ctx context.Context) ([]dto.CategoryResponse, error) {
	stats, err := s.courses.Categories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoryResponse, 0, len(stats))
	for _, stat := range stats {
		out = append(out, dto.CategoryResponse{
			Name:          stat.Category,
			CourseCount:   stat.CourseCount,
			AverageRating: roundTo(stat.AverageRating, 2),
			MinPrice:      stat.MinPrice,
			MaxPrice:      stat.MaxPrice,
		})
	}
	return out, nil
}

func (s *catalogService) CategoryCourses(ctx context.Context, category string, req dto.CategoryCoursesRequest) ([]dto.CourseSummary, int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, 0, err
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, 0, ErrInvalidInput
	}
	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = repository.SortPopular
	}
	courses, total, err := s.courses.List(ctx, repository.CourseFilter{
		Status:   models.CourseStatusPublished,
		Category: category,
		SortBy:   sortBy,
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
	if err != nil {
		return nil, 0, err
	}
	return dto.NewCourseSummaries(courses), total, nil
}

func (s *catalogService) Search(ctx context.Context, req dto.CourseSearchRequest) ([]dto.CourseSummary, int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, 0, err
	}
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		return nil, 0, ErrInvalidInput
	}
	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = repository.SortRelevance
	}

	courses, total, err := s.courses.List(ctx, repository.CourseFilter{
		Status:    models.CourseStatusPublished,
		Category:  strings.TrimSpace(req.Category),
		Level:     req.Level,
		Search:    req.Query,
		MinPrice:  req.MinPrice,
		MaxPrice:  req.MaxPrice,
		MinRating: req.Rating,
		SortBy:    sortBy,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	if err != nil {
		return nil, 0, err
	}
	s.logger.Debug().Str("query", req.Query).Int64("total", total).Msg("catalog search")
	return dto.NewCourseSummaries(courses), total, nil
}

func (s *catalogService) Suggestions(ctx context.Context, req dto.SuggestionsRequest) (dto.SuggestionsResponse, error) {
	req.Query = strings.TrimSpace(req.Query)
	if err := s.validator.Struct(req); err != nil {
		return dto.SuggestionsResponse{}, err
	}
	found, err := s.courses.Suggestions(ctx, req.Query, 5)
	if err != nil {
		return dto.SuggestionsResponse{}, err
	}

	instructors := make([]dto.InstructorSuggestion, 0, len(found.Instructors))
	for _, item := range found.Instructors {
		instructors = append(instructors, dto.InstructorSuggestion{
			ID:   item.ID,
			Name: strings.TrimSpace(item.FirstName + " " + item.LastName),
		})
	}
	return dto.SuggestionsResponse{
		Courses:     found.Courses,
		Instructors: instructors,
		Categories:  found.Categories,
	}, nil
}

func (s *catalogService) Popular(ctx context.Context) (dto.PopularResponse, error) {
	categories, err := s.courses.PopularCategories(ctx, 10)
	if err != nil {
		return dto.PopularResponse{}, err
	}
	courses, _, err := s.courses.List(ctx, repository.CourseFilter{
		Status: models.CourseStatusPublished,
		SortBy: repository.SortPopular,
		Limit:  10,
	})
	if err != nil {
		return dto.PopularResponse{}, err
	}

	resp := dto.PopularResponse{
		Categories: make([]dto.PopularCategoryResponse, 0, len(categories)),
		Courses:    dto.NewCourseSummaries(courses),
	}
	for _, category := range categories {
		resp.Categories = append(resp.Categories, dto.PopularCategoryResponse{Name: category.Category, Enrollments: category.Enrollments})
	}
	return resp, nil
}
