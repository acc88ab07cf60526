package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/repository"
)

// ReviewService manages course reviews and the rating aggregates derived from them.
type ReviewService interface {
	Create(ctx context.Context, userID uint, req dto.ReviewCreateRequest) (dto.ReviewResponse, error)
	Update(ctx context.Context, userID, reviewID uint, req dto.ReviewUpdateRequest) (dto.ReviewResponse, error)
	Delete(ctx context.Context, userID, reviewID uint) error
	ListByCourse(ctx context.Context, courseID uint, req dto.ReviewListRequest) (dto.CourseReviewsResponse, int64, error)
	MarkHelpful(ctx context.Context, userID, reviewID uint) (dto.HelpfulResponse, error)
}

type reviewService struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	reviews     repository.ReviewRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewReviewService constructs the review service.
func NewReviewService(courses repository.CourseRepository, enrollments repository.EnrollmentRepository, reviews repository.ReviewRepository, validate *validator.Validate, logger zerolog.Logger) ReviewService {
	return &reviewService{
		courses:     courses,
		enrollments: enrollments,
		reviews:     reviews,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "review_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/learnhub-api/internal/service/review"),
	}
}

// Create stores the caller's single review of a course. Length limits apply to the sanitized comment.
func (s *reviewService) Create(ctx context.Context, userID uint, req dto.ReviewCreateRequest) (dto.ReviewResponse, error) {
	req.Comment = s.clean(req.Comment)
	if err := s.validator.Struct(req); err != nil {
		return dto.ReviewResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "review.create", trace.WithAttributes(attribute.Int("course.id", int(req.CourseID))))
	defer span.End()

	if _, err := s.courses.GetByID(ctx, req.CourseID); err != nil {
		return dto.ReviewResponse{}, mapCourseError(err)
	}
	if err := requireActiveEnrollment(ctx, s.enrollments, userID, req.CourseID); err != nil {
		return dto.ReviewResponse{}, err
	}

	review := models.Review{UserID: userID, CourseID: req.CourseID, Rating: req.Rating, Comment: req.Comment}
	inserted, err := s.reviews.Create(ctx, &review)
	if err != nil {
		span.RecordError(err)
		return dto.ReviewResponse{}, err
	}
	if !inserted {
		return dto.ReviewResponse{}, ErrReviewExists
	}

	stored, err := s.reviews.GetByID(ctx, review.ID)
	if err != nil {
		return dto.ReviewResponse{}, err
	}
	return dto.NewReviewResponse(stored), nil
}

func (s *reviewService) Update(ctx context.Context, userID, reviewID uint, req dto.ReviewUpdateRequest) (dto.ReviewResponse, error) {
	req.Comment = s.clean(req.Comment)
	if err := s.validator.Struct(req); err != nil {
		return dto.ReviewResponse{}, err
	}

	review, err := s.reviews.Update(ctx, reviewID, userID, req.Rating, req.Comment)
	if err != nil {
		return dto.ReviewResponse{}, mapReviewError(err)
	}
	return dto.NewReviewResponse(review), nil
}

func (s *reviewService) Delete(ctx context.Context, userID, reviewID uint) error {
	courseID, err := s.reviews.Delete(ctx, reviewID, userID)
	if err != nil {
		return mapReviewError(err)
	}
	s.logger.Info().Uint("review_id", reviewID).Uint("course_id", courseID).Msg("review deleted")
	return nil
}

func (s *reviewService) ListByCourse(ctx context.Context, courseID uint, req dto.ReviewListRequest) (dto.CourseReviewsResponse, int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseReviewsResponse{}, 0, err
	}
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return dto.CourseReviewsResponse{}, 0, mapCourseError(err)
	}

	reviews, total, err := s.reviews.ListByCourse(ctx, courseID, req.SortBy, req.Limit, req.Offset)
	if err != nil {
		return dto.CourseReviewsResponse{}, 0, err
	}
	stats, err := s.reviews.Stats(ctx, courseID)
	if err != nil {
		return dto.CourseReviewsResponse{}, 0, err
	}

	resp := dto.CourseReviewsResponse{
		Reviews: make([]dto.ReviewResponse, 0, len(reviews)),
		Stats:   dto.NewReviewStatsResponse(roundTo(stats.AverageRating, 2), stats.TotalReviews, stats.Distribution),
	}
	for _, review := range reviews {
		resp.Reviews = append(resp.Reviews, dto.NewReviewResponse(review))
	}
	return resp, total, nil
}

func (s *reviewService) MarkHelpful(ctx context.Context, userID, reviewID uint) (dto.HelpfulResponse, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return dto.HelpfulResponse{}, mapReviewError(err)
	}
	if review.UserID == userID {
		return dto.HelpfulResponse{}, ErrOwnReviewHelpful
	}

	inserted, count, err := s.reviews.MarkHelpful(ctx, reviewID, userID)
	if err != nil {
		return dto.HelpfulResponse{}, err
	}
	if !inserted {
		return dto.HelpfulResponse{}, ErrAlreadyHelpful
	}
	return dto.HelpfulResponse{ReviewID: reviewID, HelpfulCount: count}, nil
}

func (s *reviewService) clean(comment string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(comment))
}

func mapReviewError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrReviewNotFound
	}
	return err
}
