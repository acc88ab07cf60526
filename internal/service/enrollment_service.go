package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/observability"
	"github.com/noah-isme/learnhub-api/internal/repository"
)

// EnrollmentService admits learners to courses.
type EnrollmentService interface {
	Enroll(ctx context.Context, userID, courseID uint) (dto.EnrollResult, error)
	ListMine(ctx context.Context, userID uint) ([]dto.MyCourseResponse, error)
	Status(ctx context.Context, userID, courseID uint) (dto.EnrollmentStatusResponse, error)
}

type enrollmentService struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	progress    repository.ProgressRepository
	notifier    Notifier
	events      EventPublisher
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(courses repository.CourseRepository, enrollments repository.EnrollmentRepository, progress repository.ProgressRepository, notifier Notifier, events EventPublisher, logger zerolog.Logger) EnrollmentService {
	return &enrollmentService{
		courses:     courses,
		enrollments: enrollments,
		progress:    progress,
		notifier:    notifier,
		events:      events,
		logger:      logger.With().Str("component", "enrollment_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/learnhub-api/internal/service/enrollment"),
		now:         time.Now,
	}
}

// Enroll inserts the (user, course) row. Free courses start active; paid courses start
// pending until a payment covering them is confirmed. An existing row in any status
// rejects the call.
func (s *enrollmentService) Enroll(ctx context.Context, userID, courseID uint) (dto.EnrollResult, error) {
	ctx, span := s.tracer.Start(ctx, "enrollment.enroll", trace.WithAttributes(
		attribute.Int("user.id", int(userID)),
		attribute.Int("course.id", int(courseID)),
	))
	defer span.End()

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollResult{}, ErrCourseNotFound
		}
		span.RecordError(err)
		return dto.EnrollResult{}, err
	}
	if !course.IsPublished() {
		return dto.EnrollResult{}, ErrCourseNotFound
	}

	enrollment := models.Enrollment{
		UserID:         userID,
		CourseID:       courseID,
		Status:         models.EnrollmentStatusActive,
		EnrollmentType: models.EnrollmentTypeFree,
		EnrolledAt:     s.now().UTC(),
	}
	if !course.IsFree() {
		enrollment.Status = models.EnrollmentStatusPending
		enrollment.EnrollmentType = models.EnrollmentTypePaid
	}

	inserted, err := s.enrollments.CreateIfAbsent(ctx, &enrollment)
	if err != nil {
		span.RecordError(err)
		return dto.EnrollResult{}, err
	}
	if !inserted {
		return dto.EnrollResult{}, ErrAlreadyEnrolled
	}

	observability.EnrollmentsTotal().WithLabelValues(enrollment.EnrollmentType, enrollment.Status).Inc()
	s.logger.Info().
		Uint("user_id", userID).
		Uint("course_id", courseID).
		Str("status", enrollment.Status).
		Msg("enrollment created")

	if enrollment.IsActive() {
		publishEvent(ctx, s.events, s.logger, EventEnrollmentActivated, map[string]interface{}{
			"user_id":         userID,
			"course_id":       courseID,
			"enrollment_type": enrollment.EnrollmentType,
		})
		notify(ctx, s.notifier, s.logger, NotificationInput{
			UserID:  userID,
			Type:    models.NotificationCourseEnrollment,
			Title:   "Enrollment confirmed",
			Message: "You are now enrolled in " + course.Title + ".",
			Data:    map[string]interface{}{"course_id": courseID},
		})
	}

	return dto.EnrollResult{
		Enrollment:      dto.NewEnrollmentResponse(enrollment),
		RequiresPayment: !enrollment.IsActive(),
	}, nil
}

func (s *enrollmentService) ListMine(ctx context.Context, userID uint) ([]dto.MyCourseResponse, error) {
	enrollments, err := s.enrollments.ListByUser(ctx, userID, models.EnrollmentStatusActive)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(enrollments))
	for _, enrollment := range enrollments {
		ids = append(ids, enrollment.CourseID)
	}
	counts, err := s.progress.CountsForCourses(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]dto.MyCourseResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		out = append(out, dto.MyCourseResponse{
			Enrollment: dto.NewEnrollmentResponse(enrollment),
			Course:     dto.NewCourseSummary(enrollment.Course),
			Progress:   dto.NewCourseProgressSummary(counts[enrollment.CourseID]),
		})
	}
	return out, nil
}

func (s *enrollmentService) Status(ctx context.Context, userID, courseID uint) (dto.EnrollmentStatusResponse, error) {
	enrollment, err := s.enrollments.Find(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentStatusResponse{Enrolled: false}, nil
		}
		return dto.EnrollmentStatusResponse{}, err
	}

	resp := dto.EnrollmentStatusResponse{
		Enrolled:       enrollment.IsActive(),
		Status:         enrollment.Status,
		EnrollmentType: enrollment.EnrollmentType,
	}
	if enrollment.IsActive() {
		counts, err := s.progress.CourseCounts(ctx, userID, courseID)
		if err != nil {
			return dto.EnrollmentStatusResponse{}, err
		}
		resp.Progress = counts.Percentage()
	}
	return resp, nil
}
