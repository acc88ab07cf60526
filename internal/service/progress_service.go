package service

import (
	"context"
	"errors"
	"strings"
	"time"

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

// ProgressService records lesson work and lesson notes.
type ProgressService interface {
	UpdateLesson(ctx context.Context, userID, lessonID uint, req dto.LessonProgressRequest) (dto.ProgressUpdateResponse, error)
	UpdateCourseLesson(ctx context.Context, userID uint, req dto.CourseLessonProgressRequest) (dto.ProgressUpdateResponse, error)
	CourseProgress(ctx context.Context, userID, courseID uint) (dto.CourseProgressResponse, error)
	AddNote(ctx context.Context, userID, lessonID uint, req dto.NoteCreateRequest) (dto.NoteResponse, error)
	AddCourseNote(ctx context.Context, userID uint, req dto.CourseNoteCreateRequest) (dto.NoteResponse, error)
	Notes(ctx context.Context, userID, lessonID uint) ([]dto.NoteResponse, error)
	CourseLessonNotes(ctx context.Context, userID, courseID, lessonID uint) ([]dto.NoteResponse, error)
	DeleteNote(ctx context.Context, userID, noteID uint) error
}

type progressService struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	progress    repository.ProgressRepository
	notifier    Notifier
	events      EventPublisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewProgressService constructs the progress service.
func NewProgressService(courses repository.CourseRepository, enrollments repository.EnrollmentRepository, progress repository.ProgressRepository, notifier Notifier, events EventPublisher, validate *validator.Validate, logger zerolog.Logger) ProgressService {
	return &progressService{
		courses:     courses,
		enrollments: enrollments,
		progress:    progress,
		notifier:    notifier,
		events:      events,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "progress_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/learnhub-api/internal/service/progress"),
		now:         time.Now,
	}
}

func (s *progressService) UpdateLesson(ctx context.Context, userID, lessonID uint, req dto.LessonProgressRequest) (dto.ProgressUpdateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProgressUpdateResponse{}, err
	}
	location, err := s.locate(ctx, lessonID)
	if err != nil {
		return dto.ProgressUpdateResponse{}, err
	}
	return s.record(ctx, userID, location, req.Completed, req.TimeSpent)
}

func (s *progressService) UpdateCourseLesson(ctx context.Context, userID uint, req dto.CourseLessonProgressRequest) (dto.ProgressUpdateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProgressUpdateResponse{}, err
	}
	location, err := s.locate(ctx, req.LessonID)
	if err != nil {
		return dto.ProgressUpdateResponse{}, err
	}
	if location.CourseID != req.CourseID {
		return dto.ProgressUpdateResponse{}, ErrLessonNotFound
	}
	return s.record(ctx, userID, location, req.Completed, req.TimeSpent)
}

// record upserts the progress row. Completion is sticky, so a completed=false call
// only adds time. The course-completed side effects fire on the call that sets the
// last lesson's completed_at.
func (s *progressService) record(ctx context.Context, userID uint, location models.LessonLocation, completed *bool, timeSpent int) (dto.ProgressUpdateResponse, error) {
	ctx, span := s.tracer.Start(ctx, "progress.record", trace.WithAttributes(
		attribute.Int("user.id", int(userID)),
		attribute.Int("lesson.id", int(location.LessonID)),
	))
	defer span.End()

	if err := requireActiveEnrollment(ctx, s.enrollments, userID, location.CourseID); err != nil {
		return dto.ProgressUpdateResponse{}, err
	}

	markCompleted := completed == nil || *completed
	now := s.now().UTC().Truncate(time.Microsecond)
	entry := models.LessonProgress{
		UserID:    userID,
		CourseID:  location.CourseID,
		LessonID:  location.LessonID,
		Completed: markCompleted,
		TimeSpent: timeSpent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if markCompleted {
		entry.CompletedAt = &now
	}

	stored, counts, err := s.progress.Record(ctx, entry)
	if err != nil {
		span.RecordError(err)
		return dto.ProgressUpdateResponse{}, err
	}

	justCompletedLesson := markCompleted && stored.CompletedAt != nil && stored.CompletedAt.Equal(now)
	courseCompleted := counts.IsComplete()
	if courseCompleted && justCompletedLesson {
		s.logger.Info().Uint("user_id", userID).Uint("course_id", location.CourseID).Msg("course completed")
		publishEvent(ctx, s.events, s.logger, EventCourseCompleted, map[string]interface{}{
			"user_id":   userID,
			"course_id": location.CourseID,
		})
		notify(ctx, s.notifier, s.logger, NotificationInput{
			UserID:  userID,
			Type:    models.NotificationCourseCompletion,
			Title:   "Course completed",
			Message: "You finished every lesson in " + location.CourseTitle + ". Your certificate is ready to generate.",
			Data:    map[string]interface{}{"course_id": location.CourseID},
		})
	}

	return dto.ProgressUpdateResponse{
		Progress:        dto.NewLessonProgressResponse(stored),
		CourseProgress:  dto.NewCourseProgressSummary(counts),
		CourseCompleted: courseCompleted,
	}, nil
}

func (s *progressService) CourseProgress(ctx context.Context, userID, courseID uint) (dto.CourseProgressResponse, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return dto.CourseProgressResponse{}, mapCourseError(err)
	}
	if err := requireActiveEnrollment(ctx, s.enrollments, userID, courseID); err != nil {
		return dto.CourseProgressResponse{}, err
	}

	rows, err := s.progress.CourseRows(ctx, userID, courseID)
	if err != nil {
		return dto.CourseProgressResponse{}, err
	}

	counts := models.ProgressCounts{CourseID: courseID, Total: int64(len(rows))}
	resp := dto.CourseProgressResponse{CourseID: courseID, Lessons: make([]dto.LessonProgressItem, 0, len(rows))}
	for _, row := range rows {
		if row.Completed {
			counts.Completed++
		}
		resp.TotalTimeSpent += row.TimeSpent
		resp.Lessons = append(resp.Lessons, dto.LessonProgressItem{
			LessonID:        row.LessonID,
			LessonTitle:     row.LessonTitle,
			LessonType:      row.LessonType,
			ModuleID:        row.ModuleID,
			ModuleTitle:     row.ModuleTitle,
			DurationMinutes: row.DurationMinutes,
			Completed:       row.Completed,
			TimeSpent:       row.TimeSpent,
			CompletedAt:     row.CompletedAt,
		})
	}
	resp.CourseProgressSummary = dto.NewCourseProgressSummary(counts)
	return resp, nil
}

func (s *progressService) AddNote(ctx context.Context, userID, lessonID uint, req dto.NoteCreateRequest) (dto.NoteResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.NoteResponse{}, err
	}
	location, err := s.locate(ctx, lessonID)
	if err != nil {
		return dto.NoteResponse{}, err
	}
	return s.createNote(ctx, userID, location, req.Content, req.Timestamp)
}

func (s *progressService) AddCourseNote(ctx context.Context, userID uint, req dto.CourseNoteCreateRequest) (dto.NoteResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.NoteResponse{}, err
	}
	location, err := s.locate(ctx, req.LessonID)
	if err != nil {
		return dto.NoteResponse{}, err
	}
	if location.CourseID != req.CourseID {
		return dto.NoteResponse{}, ErrLessonNotFound
	}
	return s.createNote(ctx, userID, location, req.Content, req.Timestamp)
}

func (s *progressService) createNote(ctx context.Context, userID uint, location models.LessonLocation, content string, timestamp int) (dto.NoteResponse, error) {
	if err := requireActiveEnrollment(ctx, s.enrollments, userID, location.CourseID); err != nil {
		return dto.NoteResponse{}, err
	}
	clean := strings.TrimSpace(s.sanitizer.Sanitize(content))
	if clean == "" {
		return dto.NoteResponse{}, ErrInvalidInput
	}

	note := models.LessonNote{
		UserID:    userID,
		CourseID:  location.CourseID,
		LessonID:  location.LessonID,
		Content:   clean,
		Timestamp: timestamp,
	}
	if err := s.progress.CreateNote(ctx, &note); err != nil {
		return dto.NoteResponse{}, err
	}
	return dto.NewNoteResponse(note), nil
}

func (s *progressService) Notes(ctx context.Context, userID, lessonID uint) ([]dto.NoteResponse, error) {
	if _, err := s.locate(ctx, lessonID); err != nil {
		return nil, err
	}
	notes, err := s.progress.ListNotes(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}
	return dto.NewNoteResponses(notes), nil
}

func (s *progressService) CourseLessonNotes(ctx context.Context, userID, courseID, lessonID uint) ([]dto.NoteResponse, error) {
	location, err := s.locate(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if location.CourseID != courseID {
		return nil, ErrLessonNotFound
	}
	notes, err := s.progress.ListNotes(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}
	return dto.NewNoteResponses(notes), nil
}

func (s *progressService) DeleteNote(ctx context.Context, userID, noteID uint) error {
	if err := s.progress.DeleteNote(ctx, noteID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoteNotFound
		}
		return err
	}
	return nil
}

func (s *progressService) locate(ctx context.Context, lessonID uint) (models.LessonLocation, error) {
	return locateLesson(ctx, s.courses, lessonID)
}

func locateLesson(ctx context.Context, courses repository.CourseRepository, lessonID uint) (models.LessonLocation, error) {
	location, err := courses.LocateLesson(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.LessonLocation{}, ErrLessonNotFound
		}
		return models.LessonLocation{}, err
	}
	return location, nil
}

func requireActiveEnrollment(ctx context.Context, enrollments repository.EnrollmentRepository, userID, courseID uint) error {
	enrollment, err := enrollments.Find(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotEnrolled
		}
		return err
	}
	if !enrollment.IsActive() {
		return ErrNotEnrolled
	}
	return nil
}
