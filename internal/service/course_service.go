package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/repository"
)

// CourseService manages courses and their curriculum.
type CourseService interface {
	List(ctx context.Context, req dto.CourseListRequest) ([]dto.CourseSummary, int64, error)
	Get(ctx context.Context, viewer ActivityActor, courseID uint) (dto.CourseDetailResponse, error)
	Mine(ctx context.Context, instructorID uint, req dto.CourseListRequest) ([]dto.CourseSummary, int64, error)
	Create(ctx context.Context, actor ActivityActor, req dto.CourseCreateRequest) (dto.CourseDetailResponse, error)
	Update(ctx context.Context, actor ActivityActor, courseID uint, req dto.CourseUpdateRequest) (dto.CourseDetailResponse, error)
	SetStatus(ctx context.Context, actor ActivityActor, courseID uint, req dto.CourseStatusRequest) (dto.CourseSummary, error)
	AddModule(ctx context.Context, actor ActivityActor, courseID uint, req dto.ModuleCreateRequest) (dto.ModuleResponse, error)
	AddLesson(ctx context.Context, actor ActivityActor, courseID, moduleID uint, req dto.LessonCreateRequest) (dto.LessonSummary, error)
	Authorize(ctx context.Context, actor ActivityActor, courseID uint) (models.Course, error)
}

type courseService struct {
	courses   repository.CourseRepository
	activity  ActivityRecorder
	validator *validator.Validate
	currency  string
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewCourseService constructs the course service. Currency is applied to courses created without one.
func NewCourseService(courses repository.CourseRepository, activity ActivityRecorder, validate *validator.Validate, currency string, logger zerolog.Logger) CourseService {
	if currency == "" {
		currency = "usd"
	}
	return &courseService{
		courses:   courses,
		activity:  activity,
		validator: validate,
		currency:  strings.ToLower(currency),
		logger:    logger.With().Str("component", "course_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/learnhub-api/internal/service/course"),
		now:       time.Now,
	}
}

func (s *courseService) List(ctx context.Context, req dto.CourseListRequest) ([]dto.CourseSummary, int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, 0, err
	}
	courses, total, err := s.courses.List(ctx, repository.CourseFilter{
		Status:   models.CourseStatusPublished,
		Category: strings.TrimSpace(req.Category),
		Level:    req.Level,
		Search:   req.Search,
		SortBy:   req.SortBy,
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
	if err != nil {
		return nil, 0, err
	}
	return dto.NewCourseSummaries(courses), total, nil
}

// Get returns a published course. Owners and admins may also read drafts and archived courses.
func (s *courseService) Get(ctx context.Context, viewer ActivityActor, courseID uint) (dto.CourseDetailResponse, error) {
	course, err := s.courses.GetWithCurriculum(ctx, courseID)
	if err != nil {
		return dto.CourseDetailResponse{}, mapCourseError(err)
	}
	if !course.IsPublished() && !canManageCourse(viewer, course) {
		return dto.CourseDetailResponse{}, ErrCourseNotFound
	}
	return dto.NewCourseDetailResponse(course), nil
}

func (s *courseService) Mine(ctx context.Context, instructorID uint, req dto.CourseListRequest) ([]dto.CourseSummary, int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, 0, err
	}
	courses, total, err := s.courses.List(ctx, repository.CourseFilter{
		InstructorID: &instructorID,
		Search:       req.Search,
		SortBy:       repository.SortNewest,
		Limit:        req.Limit,
		Offset:       req.Offset,
	})
	if err != nil {
		return nil, 0, err
	}
	return dto.NewCourseSummaries(courses), total, nil
}

func (s *courseService) Create(ctx context.Context, actor ActivityActor, req dto.CourseCreateRequest) (dto.CourseDetailResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseDetailResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "course.create")
	defer span.End()

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.currency
	}
	course := models.Course{
		InstructorID:     actor.ID,
		Title:            strings.TrimSpace(req.Title),
		Description:      strings.TrimSpace(req.Description),
		ShortDescription: strings.TrimSpace(req.ShortDescription),
		Category:         strings.ToLower(strings.TrimSpace(req.Category)),
		Level:            req.Level,
		Price:            req.Price,
		Currency:         currency,
		Status:           models.CourseStatusDraft,
		DurationHours:    req.DurationHours,
		LearningOutcomes: dto.JSONList(req.LearningOutcomes),
		Requirements:     dto.JSONList(req.Requirements),
	}
	if err := s.courses.Create(ctx, &course); err != nil {
		span.RecordError(err)
		return dto.CourseDetailResponse{}, err
	}
	span.SetAttributes(attribute.Int("course.id", int(course.ID)))

	recordActivity(ctx, s.activity, s.logger, actor, "course.created", "course", course.ID, map[string]interface{}{"title": course.Title})

	created, err := s.courses.GetWithCurriculum(ctx, course.ID)
	if err != nil {
		return dto.CourseDetailResponse{}, err
	}
	return dto.NewCourseDetailResponse(created), nil
}

func (s *courseService) Update(ctx context.Context, actor ActivityActor, courseID uint, req dto.CourseUpdateRequest) (dto.CourseDetailResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseDetailResponse{}, err
	}
	if _, err := s.Authorize(ctx, actor, courseID); err != nil {
		return dto.CourseDetailResponse{}, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.ShortDescription != nil {
		updates["short_description"] = strings.TrimSpace(*req.ShortDescription)
	}
	if req.Category != nil {
		updates["category"] = strings.ToLower(strings.TrimSpace(*req.Category))
	}
	if req.Level != nil {
		updates["level"] = *req.Level
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.DurationHours != nil {
		updates["duration_hours"] = *req.DurationHours
	}
	if req.LearningOutcomes != nil {
		updates["learning_outcomes"] = dto.JSONList(req.LearningOutcomes)
	}
	if req.Requirements != nil {
		updates["requirements"] = dto.JSONList(req.Requirements)
	}
	if len(updates) == 0 {
		return dto.CourseDetailResponse{}, ErrInvalidInput
	}
	updates["updated_at"] = s.now().UTC()

	if _, err := s.courses.Update(ctx, courseID, updates); err != nil {
		return dto.CourseDetailResponse{}, mapCourseError(err)
	}
	recordActivity(ctx, s.activity, s.logger, actor, "course.updated", "course", courseID, nil)

	course, err := s.courses.GetWithCurriculum(ctx, courseID)
	if err != nil {
		return dto.CourseDetailResponse{}, mapCourseError(err)
	}
	return dto.NewCourseDetailResponse(course), nil
}

// SetStatus moves a course between draft, published and archived. PublishedAt records the first publication.
func (s *courseService) SetStatus(ctx context.Context, actor ActivityActor, courseID uint, req dto.CourseStatusRequest) (dto.CourseSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseSummary{}, err
	}
	course, err := s.Authorize(ctx, actor, courseID)
	if err != nil {
		return dto.CourseSummary{}, err
	}

	now := s.now().UTC()
	updates := map[string]interface{}{"status": req.Status, "updated_at": now}
	if req.Status == models.CourseStatusPublished && course.PublishedAt == nil {
		updates["published_at"] = now
	}

	updated, err := s.courses.Update(ctx, courseID, updates)
	if err != nil {
		return dto.CourseSummary{}, mapCourseError(err)
	}

	s.logger.Info().Uint("course_id", courseID).Str("status", req.Status).Msg("course status changed")
	recordActivity(ctx, s.activity, s.logger, actor, "course."+req.Status, "course", courseID, map[string]interface{}{
		"from": course.Status,
		"to":   req.Status,
	})
	return dto.NewCourseSummary(updated), nil
}

func (s *courseService) AddModule(ctx context.Context, actor ActivityActor, courseID uint, req dto.ModuleCreateRequest) (dto.ModuleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ModuleResponse{}, err
	}
	if _, err := s.Authorize(ctx, actor, courseID); err != nil {
		return dto.ModuleResponse{}, err
	}

	module := models.CourseModule{
		CourseID:    courseID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
	}
	if req.OrderIndex != nil {
		module.OrderIndex = *req.OrderIndex
	}
	if err := s.courses.CreateModule(ctx, &module); err != nil {
		return dto.ModuleResponse{}, err
	}
	return dto.NewModuleResponse(module), nil
}

func (s *courseService) AddLesson(ctx context.Context, actor ActivityActor, courseID, moduleID uint, req dto.LessonCreateRequest) (dto.LessonSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.LessonSummary{}, err
	}
	if _, err := s.Authorize(ctx, actor, courseID); err != nil {
		return dto.LessonSummary{}, err
	}
	if _, err := s.courses.GetModule(ctx, courseID, moduleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LessonSummary{}, ErrModuleNotFound
		}
		return dto.LessonSummary{}, err
	}

	lesson := models.CourseLesson{
		ModuleID:        moduleID,
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		LessonType:      req.LessonType,
		ContentURL:      strings.TrimSpace(req.ContentURL),
		Content:         req.Content,
		DurationMinutes: req.DurationMinutes,
		IsFree:          req.IsFree,
	}
	if req.OrderIndex != nil {
		lesson.OrderIndex = *req.OrderIndex
	}
	if err := s.courses.CreateLesson(ctx, &lesson); err != nil {
		return dto.LessonSummary{}, err
	}
	return dto.NewLessonSummary(lesson), nil
}

// Authorize loads a course the actor may modify: its instructor or any admin.
func (s *courseService) Authorize(ctx context.Context, actor ActivityActor, courseID uint) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return models.Course{}, mapCourseError(err)
	}
	if !canManageCourse(actor, course) {
		return models.Course{}, ErrNotCourseOwner
	}
	return course, nil
}

func canManageCourse(actor ActivityActor, course models.Course) bool {
	if actor.ID == 0 {
		return false
	}
	return actor.IsAdmin() || course.InstructorID == actor.ID
}

func mapCourseError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCourseNotFound
	}
	return err
}
