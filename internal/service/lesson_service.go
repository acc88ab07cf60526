package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/repository"
)

// LessonService serves lesson content to enrolled learners and preview visitors.
type LessonService interface {
	Get(ctx context.Context, viewer ActivityActor, lessonID uint) (dto.LessonDetailResponse, error)
	Navigation(ctx context.Context, lessonID uint) (dto.LessonNavigationResponse, error)
}

type lessonService struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	progress    repository.ProgressRepository
	logger      zerolog.Logger
}

// NewLessonService constructs the lesson service.
func NewLessonService(courses repository.CourseRepository, enrollments repository.EnrollmentRepository, progress repository.ProgressRepository, logger zerolog.Logger) LessonService {
	return &lessonService{
		courses:     courses,
		enrollments: enrollments,
		progress:    progress,
		logger:      logger.With().Str("component", "lesson_service").Logger(),
	}
}

// Get opens a lesson for an actively enrolled learner, the course's instructor or an admin.
// Free preview lessons are open to everyone.
func (s *lessonService) Get(ctx context.Context, viewer ActivityActor, lessonID uint) (dto.LessonDetailResponse, error) {
	location, err := locateLesson(ctx, s.courses, lessonID)
	if err != nil {
		return dto.LessonDetailResponse{}, err
	}
	course, err := s.courses.GetByID(ctx, location.CourseID)
	if err != nil {
		return dto.LessonDetailResponse{}, mapCourseError(err)
	}

	manager := canManageCourse(viewer, course)
	if !course.IsPublished() && !manager {
		return dto.LessonDetailResponse{}, ErrLessonNotFound
	}

	enrolled := false
	if viewer.ID != 0 && !manager {
		switch err := requireActiveEnrollment(ctx, s.enrollments, viewer.ID, course.ID); {
		case err == nil:
			enrolled = true
		case !errors.Is(err, ErrNotEnrolled):
			return dto.LessonDetailResponse{}, err
		}
	}
	if !enrolled && !manager && !location.IsFree {
		return dto.LessonDetailResponse{}, ErrLessonLocked
	}

	lesson, err := s.courses.GetLesson(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LessonDetailResponse{}, ErrLessonNotFound
		}
		return dto.LessonDetailResponse{}, err
	}

	resp := dto.LessonDetailResponse{
		LessonSummary: dto.NewLessonSummary(lesson),
		CourseID:      course.ID,
		CourseTitle:   course.Title,
		Description:   lesson.Description,
		ContentURL:    lesson.ContentURL,
		Content:       lesson.Content,
		Notes:         []dto.NoteResponse{},
	}
	if viewer.ID == 0 {
		return resp, nil
	}

	progress, err := s.progress.Get(ctx, viewer.ID, lessonID)
	switch {
	case err == nil:
		converted := dto.NewLessonProgressResponse(progress)
		resp.Progress = &converted
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return dto.LessonDetailResponse{}, err
	}

	notes, err := s.progress.ListNotes(ctx, viewer.ID, lessonID)
	if err != nil {
		return dto.LessonDetailResponse{}, err
	}
	resp.Notes = dto.NewNoteResponses(notes)
	return resp, nil
}

// Navigation returns the neighbours of a lesson in the course's global order.
func (s *lessonService) Navigation(ctx context.Context, lessonID uint) (dto.LessonNavigationResponse, error) {
	location, err := locateLesson(ctx, s.courses, lessonID)
	if err != nil {
		return dto.LessonNavigationResponse{}, err
	}
	lessons, err := s.courses.OrderedLessons(ctx, location.CourseID)
	if err != nil {
		return dto.LessonNavigationResponse{}, err
	}

	resp := dto.LessonNavigationResponse{CourseID: location.CourseID, Total: len(lessons)}
	for i, lesson := range lessons {
		if lesson.ID != lessonID {
			continue
		}
		resp.Position = i + 1
		if i > 0 {
			prev := dto.NewLessonSummary(lessons[i-1])
			resp.Previous = &prev
		}
		if i+1 < len(lessons) {
			next := dto.NewLessonSummary(lessons[i+1])
			resp.Next = &next
		}
		break
	}
	return resp, nil
}
