package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/handler"
	"github.com/noah-isme/learnhub-api/internal/service"
)

type stubProgressService struct {
	update   dto.ProgressUpdateResponse
	progress dto.CourseProgressResponse
	note     dto.NoteResponse
	err      error

	lastUpdate dto.CourseLessonProgressRequest
	lastNote   dto.CourseNoteCreateRequest
	lastUser   uint
}

func (s *stubProgressService) UpdateLesson(_ context.Context, userID, lessonID uint, req dto.LessonProgressRequest) (dto.ProgressUpdateResponse, error) {
	s.lastUser = userID
	return s.update, s.err
}

func (s *stubProgressService) UpdateCourseLesson(_ context.Context, userID uint, req dto.CourseLessonProgressRequest) (dto.ProgressUpdateResponse, error) {
	s.lastUser = userID
	s.lastUpdate = req
	return s.update, s.err
}

func (s *stubProgressService) CourseProgress(_ context.Context, userID, courseID uint) (dto.CourseProgressResponse, error) {
	s.lastUser = userID
	return s.progress, s.err
}

func (s *stubProgressService) AddNote(_ context.Context, userID, lessonID uint, req dto.NoteCreateRequest) (dto.NoteResponse, error) {
	return s.note, s.err
}

func (s *stubProgressService) AddCourseNote(_ context.Context, userID uint, req dto.CourseNoteCreateRequest) (dto.NoteResponse, error) {
	s.lastUser = userID
	s.lastNote = req
	return s.note, s.err
}

func (s *stubProgressService) Notes(_ context.Context, userID, lessonID uint) ([]dto.NoteResponse, error) {
	return []dto.NoteResponse{s.note}, s.err
}

func (s *stubProgressService) CourseLessonNotes(_ context.Context, userID, courseID, lessonID uint) ([]dto.NoteResponse, error) {
	return []dto.NoteResponse{s.note}, s.err
}

func (s *stubProgressService) DeleteNote(_ context.Context, userID, noteID uint) error {
	return s.err
}

func TestProgressHandlerCourseProgressContract(t *testing.T) {
	completedAt := time.Now().UTC()
	svc := &stubProgressService{progress: dto.CourseProgressResponse{
		CourseID:              4,
		CourseProgressSummary: dto.CourseProgressSummary{TotalLessons: 2, CompletedLessons: 1, ProgressPercentage: 50},
		TotalTimeSpent:        420,
		Lessons: []dto.LessonProgressItem{
			{LessonID: 1, LessonTitle: "Intro", LessonType: "video", ModuleID: 2, Completed: true, TimeSpent: 420, CompletedAt: &completedAt},
			{LessonID: 2, LessonTitle: "Channels", LessonType: "text", ModuleID: 2},
		},
	}}

	app, group := newTestApp("/api/v1/progress", 9, "student")
	handler.NewProgressHandler(svc, zerolog.Nop()).Register(group)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/progress/course/4", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, _ := decodeResponse(t, resp)
	requireSchema(t, compileSchema(t, "course_progress.schema.json"), raw)
	require.Equal(t, uint(9), svc.lastUser)
}

func TestProgressHandlerUpdateLesson(t *testing.T) {
	svc := &stubProgressService{update: dto.ProgressUpdateResponse{
		CourseProgress:  dto.CourseProgressSummary{TotalLessons: 1, CompletedLessons: 1, ProgressPercentage: 100},
		CourseCompleted: true,
	}}
	app, group := newTestApp("/api/v1/progress", 9, "student")
	handler.NewProgressHandler(svc, zerolog.Nop()).Register(group)

	resp := doRequest(t, app, http.MethodPost, "/api/v1/progress/lesson", map[string]interface{}{
		"course_id":  4,
		"lesson_id":  12,
		"time_spent": 300,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, payload := decodeResponse(t, resp)
	require.True(t, payload.Success)
	require.Equal(t, uint(4), svc.lastUpdate.CourseID)
	require.Equal(t, uint(12), svc.lastUpdate.LessonID)
	require.Nil(t, svc.lastUpdate.Completed)
	require.Equal(t, 300, svc.lastUpdate.TimeSpent)
}

func TestProgressHandlerLockedLesson(t *testing.T) {
	svc := &stubProgressService{err: service.ErrLessonLocked}
	app, group := newTestApp("/api/v1/progress", 9, "student")
	handler.NewProgressHandler(svc, zerolog.Nop()).Register(group)

	resp := doRequest(t, app, http.MethodPost, "/api/v1/progress/lesson", map[string]interface{}{"course_id": 4, "lesson_id": 12})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	raw, payload := decodeResponse(t, resp)
	require.Equal(t, service.ErrLessonLocked.Error(), payload.Message)
	requireSchema(t, compileSchema(t, "error.schema.json"), raw)
}

func TestProgressHandlerAddNote(t *testing.T) {
	svc := &stubProgressService{note: dto.NoteResponse{ID: 3, CourseID: 4, LessonID: 12, Content: "revisit select", Timestamp: 95}}
	app, group := newTestApp("/api/v1/progress", 9, "student")
	handler.NewProgressHandler(svc, zerolog.Nop()).Register(group)

	resp := doRequest(t, app, http.MethodPost, "/api/v1/progress/notes", map[string]interface{}{
		"course_id": 4,
		"lesson_id": 12,
		"content":   "revisit select",
		"timestamp": 95,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "revisit select", svc.lastNote.Content)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/progress/notes/4/12", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	_, payload := decodeResponse(t, resp)
	require.Contains(t, string(payload.Data), "revisit select")
}

func TestProgressHandlerRejectsBadCourseID(t *testing.T) {
	svc := &stubProgressService{}
	app, group := newTestApp("/api/v1/progress", 9, "student")
	handler.NewProgressHandler(svc, zerolog.Nop()).Register(group)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/progress/course/zero", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
