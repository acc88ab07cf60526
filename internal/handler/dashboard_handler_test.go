package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/handler"
)

type stubDashboardService struct {
	overview dto.DashboardResponse
	streak   dto.StreakResponse
	err      error
	lastUser uint
	calls    int
}

func (s *stubDashboardService) Overview(_ context.Context, userID uint) (dto.DashboardResponse, error) {
	s.calls++
	s.lastUser = userID
	return s.overview, s.err
}

func (s *stubDashboardService) Streak(_ context.Context, userID uint) (dto.StreakResponse, error) {
	s.calls++
	s.lastUser = userID
	return s.streak, s.err
}

func sampleCourseSummary(id uint) dto.CourseSummary {
	return dto.CourseSummary{
		ID:           id,
		Title:        "Go for Services",
		Category:     "programming",
		Level:        "intermediate",
		Price:        49.99,
		Currency:     "usd",
		Status:       "published",
		Rating:       4.5,
		ReviewsCount: 12,
		Instructor:   dto.InstructorSummary{ID: 3, FirstName: "Ada", LastName: "Lovelace"},
		CreatedAt:    time.Now().UTC(),
	}
}

func TestDashboardHandlerContract(t *testing.T) {
	now := time.Now().UTC()
	svc := &stubDashboardService{overview: dto.DashboardResponse{
		EnrolledCourses: []dto.DashboardCourse{{
			Course:       sampleCourseSummary(7),
			Status:       "active",
			EnrolledAt:   now.Add(-72 * time.Hour),
			Progress:     dto.CourseProgressSummary{TotalLessons: 4, CompletedLessons: 1, ProgressPercentage: 25},
			LastActivity: ptr(now),
		}},
		Stats: dto.DashboardStats{TotalEnrolled: 1, TotalLearningTime: 600},
		RecentActivity: []dto.RecentActivityItem{{
			LessonID: 11, LessonTitle: "Goroutines", CourseID: 7, CourseTitle: "Go for Services", CompletedAt: ptr(now),
		}},
		RecommendedCourses: []dto.CourseSummary{sampleCourseSummary(8)},
	}}

	app, group := newTestApp("/api/v1/dashboard", 21, "student")
	handler.NewDashboardHandler(svc, zerolog.Nop()).Register(group)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, payload := decodeResponse(t, resp)
	require.Equal(t, "dashboard retrieved", payload.Message)
	requireSchema(t, compileSchema(t, "dashboard.schema.json"), raw)
	require.Equal(t, uint(21), svc.lastUser)
}

func TestDashboardHandlerEmptyCollectionsStillMatchContract(t *testing.T) {
	svc := &stubDashboardService{overview: dto.DashboardResponse{
		EnrolledCourses:    []dto.DashboardCourse{},
		RecentActivity:     []dto.RecentActivityItem{},
		RecommendedCourses: []dto.CourseSummary{},
	}}

	app, group := newTestApp("/api/v1/dashboard", 21, "student")
	handler.NewDashboardHandler(svc, zerolog.Nop()).Register(group)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, _ := decodeResponse(t, resp)
	requireSchema(t, compileSchema(t, "dashboard.schema.json"), raw)
}

func TestDashboardHandlerRequiresUser(t *testing.T) {
	svc := &stubDashboardService{}
	app, group := newTestApp("/api/v1/dashboard", 0, "")
	handler.NewDashboardHandler(svc, zerolog.Nop()).Register(group)

	for _, path := range []string{"/api/v1/dashboard", "/api/v1/dashboard/streak"} {
		resp := doRequest(t, app, http.MethodGet, path, nil)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, path)

		raw, _ := decodeResponse(t, resp)
		requireSchema(t, compileSchema(t, "error.schema.json"), raw)
	}
	require.Zero(t, svc.calls)
}

func TestDashboardHandlerStreak(t *testing.T) {
	svc := &stubDashboardService{streak: dto.StreakResponse{CurrentStreak: 3, ActiveToday: true, LastActivityDate: "2026-10-19"}}
	app, group := newTestApp("/api/v1/dashboard", 5, "student")
	handler.NewDashboardHandler(svc, zerolog.Nop()).Register(group)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/dashboard/streak", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, payload := decodeResponse(t, resp)
	require.JSONEq(t, `{"current_streak":3,"active_today":true,"last_activity_date":"2026-10-19"}`, string(payload.Data))
}

func TestDashboardHandlerHidesInternalErrors(t *testing.T) {
	svc := &stubDashboardService{err: errors.New("redis: connection reset")}
	app, group := newTestApp("/api/v1/dashboard", 5, "student")
	handler.NewDashboardHandler(svc, zerolog.Nop()).Register(group)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	raw, payload := decodeResponse(t, resp)
	require.Equal(t, "internal server error", payload.Message)
	requireSchema(t, compileSchema(t, "error.schema.json"), raw)
}
