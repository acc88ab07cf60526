package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/repository"
)

const (
	recommendationLimit  = 6
	recentActivityLimit  = 10
	dashboardDateLayout  = "2006-01-02"
	dashboardCachePrefix = "dashboard:user:"
)

// DashboardService produces the learner home page and learning streak.
type DashboardService interface {
	Overview(ctx context.Context, userID uint) (dto.DashboardResponse, error)
	Streak(ctx context.Context, userID uint) (dto.StreakResponse, error)
}

type dashboardService struct {
	courses      repository.CourseRepository
	enrollments  repository.EnrollmentRepository
	progress     repository.ProgressRepository
	certificates repository.CertificateRepository
	cache        *redis.Client
	cacheTTL     time.Duration
	logger       zerolog.Logger
	now          func() time.Time
}

// NewDashboardService builds the dashboard aggregator. A nil cache disables caching.
func NewDashboardService(courses repository.CourseRepository, enrollments repository.EnrollmentRepository, progress repository.ProgressRepository, certificates repository.CertificateRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		courses:      courses,
		enrollments:  enrollments,
		progress:     progress,
		certificates: certificates,
		cache:        cache,
		cacheTTL:     ttl,
		logger:       logger.With().Str("component", "dashboard_service").Logger(),
		now:          time.Now,
	}
}

func (s *dashboardService) Overview(ctx context.Context, userID uint) (dto.DashboardResponse, error) {
	cacheKey := fmt.Sprintf("%s%d", dashboardCachePrefix, userID)

	var cached dto.DashboardResponse
	if s.readCache(ctx, cacheKey, &cached) {
		s.logger.Debug().Uint("user_id", userID).Msg("dashboard cache hit")
		return cached, nil
	}

	enrollments, err := s.enrollments.ListByUser(ctx, userID, models.EnrollmentStatusActive)
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	courseIDs := make([]uint, 0, len(enrollments))
	for _, enrollment := range enrollments {
		courseIDs = append(courseIDs, enrollment.CourseID)
	}

	counts, err := s.progress.CountsForCourses(ctx, userID, courseIDs)
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	rows, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	certificates, err := s.certificates.CountByUser(ctx, userID)
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	recent, err := s.progress.RecentCompletions(ctx, userID, recentActivityLimit)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	enrolled := make(map[uint]struct{}, len(courseIDs))
	for _, id := range courseIDs {
		enrolled[id] = struct{}{}
	}
	lastActivity := make(map[uint]time.Time)
	var learningTime int64
	for _, row := range rows {
		if _, ok := enrolled[row.CourseID]; !ok {
			continue
		}
		learningTime += int64(row.TimeSpent)
		if row.CompletedAt != nil && row.CompletedAt.After(lastActivity[row.CourseID]) {
			lastActivity[row.CourseID] = *row.CompletedAt
		}
	}

	response := dto.DashboardResponse{
		EnrolledCourses:    make([]dto.DashboardCourse, 0, len(enrollments)),
		RecentActivity:     make([]dto.RecentActivityItem, 0, len(recent)),
		RecommendedCourses: []dto.CourseSummary{},
	}
	for _, enrollment := range enrollments {
		courseCounts := counts[enrollment.CourseID]
		item := dto.DashboardCourse{
			Course:     dto.NewCourseSummary(enrollment.Course),
			Status:     enrollment.Status,
			EnrolledAt: enrollment.EnrolledAt,
			Progress:   dto.NewCourseProgressSummary(courseCounts),
		}
		if at, ok := lastActivity[enrollment.CourseID]; ok {
			at := at
			item.LastActivity = &at
		}
		if courseCounts.IsComplete() {
			response.Stats.CompletedCourses++
		}
		response.EnrolledCourses = append(response.EnrolledCourses, item)
	}
	sort.SliceStable(response.EnrolledCourses, func(i, j int) bool {
		return activityTime(response.EnrolledCourses[i]).After(activityTime(response.EnrolledCourses[j]))
	})

	response.Stats.TotalEnrolled = len(enrollments)
	response.Stats.TotalLearningTime = learningTime
	response.Stats.CertificatesEarned = certificates

	for _, item := range recent {
		response.RecentActivity = append(response.RecentActivity, dto.RecentActivityItem{
			LessonID:    item.LessonID,
			LessonTitle: item.LessonTitle,
			CourseID:    item.CourseID,
			CourseTitle: item.CourseTitle,
			CompletedAt: item.CompletedAt,
		})
	}

	recommended, err := s.recommend(ctx, userID, enrollments)
	if err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to build recommendations")
	} else {
		response.RecommendedCourses = recommended
	}

	s.writeCache(ctx, cacheKey, response)
	return response, nil
}

// recommend picks popular published courses from the categories the learner is enrolled in.
func (s *dashboardService) recommend(ctx context.Context, userID uint, enrollments []models.Enrollment) ([]dto.CourseSummary, error) {
	owned, err := s.enrollments.CourseIDsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	exclude := make(map[uint]struct{}, len(owned))
	for _, id := range owned {
		exclude[id] = struct{}{}
	}

	seenCategory := map[string]struct{}{}
	out := make([]dto.CourseSummary, 0, recommendationLimit)
	for _, enrollment := range enrollments {
		category := enrollment.Course.Category
		if category == "" {
			continue
		}
		if _, ok := seenCategory[category]; ok {
			continue
		}
		seenCategory[category] = struct{}{}

		candidates, _, err := s.courses.List(ctx, repository.CourseFilter{
			Status:   models.CourseStatusPublished,
			Category: category,
			SortBy:   repository.SortPopular,
			Limit:    recommendationLimit + len(exclude),
		})
		if err != nil {
			return nil, err
		}
		for _, course := range candidates {
			if _, skip := exclude[course.ID]; skip {
				continue
			}
			exclude[course.ID] = struct{}{}
			out = append(out, dto.NewCourseSummary(course))
			if len(out) == recommendationLimit {
				return out, nil
			}
		}
	}
	return out, nil
}

// Streak counts consecutive days, ending today, with at least one completed lesson.
func (s *dashboardService) Streak(ctx context.Context, userID uint) (dto.StreakResponse, error) {
	rows, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return dto.StreakResponse{}, err
	}

	days := make(map[string]struct{})
	var last time.Time
	for _, row := range rows {
		if !row.Completed || row.CompletedAt == nil {
			continue
		}
		at := row.CompletedAt.UTC()
		days[at.Format(dashboardDateLayout)] = struct{}{}
		if at.After(last) {
			last = at
		}
	}

	response := dto.StreakResponse{}
	if !last.IsZero() {
		response.LastActivityDate = last.Format(dashboardDateLayout)
	}

	day := s.now().UTC()
	for {
		if _, ok := days[day.Format(dashboardDateLayout)]; !ok {
			break
		}
		response.CurrentStreak++
		day = day.AddDate(0, 0, -1)
	}
	response.ActiveToday = response.CurrentStreak > 0
	return response, nil
}

func (s *dashboardService) readCache(ctx context.Context, key string, target interface{}) bool {
	if s.cache == nil {
		return false
	}
	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
		return false
	}
	return json.Unmarshal([]byte(cached), target) == nil
}

func (s *dashboardService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
	}
}

func activityTime(course dto.DashboardCourse) time.Time {
	if course.LastActivity != nil {
		return *course.LastActivity
	}
	return course.EnrolledAt
}
