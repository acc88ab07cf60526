package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/repository"
)

const (
	defaultTimeframe = "30d"
	topCoursesLimit  = 10
	monthLayout      = "2006-01"
)

var timeframeDays = map[string]int{
	"7d":  7,
	"30d": 30,
	"90d": 90,
	"1y":  365,
}

// AnalyticsService reports platform, instructor, learner and course metrics.
type AnalyticsService interface {
	Platform(ctx context.Context, req dto.AnalyticsRequest) (dto.PlatformAnalyticsResponse, error)
	Instructor(ctx context.Context, actor ActivityActor, req dto.AnalyticsRequest) (dto.InstructorAnalyticsResponse, error)
	Student(ctx context.Context, userID uint, req dto.AnalyticsRequest) (dto.StudentAnalyticsResponse, error)
	Course(ctx context.Context, actor ActivityActor, courseID uint) (dto.CourseAnalyticsResponse, error)
}

type analyticsService struct {
	repo         repository.AnalyticsRepository
	courses      repository.CourseRepository
	enrollments  repository.EnrollmentRepository
	progress     repository.ProgressRepository
	certificates repository.CertificateRepository
	validator    *validator.Validate
	cache        *redis.Client
	cacheTTL     time.Duration
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// AnalyticsDeps groups the repositories the analytics service reads from.
type AnalyticsDeps struct {
	Analytics    repository.AnalyticsRepository
	Courses      repository.CourseRepository
	Enrollments  repository.EnrollmentRepository
	Progress     repository.ProgressRepository
	Certificates repository.CertificateRepository
}

// NewAnalyticsService constructs the analytics service. Platform and instructor
// reports are cached in Redis for ttl when a client is given.
func NewAnalyticsService(deps AnalyticsDeps, validate *validator.Validate, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) AnalyticsService {
	return &analyticsService{
		repo:         deps.Analytics,
		courses:      deps.Courses,
		enrollments:  deps.Enrollments,
		progress:     deps.Progress,
		certificates: deps.Certificates,
		validator:    validate,
		cache:        cache,
		cacheTTL:     ttl,
		logger:       logger.With().Str("component", "analytics_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/learnhub-api/internal/service/analytics"),
		now:          time.Now,
	}
}

func (s *analyticsService) Platform(ctx context.Context, req dto.AnalyticsRequest) (dto.PlatformAnalyticsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.PlatformAnalyticsResponse{}, err
	}
	timeframe, since, until := s.window(req.Timeframe)
	cacheKey := "analytics:platform:" + timeframe

	ctx, span := s.tracer.Start(ctx, "analytics.platform", trace.WithAttributes(attribute.String("analytics.timeframe", timeframe)))
	defer span.End()

	var response dto.PlatformAnalyticsResponse
	if s.readCache(ctx, cacheKey, &response) {
		span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
		return response, nil
	}

	fail := func(err error, stage string) (dto.PlatformAnalyticsResponse, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, stage)
		return dto.PlatformAnalyticsResponse{}, err
	}

	roles, err := s.repo.CountUsersByRole(ctx)
	if err != nil {
		return fail(err, "count_users_failed")
	}
	courses, err := s.repo.CountCoursesByStatus(ctx, nil)
	if err != nil {
		return fail(err, "count_courses_failed")
	}
	enrollments, err := s.repo.CountEnrollmentsByStatus(ctx, nil)
	if err != nil {
		return fail(err, "count_enrollments_failed")
	}
	revenue, err := s.repo.TotalRevenue(ctx)
	if err != nil {
		return fail(err, "total_revenue_failed")
	}
	certificates, err := s.repo.CountCertificates(ctx)
	if err != nil {
		return fail(err, "count_certificates_failed")
	}
	signups, err := s.repo.UserSignupsSince(ctx, since)
	if err != nil {
		return fail(err, "signups_failed")
	}
	enrolled, err := s.repo.EnrollmentsSince(ctx, since, nil)
	if err != nil {
		return fail(err, "enrollments_since_failed")
	}
	payments, err := s.repo.RevenueSince(ctx, since)
	if err != nil {
		return fail(err, "revenue_since_failed")
	}
	top, err := s.repo.TopCourses(ctx, topCoursesLimit)
	if err != nil {
		return fail(err, "top_courses_failed")
	}

	response = dto.PlatformAnalyticsResponse{
		Timeframe: timeframe,
		Stats: dto.PlatformStats{
			TotalStudents:      roles[models.RoleStudent],
			TotalInstructors:   roles[models.RoleInstructor],
			TotalCourses:       sumCounts(courses),
			TotalEnrollments:   sumCounts(enrollments),
			TotalRevenue:       roundTo(revenue, 2),
			CertificatesIssued: certificates,
			NewUsers:           int64(len(signups)),
			NewEnrollments:     int64(len(enrolled)),
		},
		Charts: dto.PlatformCharts{
			DailyRegistrations: dailySeries(signups, since, until),
			DailyEnrollments:   dailySeries(enrolled, since, until),
			MonthlyRevenue:     monthlySeries(payments, since, until),
		},
		TopCourses: courseMetrics(top),
	}

	s.writeCache(ctx, cacheKey, response)
	return response, nil
}

// Instructor reports on the caller's own courses. Admins name the instructor explicitly.
func (s *analyticsService) Instructor(ctx context.Context, actor ActivityActor, req dto.AnalyticsRequest) (dto.InstructorAnalyticsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.InstructorAnalyticsResponse{}, err
	}

	instructorID := actor.ID
	switch {
	case actor.IsAdmin():
		if req.InstructorID == 0 {
			return dto.InstructorAnalyticsResponse{}, ErrInstructorIDRequired
		}
		instructorID = req.InstructorID
	case actor.Role != models.RoleInstructor:
		return dto.InstructorAnalyticsResponse{}, ErrForbidden
	}

	timeframe, since, until := s.window(req.Timeframe)
	cacheKey := fmt.Sprintf("analytics:instructor:%d:%s", instructorID, timeframe)

	ctx, span := s.tracer.Start(ctx, "analytics.instructor", trace.WithAttributes(
		attribute.Int("analytics.instructor_id", int(instructorID)),
		attribute.String("analytics.timeframe", timeframe),
	))
	defer span.End()

	var response dto.InstructorAnalyticsResponse
	if s.readCache(ctx, cacheKey, &response) {
		span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
		return response, nil
	}

	statuses, err := s.repo.CountCoursesByStatus(ctx, &instructorID)
	if err != nil {
		span.RecordError(err)
		return dto.InstructorAnalyticsResponse{}, err
	}
	metrics, err := s.repo.InstructorCourses(ctx, instructorID)
	if err != nil {
		span.RecordError(err)
		return dto.InstructorAnalyticsResponse{}, err
	}
	students, err := s.repo.CountDistinctStudents(ctx, instructorID)
	if err != nil {
		span.RecordError(err)
		return dto.InstructorAnalyticsResponse{}, err
	}
	enrolled, err := s.repo.EnrollmentsSince(ctx, since, &instructorID)
	if err != nil {
		span.RecordError(err)
		return dto.InstructorAnalyticsResponse{}, err
	}
	earnings, err := s.repo.InstructorRevenueSince(ctx, instructorID, since)
	if err != nil {
		span.RecordError(err)
		return dto.InstructorAnalyticsResponse{}, err
	}

	var revenue, ratingSum float64
	rated := 0
	for _, metric := range metrics {
		revenue += metric.Revenue
		if metric.ReviewsCount > 0 {
			ratingSum += metric.Rating
			rated++
		}
	}
	average := 0.0
	if rated > 0 {
		average = roundTo(ratingSum/float64(rated), 2)
	}

	response = dto.InstructorAnalyticsResponse{
		InstructorID: instructorID,
		Timeframe:    timeframe,
		Stats: dto.InstructorStats{
			TotalCourses:     sumCounts(statuses),
			PublishedCourses: statuses[models.CourseStatusPublished],
			DraftCourses:     statuses[models.CourseStatusDraft],
			TotalStudents:    students,
			AverageRating:    average,
			TotalRevenue:     roundTo(revenue, 2),
		},
		Courses:          courseMetrics(metrics),
		DailyEnrollments: dailySeries(enrolled, since, until),
		MonthlyEarnings:  monthlySeries(earnings, since, until),
	}

	s.writeCache(ctx, cacheKey, response)
	return response, nil
}

func (s *analyticsService) Student(ctx context.Context, userID uint, req dto.AnalyticsRequest) (dto.StudentAnalyticsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentAnalyticsResponse{}, err
	}
	_, since, until := s.window(req.Timeframe)

	enrollments, err := s.enrollments.ListByUser(ctx, userID, models.EnrollmentStatusActive, models.EnrollmentStatusCompleted)
	if err != nil {
		return dto.StudentAnalyticsResponse{}, err
	}
	ids := make([]uint, 0, len(enrollments))
	for _, enrollment := range enrollments {
		ids = append(ids, enrollment.CourseID)
	}
	counts, err := s.progress.CountsForCourses(ctx, userID, ids)
	if err != nil {
		return dto.StudentAnalyticsResponse{}, err
	}
	rows, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return dto.StudentAnalyticsResponse{}, err
	}
	certificates, err := s.certificates.CountByUser(ctx, userID)
	if err != nil {
		return dto.StudentAnalyticsResponse{}, err
	}

	response := dto.StudentAnalyticsResponse{
		Stats:          dto.StudentStats{EnrolledCourses: len(enrollments), CertificatesEarned: certificates},
		CourseProgress: make([]dto.StudentCourseProgress, 0, len(enrollments)),
	}

	percentSum := 0
	for _, enrollment := range enrollments {
		courseCounts := counts[enrollment.CourseID]
		summary := dto.NewCourseProgressSummary(courseCounts)
		percentSum += summary.ProgressPercentage
		if courseCounts.IsComplete() {
			response.Stats.CompletedCourses++
		} else {
			response.Stats.InProgressCourses++
		}
		response.CourseProgress = append(response.CourseProgress, dto.StudentCourseProgress{
			CourseID:              enrollment.CourseID,
			Title:                 enrollment.Course.Title,
			CourseProgressSummary: summary,
		})
	}
	if len(enrollments) > 0 {
		response.Stats.AverageProgress = roundTo(float64(percentSum)/float64(len(enrollments)), 2)
	}

	completions := make([]time.Time, 0, len(rows))
	for _, row := range rows {
		response.Stats.TotalLearningTime += int64(row.TimeSpent)
		if row.Completed && row.CompletedAt != nil && !row.CompletedAt.Before(since) {
			completions = append(completions, *row.CompletedAt)
		}
	}
	response.LearningActivity = dailySeries(completions, since, until)
	return response, nil
}

// Course reports enrollment and completion for a single course to its owner or an admin.
func (s *analyticsService) Course(ctx context.Context, actor ActivityActor, courseID uint) (dto.CourseAnalyticsResponse, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return dto.CourseAnalyticsResponse{}, mapCourseError(err)
	}
	if !canManageCourse(actor, course) {
		return dto.CourseAnalyticsResponse{}, ErrNotCourseOwner
	}

	metric, err := s.repo.CourseMetric(ctx, courseID)
	if err != nil {
		return dto.CourseAnalyticsResponse{}, mapCourseError(err)
	}
	byStatus, err := s.repo.CountEnrollmentsByStatus(ctx, &courseID)
	if err != nil {
		return dto.CourseAnalyticsResponse{}, err
	}
	byType, err := s.repo.CountEnrollmentsByType(ctx, courseID)
	if err != nil {
		return dto.CourseAnalyticsResponse{}, err
	}
	lessons, err := s.repo.CountLessons(ctx, courseID)
	if err != nil {
		return dto.CourseAnalyticsResponse{}, err
	}
	tallies, err := s.repo.CompletedLessonsPerUser(ctx, courseID)
	if err != nil {
		return dto.CourseAnalyticsResponse{}, err
	}

	response := dto.CourseAnalyticsResponse{
		Course: courseMetric(metric),
		Enrollments: dto.CourseEnrollmentBreakdown{
			Total:     sumCounts(byStatus),
			Free:      byType[models.EnrollmentTypeFree],
			Paid:      byType[models.EnrollmentTypePaid],
			Pending:   byStatus[models.EnrollmentStatusPending],
			Active:    byStatus[models.EnrollmentStatusActive],
			Completed: byStatus[models.EnrollmentStatusCompleted],
			Cancelled: byStatus[models.EnrollmentStatusCancelled],
		},
		TotalLessons: lessons,
	}

	learners := byStatus[models.EnrollmentStatusActive] + byStatus[models.EnrollmentStatusCompleted]
	if lessons > 0 && learners > 0 {
		var ratioSum float64
		for _, tally := range tallies {
			completed := tally.Completed
			if completed > lessons {
				completed = lessons
			}
			ratioSum += float64(completed) / float64(lessons)
			if completed == lessons {
				response.StudentsFinished++
			}
		}
		response.AverageCompletion = roundTo(ratioSum/float64(learners)*100, 2)
	}
	return response, nil
}

// window resolves a timeframe into a UTC range that starts at midnight.
func (s *analyticsService) window(timeframe string) (string, time.Time, time.Time) {
	days, ok := timeframeDays[timeframe]
	if !ok {
		timeframe = defaultTimeframe
		days = timeframeDays[defaultTimeframe]
	}
	until := s.now().UTC()
	start := until.AddDate(0, 0, -(days - 1))
	since := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	return timeframe, since, until
}

func (s *analyticsService) readCache(ctx context.Context, key string, target interface{}) bool {
	if s.cache == nil {
		return false
	}
	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read analytics cache")
		}
		return false
	}
	return json.Unmarshal([]byte(cached), target) == nil
}

func (s *analyticsService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store analytics cache")
	}
}

// dailySeries buckets timestamps per UTC day, including empty days.
func dailySeries(stamps []time.Time, since, until time.Time) []dto.CountPoint {
	buckets := make(map[string]int64, len(stamps))
	for _, stamp := range stamps {
		buckets[stamp.UTC().Format(dashboardDateLayout)]++
	}

	out := make([]dto.CountPoint, 0)
	for day := since; !day.After(until); day = day.AddDate(0, 0, 1) {
		key := day.Format(dashboardDateLayout)
		out = append(out, dto.CountPoint{Date: key, Count: buckets[key]})
	}
	return out
}

// monthlySeries sums amounts per UTC calendar month, including empty months.
func monthlySeries(points []repository.RevenuePoint, since, until time.Time) []dto.AmountPoint {
	buckets := make(map[string]float64)
	for _, point := range points {
		if point.CompletedAt == nil {
			continue
		}
		buckets[point.CompletedAt.UTC().Format(monthLayout)] += point.Amount
	}

	out := make([]dto.AmountPoint, 0)
	month := time.Date(since.Year(), since.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !month.After(until) {
		key := month.Format(monthLayout)
		out = append(out, dto.AmountPoint{Month: key, Amount: roundTo(buckets[key], 2)})
		month = month.AddDate(0, 1, 0)
	}
	return out
}

func sumCounts(counts map[string]int64) int64 {
	var total int64
	for _, count := range counts {
		total += count
	}
	return total
}

func courseMetric(metric repository.CourseMetric) dto.CourseMetricResponse {
	return dto.CourseMetricResponse{
		CourseID:     metric.CourseID,
		Title:        metric.Title,
		Status:       metric.Status,
		Rating:       metric.Rating,
		ReviewsCount: metric.ReviewsCount,
		Enrollments:  metric.Enrollments,
		Completions:  metric.Completions,
		Revenue:      roundTo(metric.Revenue, 2),
	}
}

func courseMetrics(metrics []repository.CourseMetric) []dto.CourseMetricResponse {
	out := make([]dto.CourseMetricResponse, 0, len(metrics))
	for _, metric := range metrics {
		out = append(out, courseMetric(metric))
	}
	return out
}
