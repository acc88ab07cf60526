package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/repository"
)

func newTestDashboardService(t *testing.T, db *gorm.DB, cache *redis.Client) *dashboardService {
	t.Helper()
	return NewDashboardService(
		repository.NewCourseRepository(db),
		repository.NewEnrollmentRepository(db),
		repository.NewProgressRepository(db),
		repository.NewCertificateRepository(db),
		cache,
		time.Minute,
		testLogger(),
	).(*dashboardService)
}

func completeLesson(t *testing.T, db *gorm.DB, userID, courseID, lessonID uint, at time.Time, spent int) {
	t.Helper()
	row := models.LessonProgress{
		UserID:      userID,
		CourseID:    courseID,
		LessonID:    lessonID,
		Completed:   true,
		TimeSpent:   spent,
		CompletedAt: &at,
	}
	require.NoError(t, db.Create(&row).Error)
}

func TestDashboardOverviewAggregatesAndCaches(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	db := setupServiceDB(t)
	svc := newTestDashboardService(t, db, cache)
	ctx := context.Background()

	instructor := createUser(t, db, "teach@example.com", models.RoleInstructor)
	student := createUser(t, db, "learn@example.com", models.RoleStudent)
	finished := createCourse(t, db, instructor.ID, "Finished", 0, models.CourseStatusPublished)
	started := createCourse(t, db, instructor.ID, "Started", 0, models.CourseStatusPublished)
	suggested := createCourse(t, db, instructor.ID, "Suggested", 0, models.CourseStatusPublished)
	createCourse(t, db, instructor.ID, "Hidden Draft", 0, models.CourseStatusDraft)

	finishedLessons := createLessons(t, db, finished.ID, 2)
	startedLessons := createLessons(t, db, started.ID, 4)
	createEnrollment(t, db, student.ID, finished.ID, models.EnrollmentStatusActive)
	createEnrollment(t, db, student.ID, started.ID, models.EnrollmentStatusActive)

	base := time.Now().UTC().Add(-2 * time.Hour)
	completeLesson(t, db, student.ID, finished.ID, finishedLessons[0], base, 300)
	completeLesson(t, db, student.ID, finished.ID, finishedLessons[1], base.Add(time.Minute), 200)
	completeLesson(t, db, student.ID, started.ID, startedLessons[0], base.Add(time.Hour), 100)

	overview, err := svc.Overview(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, 2, overview.Stats.TotalEnrolled)
	require.Equal(t, 1, overview.Stats.CompletedCourses)
	require.Equal(t, int64(600), overview.Stats.TotalLearningTime)
	require.Equal(t, int64(0), overview.Stats.CertificatesEarned)
	require.Len(t, overview.RecentActivity, 3)
	require.Equal(t, started.ID, overview.RecentActivity[0].CourseID)

	require.Equal(t, started.ID, overview.EnrolledCourses[0].Course.ID, "most recent activity first")
	require.Equal(t, 25, overview.EnrolledCourses[0].Progress.ProgressPercentage)
	require.NotNil(t, overview.EnrolledCourses[0].LastActivity)

	require.Len(t, overview.RecommendedCourses, 1)
	require.Equal(t, suggested.ID, overview.RecommendedCourses[0].ID)

	require.True(t, mr.Exists(fmt.Sprintf("dashboard:user:%d", student.ID)))

	completeLesson(t, db, student.ID, started.ID, startedLessons[1], base.Add(90*time.Minute), 50)
	cached, err := svc.Overview(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, int64(600), cached.Stats.TotalLearningTime, "served from cache within the ttl")
}

func TestDashboardStreakCountsConsecutiveDaysEndingToday(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestDashboardService(t, db, nil)
	ctx := context.Background()

	instructor := createUser(t, db, "teach@example.com", models.RoleInstructor)
	student := createUser(t, db, "learn@example.com", models.RoleStudent)
	course := createCourse(t, db, instructor.ID, "Daily", 0, models.CourseStatusPublished)
	lessons := createLessons(t, db, course.ID, 5)

	today := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	svc.now = fixedClock(today)

	empty, err := svc.Streak(ctx, student.ID)
	require.NoError(t, err)
	require.Zero(t, empty.CurrentStreak)
	require.False(t, empty.ActiveToday)
	require.Empty(t, empty.LastActivityDate)

	completeLesson(t, db, student.ID, course.ID, lessons[0], today.AddDate(0, 0, -4), 10)
	completeLesson(t, db, student.ID, course.ID, lessons[1], today.AddDate(0, 0, -2), 10)
	completeLesson(t, db, student.ID, course.ID, lessons[2], today.AddDate(0, 0, -1), 10)

	stale, err := svc.Streak(ctx, student.ID)
	require.NoError(t, err)
	require.Zero(t, stale.CurrentStreak, "no completion today breaks the streak")
	require.Equal(t, "2026-03-09", stale.LastActivityDate)

	completeLesson(t, db, student.ID, course.ID, lessons[3], today.Add(-time.Hour), 10)
	completeLesson(t, db, student.ID, course.ID, lessons[4], today.Add(-2*time.Hour), 10)

	streak, err := svc.Streak(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, 3, streak.CurrentStreak)
	require.True(t, streak.ActiveToday)
	require.Equal(t, "2026-03-10", streak.LastActivityDate)
}
