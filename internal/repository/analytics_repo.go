package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/learnhub-api/internal/models"
)

// CourseMetric summarises enrollment, revenue and completion for one course.
type CourseMetric struct {
	CourseID     uint    `json:"course_id"`
	Title        string  `json:"title"`
	Status       string  `json:"status"`
	Rating       float64 `json:"rating"`
	ReviewsCount int64   `json:"reviews_count"`
	Enrollments  int64   `json:"enrollments"`
	Completions  int64   `json:"completions"`
	Revenue      float64 `json:"revenue"`
}

// UserLessonTally is the number of completed lessons per learner in a course.
type UserLessonTally struct {
	UserID    uint
	Completed int64
}

// RevenuePoint is a completed payment reduced to what revenue charts need.
type RevenuePoint struct {
	Amount      float64
	CompletedAt *time.Time
}

// AnalyticsRepository supplies aggregate data for the analytics dashboards.
type AnalyticsRepository interface {
	CountUsersByRole(ctx context.Context) (map[string]int64, error)
	CountCoursesByStatus(ctx context.Context, instructorID *uint) (map[string]int64, error)
	CountEnrollmentsByStatus(ctx context.Context, courseID *uint) (map[string]int64, error)
	CountCertificates(ctx context.Context) (int64, error)
	TotalRevenue(ctx context.Context) (float64, error)
	UserSignupsSince(ctx context.Context, since time.Time) ([]time.Time, error)
	EnrollmentsSince(ctx context.Context, since time.Time, instructorID *uint) ([]time.Time, error)
	RevenueSince(ctx context.Context, since time.Time) ([]RevenuePoint, error)
	InstructorRevenueSince(ctx context.Context, instructorID uint, since time.Time) ([]RevenuePoint, error)
	CountEnrollmentsByType(ctx context.Context, courseID uint) (map[string]int64, error)
	TopCourses(ctx context.Context, limit int) ([]CourseMetric, error)
	InstructorCourses(ctx context.Context, instructorID uint) ([]CourseMetric, error)
	CourseMetric(ctx context.Context, courseID uint) (CourseMetric, error)
	CountDistinctStudents(ctx context.Context, instructorID uint) (int64, error)
	CountLessons(ctx context.Context, courseID uint) (int64, error)
	CompletedLessonsPerUser(ctx context.Context, courseID uint) ([]UserLessonTally, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository constructs the analytics repository.
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

type statusCount struct {
	Bucket string
	Total  int64
}

func toCountMap(rows []statusCount) map[string]int64 {
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Bucket] = row.Total
	}
	return out
}

func (r *analyticsRepository) CountUsersByRole(ctx context.Context) (map[string]int64, error) {
	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("role AS bucket, COUNT(*) AS total").
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}

func (r *analyticsRepository) CountCoursesByStatus(ctx context.Context, instructorID *uint) (map[string]int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{}).Select("status AS bucket, COUNT(*) AS total")
	if instructorID != nil {
		query = query.Where("instructor_id = ?", *instructorID)
	}

	var rows []statusCount
	if err := query.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}

func (r *analyticsRepository) CountEnrollmentsByStatus(ctx context.Context, courseID *uint) (map[string]int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Enrollment{}).Select("status AS bucket, COUNT(*) AS total")
	if courseID != nil {
		query = query.Where("course_id = ?", *courseID)
	}

	var rows []statusCount
	if err := query.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}

func (r *analyticsRepository) CountCertificates(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Certificate{}).Count(&count).Error
	return count, err
}

func (r *analyticsRepository) TotalRevenue(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("status = ?", models.PaymentStatusCompleted).
		Scan(&total).Error
	return total, err
}

func (r *analyticsRepository) UserSignupsSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	var stamps []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Pluck("created_at", &stamps).Error
	return stamps, err
}

func (r *analyticsRepository) EnrollmentsSince(ctx context.Context, since time.Time, instructorID *uint) ([]time.Time, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("enrollments.enrolled_at >= ?", since)
	if instructorID != nil {
		query = query.
			Joins("JOIN courses ON courses.id = enrollments.course_id").
			Where("courses.instructor_id = ?", *instructorID)
	}

	var stamps []time.Time
	err := query.Order("enrollments.enrolled_at ASC").Pluck("enrollments.enrolled_at", &stamps).Error
	return stamps, err
}

func (r *analyticsRepository) RevenueSince(ctx context.Context, since time.Time) ([]RevenuePoint, error) {
	var points []RevenuePoint
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Select("amount, completed_at").
		Where("status = ? AND completed_at >= ?", models.PaymentStatusCompleted, since).
		Order("completed_at ASC").
		Scan(&points).Error
	return points, err
}

// InstructorRevenueSince returns the item amounts of completed payments covering the
// instructor's courses.
func (r *analyticsRepository) InstructorRevenueSince(ctx context.Context, instructorID uint, since time.Time) ([]RevenuePoint, error) {
	var points []RevenuePoint
	err := r.db.WithContext(ctx).
		Table("payment_items AS pi").
		Select("pi.amount AS amount, p.completed_at AS completed_at").
		Joins("JOIN payments p ON p.id = pi.payment_id").
		Joins("JOIN courses c ON c.id = pi.course_id").
		Where("c.instructor_id = ? AND p.status = ? AND p.completed_at >= ?", instructorID, models.PaymentStatusCompleted, since).
		Order("p.completed_at ASC").
		Scan(&points).Error
	return points, err
}

func (r *analyticsRepository) CountEnrollmentsByType(ctx context.Context, courseID uint) (map[string]int64, error) {
	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Select("enrollment_type AS bucket, COUNT(*) AS total").
		Where("course_id = ?", courseID).
		Group("enrollment_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}

func (r *analyticsRepository) courseMetrics(ctx context.Context) *gorm.DB {
	active := []string{models.EnrollmentStatusActive, models.EnrollmentStatusCompleted}
	return r.db.WithContext(ctx).
		Table("courses AS c").
		Select(`c.id AS course_id, c.title AS title, c.status AS status, c.rating AS rating, c.reviews_count AS reviews_count,
			(SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id AND e.status IN ?) AS enrollments,
			(SELECT COUNT(*) FROM certificates ce WHERE ce.course_id = c.id) AS completions,
			(SELECT COALESCE(SUM(pi.amount), 0) FROM payment_items pi JOIN payments p ON p.id = pi.payment_id
				WHERE pi.course_id = c.id AND p.status = ?) AS revenue`,
			active, models.PaymentStatusCompleted)
}

func (r *analyticsRepository) TopCourses(ctx context.Context, limit int) ([]CourseMetric, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	var metrics []CourseMetric
	err := r.courseMetrics(ctx).
		Where("c.status = ?", models.CourseStatusPublished).
		Order("enrollments DESC").
		Order("c.rating DESC").
		Limit(limit).
		Scan(&metrics).Error
	return metrics, err
}

func (r *analyticsRepository) InstructorCourses(ctx context.Context, instructorID uint) ([]CourseMetric, error) {
	var metrics []CourseMetric
	err := r.courseMetrics(ctx).
		Where("c.instructor_id = ?", instructorID).
		Order("enrollments DESC").
		Order("c.id ASC").
		Scan(&metrics).Error
	return metrics, err
}

func (r *analyticsRepository) CourseMetric(ctx context.Context, courseID uint) (CourseMetric, error) {
	var metric CourseMetric
	if err := r.courseMetrics(ctx).Where("c.id = ?", courseID).Scan(&metric).Error; err != nil {
		return CourseMetric{}, err
	}
	if metric.CourseID == 0 {
		return CourseMetric{}, gorm.ErrRecordNotFound
	}
	return metric, nil
}

func (r *analyticsRepository) CountDistinctStudents(ctx context.Context, instructorID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("enrollments AS e").
		Select("COUNT(DISTINCT e.user_id)").
		Joins("JOIN courses c ON c.id = e.course_id").
		Where("c.instructor_id = ?", instructorID).
		Where("e.status IN ?", []string{models.EnrollmentStatusActive, models.EnrollmentStatusCompleted}).
		Scan(&count).Error
	return count, err
}

func (r *analyticsRepository) CountLessons(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("course_lessons AS l").
		Joins("JOIN course_modules m ON m.id = l.module_id").
		Where("m.course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

func (r *analyticsRepository) CompletedLessonsPerUser(ctx context.Context, courseID uint) ([]UserLessonTally, error) {
	var tallies []UserLessonTally
	err := r.db.WithContext(ctx).
		Model(&models.LessonProgress{}).
		Select("user_id, COUNT(*) AS completed").
		Where("course_id = ? AND completed = ?", courseID, true).
		Group("user_id").
		Scan(&tallies).Error
	return tallies, err
}
