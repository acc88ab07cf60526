package dto

import (
	"time"

	"github.com/noah-isme/learnhub-api/internal/models"
)

// EnrollRequest asks for access to a course.
type EnrollRequest struct {
	CourseID uint `json:"course_id" validate:"required,gt=0"`
}

// EnrollmentResponse serializes an enrollment row.
type EnrollmentResponse struct {
	ID             uint       `json:"id"`
	CourseID       uint       `json:"course_id"`
	Status         string     `json:"status"`
	EnrollmentType string     `json:"enrollment_type"`
	PaymentID      *uint      `json:"payment_id,omitempty"`
	EnrolledAt     time.Time  `json:"enrolled_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// EnrollResult is returned by enrollment; paid courses come back pending with a payment hint.
type EnrollResult struct {
	Enrollment      EnrollmentResponse `json:"enrollment"`
	RequiresPayment bool               `json:"requires_payment"`
}

// CourseProgressSummary is the lesson tally for a course.
type CourseProgressSummary struct {
	TotalLessons       int64 `json:"total_lessons"`
	CompletedLessons   int64 `json:"completed_lessons"`
	ProgressPercentage int   `json:"progress_percentage"`
}

// MyCourseResponse is an active enrollment together with course and progress.
type MyCourseResponse struct {
	Enrollment EnrollmentResponse    `json:"enrollment"`
	Course     CourseSummary         `json:"course"`
	Progress   CourseProgressSummary `json:"progress"`
}

// EnrollmentStatusResponse tells a client whether the caller can open a course.
type EnrollmentStatusResponse struct {
	Enrolled       bool   `json:"enrolled"`
	Status         string `json:"status,omitempty"`
	EnrollmentType string `json:"enrollment_type,omitempty"`
	Progress       int    `json:"progress"`
}

// LessonProgressRequest records work on a lesson. Completed defaults to true.
type LessonProgressRequest struct {
	Completed *bool `json:"completed"`
	TimeSpent int   `json:"time_spent" validate:"gte=0,lte=86400"`
}

// CourseLessonProgressRequest is the course-addressed form of LessonProgressRequest.
type CourseLessonProgressRequest struct {
	CourseID  uint  `json:"course_id" validate:"required,gt=0"`
	LessonID  uint  `json:"lesson_id" validate:"required,gt=0"`
	Completed *bool `json:"completed"`
	TimeSpent int   `json:"time_spent" validate:"gte=0,lte=86400"`
}

// LessonProgressResponse serializes a stored progress row.
type LessonProgressResponse struct {
	ID          uint       `json:"id"`
	CourseID    uint       `json:"course_id"`
	LessonID    uint       `json:"lesson_id"`
	Completed   bool       `json:"completed"`
	TimeSpent   int        `json:"time_spent"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ProgressUpdateResponse pairs the stored row with the recomputed course tally.
type ProgressUpdateResponse struct {
	Progress        LessonProgressResponse `json:"progress"`
	CourseProgress  CourseProgressSummary  `json:"course_progress"`
	CourseCompleted bool                   `json:"course_completed"`
}

// LessonProgressItem is one lesson of a course progress report.
type LessonProgressItem struct {
	LessonID        uint       `json:"lesson_id"`
	LessonTitle     string     `json:"lesson_title"`
	LessonType      string     `json:"lesson_type"`
	ModuleID        uint       `json:"module_id"`
	ModuleTitle     string     `json:"module_title"`
	DurationMinutes int        `json:"duration_minutes"`
	Completed       bool       `json:"completed"`
	TimeSpent       int        `json:"time_spent"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// CourseProgressResponse lists every lesson of a course with the caller's progress.
type CourseProgressResponse struct {
	CourseID uint `json:"course_id"`
	CourseProgressSummary
	TotalTimeSpent int                  `json:"total_time_spent"`
	Lessons        []LessonProgressItem `json:"lessons"`
}

// NoteCreateRequest pins a note to a lesson.
type NoteCreateRequest struct {
	Content   string `json:"content" validate:"required,min=1,max=5000"`
	Timestamp int    `json:"timestamp" validate:"gte=0,lte=86400"`
}

// CourseNoteCreateRequest is the course-addressed form of NoteCreateRequest.
type CourseNoteCreateRequest struct {
	CourseID  uint   `json:"course_id" validate:"required,gt=0"`
	LessonID  uint   `json:"lesson_id" validate:"required,gt=0"`
	Content   string `json:"content" validate:"required,min=1,max=5000"`
	Timestamp int    `json:"timestamp" validate:"gte=0,lte=86400"`
}

// NoteResponse serializes a lesson note.
type NoteResponse struct {
	ID        uint      `json:"id"`
	CourseID  uint      `json:"course_id"`
	LessonID  uint      `json:"lesson_id"`
	Content   string    `json:"content"`
	Timestamp int       `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardResponse aggregates a learner's home page.
type DashboardResponse struct {
	EnrolledCourses    []DashboardCourse    `json:"enrolled_courses"`
	Stats              DashboardStats       `json:"stats"`
	RecentActivity     []RecentActivityItem `json:"recent_activity"`
	RecommendedCourses []CourseSummary      `json:"recommended_courses"`
}

// DashboardCourse is one enrolled course on the dashboard.
type DashboardCourse struct {
	Course       CourseSummary         `json:"course"`
	Status       string                `json:"status"`
	EnrolledAt   time.Time             `json:"enrolled_at"`
	Progress     CourseProgressSummary `json:"progress"`
	LastActivity *time.Time            `json:"last_activity,omitempty"`
}

// DashboardStats summarises learning totals. Learning time is in seconds.
type DashboardStats struct {
	TotalEnrolled      int   `json:"total_enrolled"`
	CompletedCourses   int   `json:"completed_courses"`
	TotalLearningTime  int64 `json:"total_learning_time"`
	CertificatesEarned int64 `json:"certificates_earned"`
}

// RecentActivityItem is a recent lesson completion.
type RecentActivityItem struct {
	LessonID    uint       `json:"lesson_id"`
	LessonTitle string     `json:"lesson_title"`
	CourseID    uint       `json:"course_id"`
	CourseTitle string     `json:"course_title"`
	CompletedAt *time.Time `json:"completed_at"`
}

// StreakResponse counts consecutive days with at least one completed lesson.
type StreakResponse struct {
	CurrentStreak    int    `json:"current_streak"`
	ActiveToday      bool   `json:"active_today"`
	LastActivityDate string `json:"last_activity_date,omitempty"`
}

// NewEnrollmentResponse converts an enrollment model.
func NewEnrollmentResponse(enrollment models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:             enrollment.ID,
		CourseID:       enrollment.CourseID,
		Status:         enrollment.Status,
		EnrollmentType: enrollment.EnrollmentType,
		PaymentID:      enrollment.PaymentID,
		EnrolledAt:     enrollment.EnrolledAt,
		CompletedAt:    enrollment.CompletedAt,
	}
}

// NewCourseProgressSummary converts lesson counts.
func NewCourseProgressSummary(counts models.ProgressCounts) CourseProgressSummary {
	return CourseProgressSummary{
		TotalLessons:       counts.Total,
		CompletedLessons:   counts.Completed,
		ProgressPercentage: counts.Percentage(),
	}
}

// NewLessonProgressResponse converts a progress row.
func NewLessonProgressResponse(progress models.LessonProgress) LessonProgressResponse {
	return LessonProgressResponse{
		ID:          progress.ID,
		CourseID:    progress.CourseID,
		LessonID:    progress.LessonID,
		Completed:   progress.Completed,
		TimeSpent:   progress.TimeSpent,
		CompletedAt: progress.CompletedAt,
		UpdatedAt:   progress.UpdatedAt,
	}
}

// NewNoteResponse converts a note model.
func NewNoteResponse(note models.LessonNote) NoteResponse {
	return NoteResponse{
		ID:        note.ID,
		CourseID:  note.CourseID,
		LessonID:  note.LessonID,
		Content:   note.Content,
		Timestamp: note.Timestamp,
		CreatedAt: note.CreatedAt,
	}
}

// NewNoteResponses converts a slice of notes.
func NewNoteResponses(notes []models.LessonNote) []NoteResponse {
	out := make([]NoteResponse, 0, len(notes))
	for _, note := range notes {
		out = append(out, NewNoteResponse(note))
	}
	return out
}
