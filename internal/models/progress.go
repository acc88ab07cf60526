package models

import (
	"math"
	"time"
)

// LessonProgress tracks a user's work on a single lesson. TimeSpent accumulates
// across updates and Completed never reverts once set.
type LessonProgress struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"uniqueIndex:idx_lesson_progress_user_course_lesson;not null" json:"user_id"`
	CourseID    uint       `gorm:"uniqueIndex:idx_lesson_progress_user_course_lesson;index;not null" json:"course_id"`
	LessonID    uint       `gorm:"uniqueIndex:idx_lesson_progress_user_course_lesson;not null" json:"lesson_id"`
	Completed   bool       `gorm:"not null" json:"completed"`
	TimeSpent   int        `gorm:"not null" json:"time_spent"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName keeps the table name singular.
func (LessonProgress) TableName() string {
	return "lesson_progress"
}

// LessonNote is a free-form note a learner pins to a moment in a lesson.
type LessonNote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index:idx_lesson_notes_user_lesson;not null" json:"user_id"`
	CourseID  uint      `gorm:"index;not null" json:"course_id"`
	LessonID  uint      `gorm:"index:idx_lesson_notes_user_lesson;not null" json:"lesson_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Timestamp int       `gorm:"column:timestamp_seconds;not null" json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LessonProgressRow is one row of the course lesson set joined with a user's progress.
type LessonProgressRow struct {
	LessonID          uint
	LessonTitle       string
	LessonType        string
	ModuleID          uint
	ModuleTitle       string
	ModuleOrder       int
	LessonOrder       int
	DurationMinutes   int
	Completed         bool
	TimeSpent         int
	CompletedAt       *time.Time
	ProgressUpdatedAt *time.Time
}

// ProgressCounts is the lesson tally for one user in one course.
type ProgressCounts struct {
	CourseID  uint
	Total     int64
	Completed int64
}

// Percentage is the rounded completed share; a course with no lessons reports 0.
func (p ProgressCounts) Percentage() int {
	if p.Total <= 0 {
		return 0
	}
	return int(math.Round(float64(p.Completed) * 100 / float64(p.Total)))
}

// IsComplete reports whether every lesson is done. A course with no lessons is never complete.
func (p ProgressCounts) IsComplete() bool {
	return p.Total > 0 && p.Completed >= p.Total
}
