package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	CourseStatusDraft     = "draft"
	CourseStatusPublished = "published"
	CourseStatusArchived  = "archived"
)

const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

const (
	LessonTypeVideo      = "video"
	LessonTypeText       = "text"
	LessonTypeQuiz       = "quiz"
	LessonTypeAssignment = "assignment"
	LessonTypeResource   = "resource"
)

// Course is a unit of sale owned by an instructor. Rating and ReviewsCount are
// derived from the course's reviews and are only written by review mutations.
type Course struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	InstructorID     uint           `gorm:"index;not null" json:"instructor_id"`
	Instructor       User           `json:"instructor"`
	Title            string         `gorm:"size:255;not null" json:"title"`
	Description      string         `gorm:"type:text" json:"description"`
	ShortDescription string         `gorm:"size:500" json:"short_description"`
	Category         string         `gorm:"size:100;index" json:"category"`
	Level            string         `gorm:"size:32" json:"level"`
	Price            float64        `gorm:"not null" json:"price"`
	Currency         string         `gorm:"size:8" json:"currency"`
	Status           string         `gorm:"size:32;not null;index" json:"status"`
	ImageURL         string         `gorm:"size:512" json:"image_url"`
	DurationHours    float64        `json:"duration_hours"`
	LearningOutcomes datatypes.JSON `json:"learning_outcomes"`
	Requirements     datatypes.JSON `json:"requirements"`
	Rating           float64        `gorm:"not null" json:"rating"`
	ReviewsCount     int64          `gorm:"not null" json:"reviews_count"`
	Modules          []CourseModule `gorm:"constraint:OnDelete:CASCADE" json:"modules,omitempty"`
	PublishedAt      *time.Time     `json:"published_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// IsPublished reports whether the course is visible in the catalog.
func (c Course) IsPublished() bool {
	return c.Status == CourseStatusPublished
}

// IsFree reports whether enrollment requires no payment.
func (c Course) IsFree() bool {
	return c.Price <= 0
}

// CourseModule groups lessons inside a course.
type CourseModule struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CourseID    uint           `gorm:"index;not null" json:"course_id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	OrderIndex  int            `gorm:"not null" json:"order_index"`
	Lessons     []CourseLesson `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CourseLesson is a single item of course content.
type CourseLesson struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ModuleID        uint      `gorm:"index;not null" json:"module_id"`
	Title           string    `gorm:"size:255;not null" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	LessonType      string    `gorm:"size:32;not null" json:"lesson_type"`
	ContentURL      string    `gorm:"size:512" json:"content_url"`
	Content         string    `gorm:"type:text" json:"content"`
	DurationMinutes int       `json:"duration_minutes"`
	OrderIndex      int       `gorm:"not null" json:"order_index"`
	IsFree          bool      `gorm:"not null" json:"is_free"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// LessonLocation resolves a lesson to its module and course.
type LessonLocation struct {
	LessonID    uint
	ModuleID    uint
	CourseID    uint
	IsFree      bool
	CourseTitle string
}
