package models

import "time"

// Review is a learner's rating of a course. One per (user, course).
type Review struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"uniqueIndex:idx_reviews_user_course;not null" json:"user_id"`
	CourseID     uint      `gorm:"uniqueIndex:idx_reviews_user_course;index;not null" json:"course_id"`
	User         User      `gorm:"constraint:OnDelete:CASCADE" json:"user"`
	Rating       int       `gorm:"not null" json:"rating"`
	Comment      string    `gorm:"type:text;not null" json:"comment"`
	HelpfulCount int64     `gorm:"not null" json:"helpful_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ReviewHelpful records that a user found a review helpful.
type ReviewHelpful struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReviewID  uint      `gorm:"uniqueIndex:idx_review_helpful_review_user;not null" json:"review_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_review_helpful_review_user;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the table name singular.
func (ReviewHelpful) TableName() string {
	return "review_helpful"
}
