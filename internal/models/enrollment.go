package models

import "time"

const (
	EnrollmentStatusPending   = "pending"
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
	EnrollmentStatusCancelled = "cancelled"
)

const (
	EnrollmentTypeFree = "free"
	EnrollmentTypePaid = "paid"
)

// Enrollment is the (user, course) relationship. At most one row exists per pair.
type Enrollment struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"uniqueIndex:idx_enrollments_user_course;not null" json:"user_id"`
	CourseID       uint       `gorm:"uniqueIndex:idx_enrollments_user_course;index;not null" json:"course_id"`
	Course         Course     `gorm:"constraint:OnDelete:CASCADE" json:"course"`
	Status         string     `gorm:"size:32;not null;index" json:"status"`
	EnrollmentType string     `gorm:"size:16;not null" json:"enrollment_type"`
	PaymentID      *uint      `gorm:"index" json:"payment_id,omitempty"`
	EnrolledAt     time.Time  `gorm:"not null" json:"enrolled_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsActive reports whether the enrollment grants access to course content.
func (e Enrollment) IsActive() bool {
	return e.Status == EnrollmentStatusActive
}
