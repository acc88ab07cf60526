package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	NotificationCourseEnrollment   = "course_enrollment"
	NotificationCourseCompletion   = "course_completion"
	NotificationCertificateEarned  = "certificate_earned"
	NotificationNewCourse          = "new_course"
	NotificationCourseUpdate       = "course_update"
	NotificationPaymentSuccess     = "payment_success"
	NotificationPaymentFailed      = "payment_failed"
	NotificationSystemAnnouncement = "system_announcement"
)

// Notification is an in-app message targeted to a specific user.
type Notification struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"index;not null" json:"user_id"`
	Type      string            `gorm:"size:64;not null" json:"type"`
	Title     string            `gorm:"size:255;not null" json:"title"`
	Message   string            `gorm:"type:text" json:"message"`
	Data      datatypes.JSONMap `gorm:"type:json" json:"data"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
