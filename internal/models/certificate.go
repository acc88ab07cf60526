package models

import "time"

// Certificate attests completion of a course. One per (user, course).
type Certificate struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"uniqueIndex:idx_certificates_user_course;not null" json:"user_id"`
	CourseID          uint      `gorm:"uniqueIndex:idx_certificates_user_course;not null" json:"course_id"`
	Course            Course    `gorm:"constraint:OnDelete:CASCADE" json:"course"`
	User              User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CertificateNumber string    `gorm:"size:64;uniqueIndex;not null" json:"certificate_number"`
	IssuedAt          time.Time `gorm:"not null" json:"issued_at"`
	CreatedAt         time.Time `json:"created_at"`
}
