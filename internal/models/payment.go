package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment records a checkout for one or more courses against an external provider.
type Payment struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	UserID        uint              `gorm:"index;not null" json:"user_id"`
	ExternalID    string            `gorm:"size:128;uniqueIndex;not null" json:"external_id"`
	Amount        float64           `gorm:"not null" json:"amount"`
	Currency      string            `gorm:"size:8;not null" json:"currency"`
	Status        string            `gorm:"size:32;not null;index" json:"status"`
	PaymentMethod string            `gorm:"size:32" json:"payment_method"`
	Metadata      datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	Items         []PaymentItem     `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// PaymentItem ties a payment to one of the courses it covers.
type PaymentItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	PaymentID uint    `gorm:"index;not null" json:"payment_id"`
	CourseID  uint    `gorm:"index;not null" json:"course_id"`
	Course    Course  `json:"course"`
	Amount    float64 `gorm:"not null" json:"amount"`
}
