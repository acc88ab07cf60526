package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// User is an account on the platform. Instructors own courses, students enroll in them.
type User struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Email        string       `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string       `gorm:"size:255;not null" json:"-"`
	FirstName    string       `gorm:"size:100;not null" json:"first_name"`
	LastName     string       `gorm:"size:100;not null" json:"last_name"`
	Role         string       `gorm:"size:32;not null;index" json:"role"`
	IsActive     bool         `gorm:"not null" json:"is_active"`
	LastLogin    *time.Time   `json:"last_login,omitempty"`
	Profile      *UserProfile `gorm:"constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// FullName joins the first and last name.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserProfile holds optional personal details and preferences.
type UserProfile struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	UserID            uint              `gorm:"uniqueIndex;not null" json:"user_id"`
	Phone             string            `gorm:"size:32" json:"phone"`
	Country           string            `gorm:"size:64" json:"country"`
	Timezone          string            `gorm:"size:64" json:"timezone"`
	Language          string            `gorm:"size:8" json:"language"`
	SkillLevel        string            `gorm:"size:32" json:"skill_level"`
	LearningGoals     datatypes.JSON    `json:"learning_goals"`
	NotificationPrefs datatypes.JSONMap `gorm:"type:json" json:"notification_preferences"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// UserSession binds an issued access token to a user until it expires or is revoked.
type UserSession struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TokenHash string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
