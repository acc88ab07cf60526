package dto

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/learnhub-api/internal/models"
)

// RegisterRequest is the sign-up payload. Admin accounts cannot be self-registered.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=128,strong_password"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`
	Role      string `json:"role" validate:"omitempty,oneof=student instructor"`
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// ProfileResponse exposes optional profile fields.
type ProfileResponse struct {
	Phone                   string                 `json:"phone"`
	Country                 string                 `json:"country"`
	Timezone                string                 `json:"timezone"`
	Language                string                 `json:"language"`
	SkillLevel              string                 `json:"skill_level"`
	LearningGoals           []string               `json:"learning_goals"`
	NotificationPreferences map[string]interface{} `json:"notification_preferences"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        uint             `json:"id"`
	Email     string           `json:"email"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Role      string           `json:"role"`
	IsActive  bool             `json:"is_active"`
	LastLogin *time.Time       `json:"last_login,omitempty"`
	Profile   *ProfileResponse `json:"profile,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// ProfileUpdateRequest applies a partial update to the user and their profile.
type ProfileUpdateRequest struct {
	FirstName               *string         `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName                *string         `json:"last_name" validate:"omitempty,min=1,max=100"`
	Phone                   *string         `json:"phone" validate:"omitempty,max=32"`
	Country                 *string         `json:"country" validate:"omitempty,max=64"`
	Timezone                *string         `json:"timezone" validate:"omitempty,max=64"`
	Language                *string         `json:"language" validate:"omitempty,oneof=en es fr de zh ja"`
	SkillLevel              *string         `json:"skill_level" validate:"omitempty,oneof=beginner intermediate advanced"`
	LearningGoals           []string        `json:"learning_goals" validate:"omitempty,max=10,dive,min=1,max=200"`
	NotificationPreferences map[string]bool `json:"notification_preferences" validate:"omitempty,max=20"`
}

// NewUserResponse converts a user model.
func NewUserResponse(user models.User) UserResponse {
	resp := UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		IsActive:  user.IsActive,
		LastLogin: user.LastLogin,
		CreatedAt: user.CreatedAt,
	}
	if user.Profile != nil {
		profile := NewProfileResponse(*user.Profile)
		resp.Profile = &profile
	}
	return resp
}

// NewProfileResponse converts a profile model.
func NewProfileResponse(profile models.UserProfile) ProfileResponse {
	prefs := map[string]interface{}{}
	for key, value := range profile.NotificationPrefs {
		prefs[key] = value
	}
	return ProfileResponse{
		Phone:                   profile.Phone,
		Country:                 profile.Country,
		Timezone:                profile.Timezone,
		Language:                profile.Language,
		SkillLevel:              profile.SkillLevel,
		LearningGoals:           StringList(profile.LearningGoals),
		NotificationPreferences: prefs,
	}
}

// StringList decodes a JSON array column, returning an empty slice for null or malformed data.
func StringList(raw datatypes.JSON) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

// JSONList encodes a string slice for a JSON array column.
func JSONList(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	encoded, _ := json.Marshal(values)
	return datatypes.JSON(encoded)
}
