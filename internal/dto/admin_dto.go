package dto

import (
	"time"

	"github.com/noah-isme/learnhub-api/internal/models"
)

// AdminUserListRequest defines filters for listing accounts.
type AdminUserListRequest struct {
	Role   string `query:"role" validate:"omitempty,oneof=student instructor admin"`
	Search string `query:"search" validate:"omitempty,max=100"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

// AdminUserResponse adds enrollment totals to the user view.
type AdminUserResponse struct {
	UserResponse
	EnrollmentCount int64 `json:"enrollment_count"`
}

// UserStatusRequest activates or deactivates an account.
type UserStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// AdminActivityListRequest filters the audit trail.
type AdminActivityListRequest struct {
	ActorID    uint   `query:"actor_id"`
	Action     string `query:"action" validate:"omitempty,max=64"`
	EntityType string `query:"entity_type" validate:"omitempty,max=64"`
	Since      *time.Time
	Limit      int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset     int    `query:"offset" validate:"omitempty,min=0"`
}

// AdminActivityResponse serializes one audit entry.
type AdminActivityResponse struct {
	ID            uint                   `json:"id"`
	ActorID       uint                   `json:"actor_id"`
	ActorRole     string                 `json:"actor_role"`
	Action        string                 `json:"action"`
	EntityType    string                 `json:"entity_type"`
	EntityID      *uint                  `json:"entity_id,omitempty"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Metadata      map[string]interface{} `json:"metadata"`
	CreatedAt     time.Time              `json:"created_at"`
}

// SeedResult reports what a catalog seed run touched.
type SeedResult struct {
	Instructors int `json:"instructors"`
	Courses     int `json:"courses"`
	Lessons     int `json:"lessons"`
}

// NewAdminActivityResponse converts an activity log entry.
func NewAdminActivityResponse(entry models.ActivityLog) AdminActivityResponse {
	metadata := map[string]interface{}{}
	for key, value := range entry.Metadata {
		metadata[key] = value
	}
	return AdminActivityResponse{
		ID:            entry.ID,
		ActorID:       entry.ActorID,
		ActorRole:     entry.ActorRole,
		Action:        entry.Action,
		EntityType:    entry.EntityType,
		EntityID:      entry.EntityID,
		CorrelationID: entry.CorrelationID,
		Metadata:      metadata,
		CreatedAt:     entry.CreatedAt,
	}
}
