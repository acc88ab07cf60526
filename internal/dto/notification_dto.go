package dto

import (
	"time"

	"github.com/noah-isme/learnhub-api/internal/models"
)

// NotificationListRequest pages through the caller's notifications.
type NotificationListRequest struct {
	UnreadOnly bool `query:"unread_only"`
	Limit      int  `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset     int  `query:"offset" validate:"omitempty,min=0"`
}

// NotificationCreateRequest lets an admin notify one or more users.
type NotificationCreateRequest struct {
	UserIDs []uint                 `json:"user_ids" validate:"required,min=1,max=1000,dive,gt=0"`
	Type    string                 `json:"type" validate:"required,oneof=course_enrollment course_completion certificate_earned new_course course_update payment_success payment_failed system_announcement"`
	Title   string                 `json:"title" validate:"required,min=1,max=255"`
	Message string                 `json:"message" validate:"required,min=1,max=2000"`
	Data    map[string]interface{} `json:"data"`
}

// NotificationResponse represents notification data returned to clients.
type NotificationResponse struct {
	ID        uint                   `json:"id"`
	UserID    uint                   `json:"user_id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data"`
	Read      bool                   `json:"read"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// NotificationListMeta carries paging plus the unread badge count.
type NotificationListMeta struct {
	Total       int64 `json:"total"`
	Limit       int   `json:"limit"`
	Offset      int   `json:"offset"`
	UnreadCount int64 `json:"unread_count"`
}

// NewNotificationResponse converts a notification model to DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	data := map[string]interface{}{}
	for key, value := range model.Data {
		data[key] = value
	}
	return NotificationResponse{
		ID:        model.ID,
		UserID:    model.UserID,
		Type:      model.Type,
		Title:     model.Title,
		Message:   model.Message,
		Data:      data,
		Read:      model.ReadAt != nil,
		ReadAt:    model.ReadAt,
		CreatedAt: model.CreatedAt,
	}
}

// NewNotificationResponseSlice converts a slice of models into DTOs.
func NewNotificationResponseSlice(items []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewNotificationResponse(item))
	}
	return out
}
