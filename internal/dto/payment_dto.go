package dto

import (
	"time"

	"github.com/noah-isme/learnhub-api/internal/models"
)

// CreateIntentRequest starts a checkout for one or more courses.
type CreateIntentRequest struct {
	CourseIDs []uint `json:"course_ids" validate:"required,min=1,max=20,dive,gt=0"`
}

// ConfirmPaymentRequest completes a checkout after the provider reports success.
type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required,max=128"`
}

// PaymentCourse is one course covered by a payment.
type PaymentCourse struct {
	CourseID uint    `json:"course_id"`
	Title    string  `json:"title"`
	Amount   float64 `json:"amount"`
}

// PaymentIntentResponse hands the client what it needs to finish checkout with the provider.
type PaymentIntentResponse struct {
	PaymentID       uint            `json:"payment_id"`
	PaymentIntentID string          `json:"payment_intent_id"`
	ClientSecret    string          `json:"client_secret"`
	Amount          float64         `json:"amount"`
	Currency        string          `json:"currency"`
	Status          string          `json:"status"`
	Courses         []PaymentCourse `json:"courses"`
}

// PaymentResponse serializes a stored payment.
type PaymentResponse struct {
	ID              uint            `json:"id"`
	PaymentIntentID string          `json:"payment_intent_id"`
	Amount          float64         `json:"amount"`
	Currency        string          `json:"currency"`
	Status          string          `json:"status"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	Courses         []PaymentCourse `json:"courses"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// PaymentConfirmResponse lists the courses activated by a confirmation.
type PaymentConfirmResponse struct {
	Payment         PaymentResponse `json:"payment"`
	EnrolledCourses []uint          `json:"enrolled_courses"`
}

// NewPaymentResponse converts a payment with its preloaded items.
func NewPaymentResponse(payment models.Payment) PaymentResponse {
	courses := make([]PaymentCourse, 0, len(payment.Items))
	for _, item := range payment.Items {
		courses = append(courses, PaymentCourse{CourseID: item.CourseID, Title: item.Course.Title, Amount: item.Amount})
	}
	return PaymentResponse{
		ID:              payment.ID,
		PaymentIntentID: payment.ExternalID,
		Amount:          payment.Amount,
		Currency:        payment.Currency,
		Status:          payment.Status,
		PaymentMethod:   payment.PaymentMethod,
		Courses:         courses,
		CompletedAt:     payment.CompletedAt,
		CreatedAt:       payment.CreatedAt,
	}
}
