package dto

import (
	"time"

	"github.com/noah-isme/learnhub-api/internal/models"
)

// GenerateCertificateRequest asks for a certificate of a completed course.
type GenerateCertificateRequest struct {
	CourseID uint `json:"course_id" validate:"required,gt=0"`
}

// CertificateResponse serializes an issued certificate.
type CertificateResponse struct {
	ID                uint      `json:"id"`
	CertificateNumber string    `json:"certificate_number"`
	CourseID          uint      `json:"course_id"`
	CourseTitle       string    `json:"course_title"`
	InstructorName    string    `json:"instructor_name"`
	IssuedAt          time.Time `json:"issued_at"`
}

// CertificateVerificationResponse is the public proof of a certificate number.
type CertificateVerificationResponse struct {
	Valid             bool      `json:"valid"`
	CertificateNumber string    `json:"certificate_number"`
	StudentName       string    `json:"student_name"`
	CourseTitle       string    `json:"course_title"`
	InstructorName    string    `json:"instructor_name"`
	IssuedAt          time.Time `json:"issued_at"`
}

// NewCertificateResponse converts a certificate with its preloaded course.
func NewCertificateResponse(certificate models.Certificate) CertificateResponse {
	return CertificateResponse{
		ID:                certificate.ID,
		CertificateNumber: certificate.CertificateNumber,
		CourseID:          certificate.CourseID,
		CourseTitle:       certificate.Course.Title,
		InstructorName:    certificate.Course.Instructor.FullName(),
		IssuedAt:          certificate.IssuedAt,
	}
}

// NewCertificateVerificationResponse converts a certificate with user and course preloaded.
func NewCertificateVerificationResponse(certificate models.Certificate) CertificateVerificationResponse {
	return CertificateVerificationResponse{
		Valid:             true,
		CertificateNumber: certificate.CertificateNumber,
		StudentName:       certificate.User.FullName(),
		CourseTitle:       certificate.Course.Title,
		InstructorName:    certificate.Course.Instructor.FullName(),
		IssuedAt:          certificate.IssuedAt,
	}
}
