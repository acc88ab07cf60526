package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/observability"
	"github.com/noah-isme/learnhub-api/internal/repository"
	"github.com/noah-isme/learnhub-api/pkg/mailer"
)

// CertificateService issues and verifies completion certificates.
type CertificateService interface {
	Generate(ctx context.Context, userID uint, req dto.GenerateCertificateRequest) (dto.CertificateResponse, error)
	List(ctx context.Context, userID uint) ([]dto.CertificateResponse, error)
	Get(ctx context.Context, userID, certificateID uint) (dto.CertificateResponse, error)
	Verify(ctx context.Context, number string) (dto.CertificateVerificationResponse, error)
}

type certificateService struct {
	courses      repository.CourseRepository
	progress     repository.ProgressRepository
	certificates repository.CertificateRepository
	users        repository.UserRepository
	notifier     Notifier
	events       EventPublisher
	mail         mailer.Sender
	validator    *validator.Validate
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewCertificateService constructs the certificate service. The mail sender is optional.
func NewCertificateService(courses repository.CourseRepository, progress repository.ProgressRepository, certificates repository.CertificateRepository, users repository.UserRepository, notifier Notifier, events EventPublisher, mail mailer.Sender, validate *validator.Validate, logger zerolog.Logger) CertificateService {
	return &certificateService{
		courses:      courses,
		progress:     progress,
		certificates: certificates,
		users:        users,
		notifier:     notifier,
		events:       events,
		mail:         mail,
		validator:    validate,
		logger:       logger.With().Str("component", "certificate_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/learnhub-api/internal/service/certificate"),
		now:          time.Now,
	}
}

// Generate issues the certificate once every lesson of the course is complete. Completion
// is derived from the lesson counts at call time; the unique (user, course) index decides
// between concurrent callers.
func (s *certificateService) Generate(ctx context.Context, userID uint, req dto.GenerateCertificateRequest) (dto.CertificateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CertificateResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "certificate.generate", trace.WithAttributes(
		attribute.Int("user.id", int(userID)),
		attribute.Int("course.id", int(req.CourseID)),
	))
	defer span.End()

	course, err := s.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		return dto.CertificateResponse{}, mapCourseError(err)
	}

	counts, err := s.progress.CourseCounts(ctx, userID, course.ID)
	if err != nil {
		span.RecordError(err)
		return dto.CertificateResponse{}, err
	}
	if !counts.IsComplete() {
		return dto.CertificateResponse{}, ErrCourseNotCompleted
	}

	issuedAt := s.now().UTC()
	certificate := models.Certificate{
		UserID:            userID,
		CourseID:          course.ID,
		CertificateNumber: CertificateNumber(userID, course.ID, issuedAt),
		IssuedAt:          issuedAt,
	}
	inserted, err := s.certificates.CreateIfAbsent(ctx, &certificate)
	if err != nil {
		span.RecordError(err)
		return dto.CertificateResponse{}, err
	}
	if !inserted {
		return dto.CertificateResponse{}, ErrCertificateExists
	}
	certificate.Course = course

	observability.CertificatesIssued().Inc()
	s.logger.Info().
		Uint("user_id", userID).
		Uint("course_id", course.ID).
		Str("certificate_number", certificate.CertificateNumber).
		Msg("certificate issued")

	publishEvent(ctx, s.events, s.logger, EventCertificateIssued, map[string]interface{}{
		"user_id":            userID,
		"course_id":          course.ID,
		"certificate_number": certificate.CertificateNumber,
	})
	notify(ctx, s.notifier, s.logger, NotificationInput{
		UserID:  userID,
		Type:    models.NotificationCertificateEarned,
		Title:   "Certificate earned",
		Message: "Your certificate for " + course.Title + " is ready.",
		Data: map[string]interface{}{
			"course_id":          course.ID,
			"certificate_id":     certificate.ID,
			"certificate_number": certificate.CertificateNumber,
		},
	})
	s.sendCertificateEmail(ctx, userID, certificate)

	return dto.NewCertificateResponse(certificate), nil
}

func (s *certificateService) sendCertificateEmail(ctx context.Context, userID uint, certificate models.Certificate) {
	if s.mail == nil || s.users == nil {
		return
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("certificate email skipped")
		return
	}

	body := fmt.Sprintf("Hi %s,\n\nCongratulations on completing %s.\nCertificate number: %s\nIssued: %s\n\nAnyone can verify it with this number.\n",
		user.FirstName,
		certificate.Course.Title,
		certificate.CertificateNumber,
		certificate.IssuedAt.Format("2 January 2006"),
	)
	if err := s.mail.Send(ctx, mailer.Message{
		ToName:  user.FullName(),
		ToEmail: user.Email,
		Subject: "Your LearnHub certificate: " + certificate.Course.Title,
		Text:    body,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to send certificate email")
	}
}

func (s *certificateService) List(ctx context.Context, userID uint) ([]dto.CertificateResponse, error) {
	certificates, err := s.certificates.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CertificateResponse, 0, len(certificates))
	for _, certificate := range certificates {
		out = append(out, dto.NewCertificateResponse(certificate))
	}
	return out, nil
}

func (s *certificateService) Get(ctx context.Context, userID, certificateID uint) (dto.CertificateResponse, error) {
	certificate, err := s.certificates.GetForUser(ctx, certificateID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CertificateResponse{}, ErrCertificateNotFound
		}
		return dto.CertificateResponse{}, err
	}
	return dto.NewCertificateResponse(certificate), nil
}

func (s *certificateService) Verify(ctx context.Context, number string) (dto.CertificateVerificationResponse, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return dto.CertificateVerificationResponse{}, ErrCertificateNotFound
	}
	certificate, err := s.certificates.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CertificateVerificationResponse{}, ErrCertificateNotFound
		}
		return dto.CertificateVerificationResponse{}, err
	}
	return dto.NewCertificateVerificationResponse(certificate), nil
}

// CertificateNumber builds LHUB-<unix millis>-<user digest>-<course digest>, upper case.
func CertificateNumber(userID, courseID uint, at time.Time) string {
	return strings.ToUpper(fmt.Sprintf("LHUB-%d-%s-%s", at.UnixMilli(), shortDigest(userID), shortDigest(courseID)))
}

func shortDigest(id uint) string {
	sum := sha256.Sum256([]byte(strconv.FormatUint(uint64(id), 10)))
	return hex.EncodeToString(sum[:2])
}
