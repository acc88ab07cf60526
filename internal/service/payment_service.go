package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/observability"
	"github.com/noah-isme/learnhub-api/internal/repository"
	"github.com/noah-isme/learnhub-api/pkg/payment"
)

// PaymentService runs course checkout against the payment provider.
type PaymentService interface {
	CreateIntent(ctx context.Context, userID uint, req dto.CreateIntentRequest) (dto.PaymentIntentResponse, error)
	Confirm(ctx context.Context, userID uint, req dto.ConfirmPaymentRequest) (dto.PaymentConfirmResponse, error)
	History(ctx context.Context, userID uint) ([]dto.PaymentResponse, error)
	ExpireStale(ctx context.Context, olderThan time.Duration) (int, error)
}

type paymentService struct {
	courses   repository.CourseRepository
	payments  repository.PaymentRepository
	provider  payment.Provider
	notifier  Notifier
	events    EventPublisher
	validator *validator.Validate
	currency  string
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewPaymentService constructs the payment service.
func NewPaymentService(courses repository.CourseRepository, payments repository.PaymentRepository, provider payment.Provider, notifier Notifier, events EventPublisher, validate *validator.Validate, currency string, logger zerolog.Logger) PaymentService {
	if currency == "" {
		currency = "usd"
	}
	return &paymentService{
		courses:   courses,
		payments:  payments,
		provider:  provider,
		notifier:  notifier,
		events:    events,
		validator: validate,
		currency:  strings.ToLower(currency),
		logger:    logger.With().Str("component", "payment_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/learnhub-api/internal/service/payment"),
		now:       time.Now,
	}
}

// CreateIntent prices the requested courses, opens a provider intent and stores a pending payment.
func (s *paymentService) CreateIntent(ctx context.Context, userID uint, req dto.CreateIntentRequest) (dto.PaymentIntentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.PaymentIntentResponse{}, err
	}

	ids := uniqueIDs(req.CourseIDs)
	ctx, span := s.tracer.Start(ctx, "payment.create_intent", trace.WithAttributes(
		attribute.Int("user.id", int(userID)),
		attribute.Int("payment.courses", len(ids)),
	))
	defer span.End()

	courses, err := s.courses.ListByIDs(ctx, ids)
	if err != nil {
		span.RecordError(err)
		return dto.PaymentIntentResponse{}, err
	}
	if len(courses) != len(ids) {
		return dto.PaymentIntentResponse{}, ErrCoursesUnavailable
	}

	var total float64
	items := make([]models.PaymentItem, 0, len(courses))
	lines := make([]dto.PaymentCourse, 0, len(courses))
	for _, course := range courses {
		if !course.IsPublished() {
			return dto.PaymentIntentResponse{}, ErrCoursesUnavailable
		}
		total += course.Price
		items = append(items, models.PaymentItem{CourseID: course.ID, Amount: course.Price})
		lines = append(lines, dto.PaymentCourse{CourseID: course.ID, Title: course.Title, Amount: course.Price})
	}
	total = roundTo(total, 2)

	intent, err := s.provider.CreateIntent(ctx, payment.IntentRequest{
		Amount:   payment.ToMinorUnits(total),
		Currency: s.currency,
		Metadata: map[string]string{
			"user_id":    fmt.Sprint(userID),
			"course_ids": joinIDs(ids),
		},
	})
	if err != nil {
		span.RecordError(err)
		s.logger.Error().Err(err).Uint("user_id", userID).Msg("payment provider rejected intent")
		return dto.PaymentIntentResponse{}, err
	}

	record := models.Payment{
		UserID:        userID,
		ExternalID:    intent.ID,
		Amount:        total,
		Currency:      s.currency,
		Status:        models.PaymentStatusPending,
		PaymentMethod: intent.PaymentMethod,
		Metadata:      datatypes.JSONMap{"course_ids": ids},
		Items:         items,
	}
	if err := s.payments.Create(ctx, &record); err != nil {
		span.RecordError(err)
		return dto.PaymentIntentResponse{}, err
	}

	observability.PaymentsTotal().WithLabelValues(models.PaymentStatusPending).Inc()
	s.logger.Info().Uint("payment_id", record.ID).Uint("user_id", userID).Float64("amount", total).Msg("payment intent created")

	return dto.PaymentIntentResponse{
		PaymentID:       record.ID,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          total,
		Currency:        s.currency,
		Status:          record.Status,
		Courses:         lines,
	}, nil
}

// Confirm activates the enrollments a payment covers once the provider reports success.
// Confirming an already completed payment returns the same result without side effects.
func (s *paymentService) Confirm(ctx context.Context, userID uint, req dto.ConfirmPaymentRequest) (dto.PaymentConfirmResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.PaymentConfirmResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "payment.confirm", trace.WithAttributes(attribute.Int("user.id", int(userID))))
	defer span.End()

	record, err := s.payments.GetByExternalID(ctx, req.PaymentIntentID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PaymentConfirmResponse{}, ErrPaymentNotFound
		}
		span.RecordError(err)
		return dto.PaymentConfirmResponse{}, err
	}

	switch record.Status {
	case models.PaymentStatusCompleted:
		return confirmResponse(record), nil
	case models.PaymentStatusFailed, models.PaymentStatusRefunded:
		return dto.PaymentConfirmResponse{}, ErrPaymentFailed
	}

	intent, err := s.provider.Retrieve(ctx, record.ExternalID)
	if err != nil {
		if errors.Is(err, payment.ErrIntentNotFound) {
			return dto.PaymentConfirmResponse{}, ErrPaymentNotFound
		}
		span.RecordError(err)
		return dto.PaymentConfirmResponse{}, err
	}

	if payment.IsTerminalFailure(intent.Status) {
		s.fail(ctx, record, "The payment was declined by the provider.")
		return dto.PaymentConfirmResponse{}, ErrPaymentFailed
	}
	if intent.Status != payment.StatusSucceeded {
		return dto.PaymentConfirmResponse{}, ErrPaymentNotCompleted
	}

	if _, err := s.complete(ctx, record); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PaymentConfirmResponse{}, ErrPaymentFailed
		}
		span.RecordError(err)
		return dto.PaymentConfirmResponse{}, err
	}

	completed, err := s.payments.GetByExternalID(ctx, record.ExternalID, userID)
	if err != nil {
		return dto.PaymentConfirmResponse{}, err
	}
	return confirmResponse(completed), nil
}

func (s *paymentService) History(ctx context.Context, userID uint) ([]dto.PaymentResponse, error) {
	payments, err := s.payments.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, dto.NewPaymentResponse(p))
	}
	return out, nil
}

// complete settles a payment the provider reported as succeeded. Side effects fire only
// for the call that moved it out of pending, so concurrent confirmations announce it once.
func (s *paymentService) complete(ctx context.Context, record models.Payment) ([]uint, error) {
	courseIDs, transitioned, err := s.payments.Complete(ctx, record.ID, record.UserID, s.now().UTC())
	if err != nil || !transitioned {
		return courseIDs, err
	}

	observability.PaymentsTotal().WithLabelValues(models.PaymentStatusCompleted).Inc()
	s.logger.Info().Uint("payment_id", record.ID).Uint("user_id", record.UserID).Int("courses", len(courseIDs)).Msg("payment completed")

	publishEvent(ctx, s.events, s.logger, EventPaymentCompleted, map[string]interface{}{
		"payment_id": record.ID,
		"user_id":    record.UserID,
		"course_ids": courseIDs,
		"amount":     record.Amount,
		"currency":   record.Currency,
	})
	notify(ctx, s.notifier, s.logger, NotificationInput{
		UserID:  record.UserID,
		Type:    models.NotificationPaymentSuccess,
		Title:   "Payment received",
		Message: fmt.Sprintf("Your payment of %.2f %s was successful.", record.Amount, strings.ToUpper(record.Currency)),
		Data:    map[string]interface{}{"payment_id": record.ID, "course_ids": courseIDs},
	})
	return courseIDs, nil
}

// ExpireStale reconciles payments left pending for longer than olderThan with the provider.
// Intents that succeeded are completed as if confirmed, declined or unknown intents fail, and
// only intents the provider still holds open expire. It returns the number expired or failed.
func (s *paymentService) ExpireStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := s.now().UTC().Add(-olderThan)
	stale, err := s.payments.ListPendingBefore(ctx, cutoff, 100)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, record := range stale {
		intent, err := s.provider.Retrieve(ctx, record.ExternalID)
		switch {
		case errors.Is(err, payment.ErrIntentNotFound):
			if s.fail(ctx, record, "Your checkout could not be found with the payment provider.") {
				expired++
			}
		case err != nil:
			// provider unreachable; the next run retries
			s.logger.Warn().Err(err).Uint("payment_id", record.ID).Msg("stale payment lookup failed")
		case intent.Status == payment.StatusSucceeded:
			if _, err := s.complete(ctx, record); err != nil {
				s.logger.Error().Err(err).Uint("payment_id", record.ID).Msg("failed to complete stale payment")
			}
		case payment.IsTerminalFailure(intent.Status):
			if s.fail(ctx, record, "The payment was declined by the provider.") {
				expired++
			}
		default:
			if s.fail(ctx, record, "Your checkout expired before the payment was completed.") {
				expired++
			}
		}
	}
	return expired, nil
}

func (s *paymentService) fail(ctx context.Context, record models.Payment, message string) bool {
	marked, err := s.payments.MarkFailed(ctx, record.ID, s.now().UTC())
	if err != nil {
		s.logger.Error().Err(err).Uint("payment_id", record.ID).Msg("failed to mark payment failed")
		return false
	}
	if !marked {
		return false
	}

	observability.PaymentsTotal().WithLabelValues(models.PaymentStatusFailed).Inc()
	s.logger.Warn().Uint("payment_id", record.ID).Uint("user_id", record.UserID).Msg("payment failed")

	publishEvent(ctx, s.events, s.logger, EventPaymentFailed, map[string]interface{}{
		"payment_id": record.ID,
		"user_id":    record.UserID,
	})
	notify(ctx, s.notifier, s.logger, NotificationInput{
		UserID:  record.UserID,
		Type:    models.NotificationPaymentFailed,
		Title:   "Payment failed",
		Message: message,
		Data:    map[string]interface{}{"payment_id": record.ID},
	})
	return true
}

func confirmResponse(record models.Payment) dto.PaymentConfirmResponse {
	courseIDs := make([]uint, 0, len(record.Items))
	for _, item := range record.Items {
		courseIDs = append(courseIDs, item.CourseID)
	}
	return dto.PaymentConfirmResponse{
		Payment:         dto.NewPaymentResponse(record),
		EnrolledCourses: courseIDs,
	}
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func joinIDs(ids []uint) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprint(id))
	}
	return strings.Join(parts, ",")
}
