package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/observability"
	"github.com/noah-isme/learnhub-api/internal/repository"
)

// NotificationInput is a notification raised by another component for one user.
type NotificationInput struct {
	UserID  uint
	Type    string
	Title   string
	Message string
	Data    map[string]interface{}
}

// Notifier persists and fans out a single notification.
type Notifier interface {
	Notify(ctx context.Context, input NotificationInput) error
}

// NotificationService stores in-app notifications and streams them to connected clients.
type NotificationService interface {
	Notifier
	Create(ctx context.Context, payload dto.NotificationCreateRequest) ([]dto.NotificationResponse, error)
	List(ctx context.Context, userID uint, req dto.NotificationListRequest) ([]dto.NotificationResponse, dto.NotificationListMeta, error)
	MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error)
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	// Subscribe opens a live stream for userID. The returned func closes it and is safe to call twice.
	Subscribe(userID uint) (<-chan dto.NotificationResponse, func())
	// Start begins receiving notifications relayed by other nodes.
	Start(ctx context.Context)
}

type notificationService struct {
	repo      repository.NotificationRepository
	hub       *streamHub
	relay     *notificationRelay
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewNotificationService constructs the notification service. Redis and NATS are optional and
// only used when relayBase is set; the relay carries notifications to streams held by other
// nodes over NATS when connected, else over Redis.
func NewNotificationService(repo repository.NotificationRepository, redisClient *redis.Client, relayBase string, natsConn *nats.Conn, validate *validator.Validate, logger zerolog.Logger) NotificationService {
	logger = logger.With().Str("component", "notification_service").Logger()
	return &notificationService{
		repo:      repo,
		hub:       newStreamHub(),
		relay:     newNotificationRelay(redisClient, natsConn, relayBase, logger),
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
		tracer:    otel.Tracer("github.com/noah-isme/learnhub-api/internal/service/notification"),
		now:       time.Now,
	}
}

func (s *notificationService) Start(ctx context.Context) {
	s.relay.listen(ctx, s.deliverLocal)
}

func (s *notificationService) Notify(ctx context.Context, input NotificationInput) error {
	_, err := s.persist(ctx, input)
	return err
}

// Create sends the same admin-authored notification to every listed user once.
func (s *notificationService) Create(ctx context.Context, payload dto.NotificationCreateRequest) ([]dto.NotificationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	recipients := uniqueIDs(payload.UserIDs)
	created := make([]dto.NotificationResponse, 0, len(recipients))
	for _, userID := range recipients {
		resp, err := s.persist(ctx, NotificationInput{
			UserID:  userID,
			Type:    payload.Type,
			Title:   payload.Title,
			Message: payload.Message,
			Data:    payload.Data,
		})
		if err != nil {
			return created, err
		}
		created = append(created, resp)
	}
	return created, nil
}

// persist sanitises, stores, then pushes to local streams and the relay. Relay failures
// are logged only; the row is already committed and remains listable.
func (s *notificationService) persist(ctx context.Context, input NotificationInput) (dto.NotificationResponse, error) {
	model := models.Notification{
		UserID:  input.UserID,
		Type:    input.Type,
		Title:   strings.TrimSpace(s.sanitizer.Sanitize(input.Title)),
		Message: strings.TrimSpace(s.sanitizer.Sanitize(input.Message)),
		Data:    datatypes.JSONMap(input.Data),
	}
	if model.UserID == 0 || model.Title == "" {
		return dto.NotificationResponse{}, ErrInvalidInput
	}
	if model.Data == nil {
		model.Data = datatypes.JSONMap{}
	}

	ctx, span := s.tracer.Start(ctx, "notifications.publish", trace.WithAttributes(
		attribute.Int("notification.user_id", int(model.UserID)),
		attribute.String("notification.type", model.Type),
	))
	defer span.End()

	if err := s.repo.Create(ctx, &model); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store notification")
		return dto.NotificationResponse{}, err
	}

	resp := dto.NewNotificationResponse(model)
	s.deliverLocal(resp)
	if err := s.relay.send(ctx, resp, s.now().UTC()); err != nil {
		s.logger.Warn().Err(err).Uint("notification_id", resp.ID).Msg("failed to relay notification")
	}
	observability.NotificationsPublishedTotal().WithLabelValues(resp.Type).Inc()
	return resp, nil
}

func (s *notificationService) deliverLocal(n dto.NotificationResponse) {
	if dropped := s.hub.deliver(n); dropped > 0 {
		s.logger.Debug().Uint("user_id", n.UserID).Int("streams", dropped).Msg("slow streams skipped a notification")
	}
}

func (s *notificationService) List(ctx context.Context, userID uint, req dto.NotificationListRequest) ([]dto.NotificationResponse, dto.NotificationListMeta, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, dto.NotificationListMeta{}, err
	}
	if req.Limit <= 0 {
		req.Limit = 20
	}

	items, total, err := s.repo.ListByUser(ctx, userID, repository.NotificationFilter{
		UnreadOnly: req.UnreadOnly,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if err != nil {
		return nil, dto.NotificationListMeta{}, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, dto.NotificationListMeta{}, err
	}

	meta := dto.NotificationListMeta{Total: total, Limit: req.Limit, Offset: req.Offset, UnreadCount: unread}
	return dto.NewNotificationResponseSlice(items), meta, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error) {
	notification, err := s.repo.MarkRead(ctx, id, userID, s.now().UTC())
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return dto.NotificationResponse{}, ErrNotificationNotFound
	case err != nil:
		return dto.NotificationResponse{}, err
	}
	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID, s.now().UTC())
}

func (s *notificationService) Subscribe(userID uint) (<-chan dto.NotificationResponse, func()) {
	ch := s.hub.open(userID)
	observability.NotificationStreamsActive().Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.hub.close(userID, ch)
			observability.NotificationStreamsActive().Dec()
		})
	}
}

// notify sends a notification without failing the caller's operation.
func notify(ctx context.Context, notifier Notifier, logger zerolog.Logger, input NotificationInput) {
	if notifier == nil {
		return
	}
	if err := notifier.Notify(ctx, input); err != nil {
		logger.Warn().Err(err).Str("type", input.Type).Uint("user_id", input.UserID).Msg("failed to create notification")
	}
}
