package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/middleware"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/repository"
)

// metadata keys containing any of these fragments are stored masked
var redactedFragments = []string{"email", "token", "password", "secret", "card"}

// ActivityActor is the authenticated user performing an action.
type ActivityActor struct {
	ID   uint
	Role string
}

// IsAdmin reports whether the actor has the admin role.
func (a ActivityActor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// ActivityEntry is one audit event before it is normalised and stored.
type ActivityEntry struct {
	ActorID    uint
	ActorRole  string
	Action     string
	EntityType string
	EntityID   *uint
	Metadata   map[string]interface{}
}

type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) (dto.AdminActivityResponse, error)
}

// ActivityService records the audit trail and serves it to admins.
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, req dto.AdminActivityListRequest) ([]dto.AdminActivityResponse, int64, error)
}

type activityService struct {
	repo      repository.ActivityLogRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

func NewActivityService(repo repository.ActivityLogRepository, validate *validator.Validate, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "activity_service").Logger(),
	}
}

// Record lower-cases action and entity type, masks sensitive metadata and tags the row
// with the request correlation id carried by ctx.
func (s *activityService) Record(ctx context.Context, entry ActivityEntry) (dto.AdminActivityResponse, error) {
	action := canonical(entry.Action)
	entityType := canonical(entry.EntityType)
	if action == "" || entityType == "" {
		return dto.AdminActivityResponse{}, fmt.Errorf("%w: activity needs an action and an entity type", ErrInvalidInput)
	}

	role := canonical(entry.ActorRole)
	if role == "" {
		role = "system"
	}

	row := models.ActivityLog{
		ActorID:       entry.ActorID,
		ActorRole:     role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entry.EntityID,
		CorrelationID: middleware.CorrelationIDFromContext(ctx),
		Metadata:      maskMetadata(entry.Metadata),
	}
	if err := s.repo.Create(ctx, &row); err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("failed to persist activity log")
		return dto.AdminActivityResponse{}, err
	}
	return dto.NewAdminActivityResponse(row), nil
}

func (s *activityService) List(ctx context.Context, req dto.AdminActivityListRequest) ([]dto.AdminActivityResponse, int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, 0, err
	}

	filter := repository.ActivityLogFilter{
		Limit:      req.Limit,
		Offset:     req.Offset,
		Action:     canonical(req.Action),
		EntityType: canonical(req.EntityType),
		Since:      req.Since,
	}
	if req.ActorID > 0 {
		actorID := req.ActorID
		filter.ActorID = &actorID
	}

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]dto.AdminActivityResponse, len(rows))
	for i, row := range rows {
		out[i] = dto.NewAdminActivityResponse(row)
	}
	return out, total, nil
}

// recordActivity writes an audit entry without failing the caller's operation.
func recordActivity(ctx context.Context, recorder ActivityRecorder, logger zerolog.Logger, actor ActivityActor, action, entityType string, entityID uint, metadata map[string]interface{}) {
	if recorder == nil {
		return
	}
	if _, err := recorder.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   &entityID,
		Metadata:   metadata,
	}); err != nil {
		logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

func maskMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	masked := make(datatypes.JSONMap, len(metadata))
	for key, value := range metadata {
		if isSensitiveKey(key) {
			value = "***"
		}
		masked[key] = value
	}
	return masked
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, fragment := range redactedFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

func canonical(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
