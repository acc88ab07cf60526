package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/repository"
)

// UserService manages profiles and admin account operations.
type UserService interface {
	Profile(ctx context.Context, userID uint) (dto.UserResponse, error)
	UpdateProfile(ctx context.Context, userID uint, req dto.ProfileUpdateRequest) (dto.UserResponse, error)
	List(ctx context.Context, req dto.AdminUserListRequest) ([]dto.AdminUserResponse, int64, error)
	SetStatus(ctx context.Context, actor ActivityActor, userID uint, active bool) (dto.UserResponse, error)
	Delete(ctx context.Context, actor ActivityActor, userID uint) error
}

type userService struct {
	users     repository.UserRepository
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewUserService constructs the user service.
func NewUserService(users repository.UserRepository, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		users:     users,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "user_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/learnhub-api/internal/service/user"),
	}
}

func (s *userService) Profile(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return dto.UserResponse{}, mapUserError(err)
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, req dto.ProfileUpdateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "user.update_profile")
	defer span.End()

	userUpdates := map[string]interface{}{}
	if req.FirstName != nil {
		userUpdates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		userUpdates["last_name"] = strings.TrimSpace(*req.LastName)
	}

	var profile models.UserProfile
	var columns []string
	setString := func(value *string, column string, target *string) {
		if value == nil {
			return
		}
		*target = strings.TrimSpace(*value)
		columns = append(columns, column)
	}
	setString(req.Phone, "phone", &profile.Phone)
	setString(req.Country, "country", &profile.Country)
	setString(req.Timezone, "timezone", &profile.Timezone)
	setString(req.Language, "language", &profile.Language)
	setString(req.SkillLevel, "skill_level", &profile.SkillLevel)
	if req.LearningGoals != nil {
		profile.LearningGoals = dto.JSONList(req.LearningGoals)
		columns = append(columns, "learning_goals")
	}
	if req.NotificationPreferences != nil {
		prefs := datatypes.JSONMap{}
		for key, value := range req.NotificationPreferences {
			prefs[key] = value
		}
		profile.NotificationPrefs = prefs
		columns = append(columns, "notification_prefs")
	}

	user, err := s.users.UpdateProfile(ctx, userID, userUpdates, profile, columns)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			span.RecordError(err)
		}
		return dto.UserResponse{}, mapUserError(err)
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) List(ctx context.Context, req dto.AdminUserListRequest) ([]dto.AdminUserResponse, int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, 0, err
	}

	rows, total, err := s.users.List(ctx, repository.UserFilter{
		Role:   req.Role,
		Search: req.Search,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		return nil, 0, err
	}

	out := make([]dto.AdminUserResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.AdminUserResponse{UserResponse: dto.NewUserResponse(row.User), EnrollmentCount: row.EnrollmentCount})
	}
	return out, total, nil
}

func (s *userService) SetStatus(ctx context.Context, actor ActivityActor, userID uint, active bool) (dto.UserResponse, error) {
	if actor.ID == userID {
		return dto.UserResponse{}, ErrCannotModifySelf
	}
	if err := s.users.UpdateStatus(ctx, userID, active); err != nil {
		return dto.UserResponse{}, mapUserError(err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return dto.UserResponse{}, mapUserError(err)
	}

	action := "user.deactivated"
	if active {
		action = "user.activated"
	}
	recordActivity(ctx, s.activity, s.logger, actor, action, "user", userID, map[string]interface{}{"email": user.Email})
	return dto.NewUserResponse(user), nil
}

func (s *userService) Delete(ctx context.Context, actor ActivityActor, userID uint) error {
	if actor.ID == userID {
		return ErrCannotModifySelf
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return mapUserError(err)
	}
	owned, err := s.users.CountOwnedCourses(ctx, userID)
	if err != nil {
		return err
	}
	if owned > 0 {
		return ErrUserOwnsCourses
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return mapUserError(err)
	}

	s.logger.Info().Uint("user_id", userID).Uint("actor_id", actor.ID).Msg("user deleted")
	recordActivity(ctx, s.activity, s.logger, actor, "user.deleted", "user", userID, map[string]interface{}{
		"email": user.Email,
		"role":  user.Role,
	})
	return nil
}

func mapUserError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
