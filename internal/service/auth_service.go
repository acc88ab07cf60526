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
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/repository"
)

// PasswordCost is the bcrypt work factor for stored passwords.
const PasswordCost = 12

// SessionIdentity is the user bound to a live session.
type SessionIdentity struct {
	UserID uint
	Role   string
}

// AuthService registers users and manages token-backed sessions.
type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, userID uint) (dto.UserResponse, error)
	ResolveSession(ctx context.Context, token string) (SessionIdentity, error)
}

// AuthConfig holds token settings.
type AuthConfig struct {
	JWTSecret  string
	SessionTTL time.Duration
}

type authService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	validator  *validator.Validate
	secret     []byte
	sessionTTL time.Duration
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
	cost       int
}

// NewAuthService constructs the auth service.
func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, validate *validator.Validate, cfg AuthConfig, logger zerolog.Logger) AuthService {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &authService{
		users:      users,
		sessions:   sessions,
		validator:  validate,
		secret:     []byte(cfg.JWTSecret),
		sessionTTL: ttl,
		logger:     logger.With().Str("component", "auth_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/learnhub-api/internal/service/auth"),
		now:        time.Now,
		cost:       PasswordCost,
	}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "auth.register")
	defer span.End()

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return dto.AuthResponse{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return dto.AuthResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}
	user := models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if isUniqueViolation(err) {
			return dto.AuthResponse{}, ErrEmailTaken
		}
		span.RecordError(err)
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user registered")
	return s.issueSession(ctx, user)
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "auth.login")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		span.RecordError(err)
		return dto.AuthResponse{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return dto.AuthResponse{}, ErrAccountInactive
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to update last login")
	} else {
		user.LastLogin = &now
	}

	return s.issueSession(ctx, user)
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return s.sessions.DeleteByHash(ctx, HashToken(token))
}

func (s *authService) Me(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *authService) ResolveSession(ctx context.Context, token string) (SessionIdentity, error) {
	session, err := s.sessions.FindActive(ctx, HashToken(token), s.now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SessionIdentity{}, ErrInvalidCredentials
		}
		return SessionIdentity{}, err
	}
	return SessionIdentity{UserID: session.UserID, Role: session.User.Role}, nil
}

func (s *authService) issueSession(ctx context.Context, user models.User) (dto.AuthResponse, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.sessionTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(user.ID), 10),
		"role": user.Role,
		"iat":  issuedAt.Unix(),
		"exp":  expiresAt.Unix(),
		"jti":  uuid.NewString(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("sign token: %w", err)
	}

	session := models.UserSession{UserID: user.ID, TokenHash: HashToken(signed), ExpiresAt: expiresAt}
	if err := s.sessions.Create(ctx, &session); err != nil {
		trace.SpanFromContext(ctx).RecordError(err, trace.WithAttributes(attribute.Int("user.id", int(user.ID))))
		return dto.AuthResponse{}, err
	}

	return dto.AuthResponse{Token: signed, ExpiresAt: expiresAt, User: dto.NewUserResponse(user)}, nil
}

// HashToken is the session lookup key for a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
