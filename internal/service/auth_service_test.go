package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/repository"
)

func newTestAuthService(t *testing.T) *authService {
	t.Helper()
	db := setupServiceDB(t)
	svc := NewAuthService(repository.NewUserRepository(db), repository.NewSessionRepository(db), testValidator(), AuthConfig{JWTSecret: "secret", SessionTTL: time.Hour}, testLogger()).(*authService)
	svc.cost = bcrypt.MinCost
	return svc
}

func TestAuthRegisterLoginAndResolve(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, dto.RegisterRequest{
		Email: " Ada@Example.com ", Password: "Secret123", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", registered.User.Email)
	require.Equal(t, models.RoleStudent, registered.User.Role)
	require.NotEmpty(t, registered.Token)

	identity, err := svc.ResolveSession(ctx, registered.Token)
	require.NoError(t, err)
	require.Equal(t, registered.User.ID, identity.UserID)

	loggedIn, err := svc.Login(ctx, dto.LoginRequest{Email: "ada@example.com", Password: "Secret123"})
	require.NoError(t, err)
	require.NotEqual(t, registered.Token, loggedIn.Token)
	require.NotNil(t, loggedIn.User.LastLogin)

	require.NoError(t, svc.Logout(ctx, registered.Token))
	_, err = svc.ResolveSession(ctx, registered.Token)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.ResolveSession(ctx, loggedIn.Token)
	require.NoError(t, err)
}

func TestAuthRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()
	req := dto.RegisterRequest{Email: "dup@example.com", Password: "Secret123", FirstName: "Dup", LastName: "User", Role: "instructor"}

	_, err := svc.Register(ctx, req)
	require.NoError(t, err)
	_, err = svc.Register(ctx, req)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthRegisterRejectsWeakPasswordAndAdminRole(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, dto.RegisterRequest{Email: "weak@example.com", Password: "password", FirstName: "W", LastName: "P"})
	require.Error(t, err)
	require.True(t, isValidation(err))

	_, err = svc.Register(ctx, dto.RegisterRequest{Email: "root@example.com", Password: "Secret123", FirstName: "R", LastName: "A", Role: "admin"})
	require.True(t, isValidation(err))
}

func TestAuthLoginFailures(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, dto.RegisterRequest{Email: "bob@example.com", Password: "Secret123", FirstName: "Bob", LastName: "B"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "bob@example.com", Password: "Wrong1234"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, dto.LoginRequest{Email: "nobody@example.com", Password: "Secret123"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.users.UpdateStatus(ctx, resp.User.ID, false))
	_, err = svc.Login(ctx, dto.LoginRequest{Email: "bob@example.com", Password: "Secret123"})
	require.ErrorIs(t, err, ErrAccountInactive)

	_, err = svc.ResolveSession(ctx, resp.Token)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthSessionsExpire(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = fixedClock(start)

	resp, err := svc.Register(ctx, dto.RegisterRequest{Email: "exp@example.com", Password: "Secret123", FirstName: "E", LastName: "X"})
	require.NoError(t, err)

	svc.now = fixedClock(start.Add(2 * time.Hour))
	_, err = svc.ResolveSession(ctx, resp.Token)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
