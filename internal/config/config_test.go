package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("LEARNHUB_JWT_SECRET", "secret")
	t.Setenv("LEARNHUB_DATABASE_URL", "postgres://localhost/learnhub")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, 168*time.Hour, cfg.SessionTTL)
	require.Equal(t, "sandbox", cfg.PaymentProvider)
	require.Equal(t, "none", cfg.StorageDriver)
	require.Equal(t, "log", cfg.MailProvider)
	require.True(t, cfg.SchedulerEnabled)
	require.False(t, cfg.IsProduction())
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("LEARNHUB_JWT_SECRET", "")
	t.Setenv("LEARNHUB_DATABASE_URL", "postgres://localhost/learnhub")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsStripeWithoutKey(t *testing.T) {
	t.Setenv("LEARNHUB_JWT_SECRET", "secret")
	t.Setenv("LEARNHUB_DATABASE_URL", "postgres://localhost/learnhub")
	t.Setenv("LEARNHUB_PAYMENT_PROVIDER", "stripe")
	t.Setenv("LEARNHUB_PAYMENT_API_KEY", "")

	_, err := Load()
	require.ErrorContains(t, err, "payment api key")
}

func TestLoadRejectsSandboxPaymentsInProduction(t *testing.T) {
	t.Setenv("LEARNHUB_JWT_SECRET", "secret")
	t.Setenv("LEARNHUB_DATABASE_URL", "postgres://localhost/learnhub")
	t.Setenv("LEARNHUB_APP_ENV", "production")

	_, err := Load()
	require.ErrorContains(t, err, "sandbox payment provider")

	t.Setenv("LEARNHUB_PAYMENT_PROVIDER", "stripe")
	t.Setenv("LEARNHUB_PAYMENT_API_KEY", "sk_live_123")
	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, "stripe", cfg.PaymentProvider)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("LEARNHUB_JWT_SECRET", "secret")
	t.Setenv("LEARNHUB_DATABASE_URL", "postgres://localhost/learnhub")
	t.Setenv("LEARNHUB_AUTH_SESSION_TTL", "forever")

	_, err := Load()
	require.ErrorContains(t, err, "auth.session_ttl")
}
