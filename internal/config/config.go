package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	CORSOrigins string

	DatabaseURL string
	RedisURL    string
	NATSURL     string

	EventSubjectPrefix string

	JWTSecret  string
	SessionTTL time.Duration

	AnalyticsCacheTTL time.Duration
	DashboardCacheTTL time.Duration

	StorageDriver          string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	MinioEndpoint          string
	MinioAccessKey         string
	MinioSecretKey         string
	MinioBucket            string
	MinioUseSSL            bool
	MinioPublicURL         string

	PaymentProvider string
	PaymentAPIKey   string
	PaymentBaseURL  string
	PaymentCurrency string

	MailProvider    string
	SendGridAPIKey  string
	MailFromAddress string
	MailFromName    string

	SeedEnabled bool
	SeedToken   string

	SchedulerEnabled bool
	RateLimitMax     int
	RateLimitWindow  time.Duration

	NotificationKeepAlive time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs with production defaults.
func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LEARNHUB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "LearnHub API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cors.origins", "*")
	v.SetDefault("events.subject_prefix", "learnhub")
	v.SetDefault("auth.session_ttl", "168h")
	v.SetDefault("cache.analytics_ttl", "10m")
	v.SetDefault("cache.dashboard_ttl", "2m")
	v.SetDefault("storage.driver", "none")
	v.SetDefault("cloudinary.folder", "learnhub/courses")
	v.SetDefault("minio.bucket", "learnhub-media")
	v.SetDefault("payment.provider", "sandbox")
	v.SetDefault("payment.base_url", "https://api.stripe.com")
	v.SetDefault("payment.currency", "usd")
	v.SetDefault("mail.provider", "log")
	v.SetDefault("mail.from_address", "no-reply@learnhub.local")
	v.SetDefault("mail.from_name", "LearnHub")
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("rate_limit.max", 100)
	v.SetDefault("rate_limit.window", "15m")
	v.SetDefault("notifications.keepalive", "25s")

	durations := map[string]time.Duration{}
	for _, key := range []string{
		"auth.session_ttl",
		"cache.analytics_ttl",
		"cache.dashboard_ttl",
		"rate_limit.window",
		"notifications.keepalive",
	} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 strings.ToLower(v.GetString("app.env")),
		AppPort:                v.GetString("app.port"),
		CORSOrigins:            v.GetString("cors.origins"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventSubjectPrefix:     v.GetString("events.subject_prefix"),
		JWTSecret:              v.GetString("jwt.secret"),
		SessionTTL:             durations["auth.session_ttl"],
		AnalyticsCacheTTL:      durations["cache.analytics_ttl"],
		DashboardCacheTTL:      durations["cache.dashboard_ttl"],
		StorageDriver:          strings.ToLower(v.GetString("storage.driver")),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		MinioEndpoint:          v.GetString("minio.endpoint"),
		MinioAccessKey:         v.GetString("minio.access_key"),
		MinioSecretKey:         v.GetString("minio.secret_key"),
		MinioBucket:            v.GetString("minio.bucket"),
		MinioUseSSL:            v.GetBool("minio.use_ssl"),
		MinioPublicURL:         v.GetString("minio.public_url"),
		PaymentProvider:        strings.ToLower(v.GetString("payment.provider")),
		PaymentAPIKey:          v.GetString("payment.api_key"),
		PaymentBaseURL:         v.GetString("payment.base_url"),
		PaymentCurrency:        strings.ToLower(v.GetString("payment.currency")),
		MailProvider:           strings.ToLower(v.GetString("mail.provider")),
		SendGridAPIKey:         v.GetString("sendgrid.api_key"),
		MailFromAddress:        v.GetString("mail.from_address"),
		MailFromName:           v.GetString("mail.from_name"),
		SeedEnabled:            v.GetBool("seed.enabled"),
		SeedToken:              v.GetString("seed.token"),
		SchedulerEnabled:       v.GetBool("scheduler.enabled"),
		RateLimitMax:           v.GetInt("rate_limit.max"),
		RateLimitWindow:        durations["rate_limit.window"],
		NotificationKeepAlive:  durations["notifications.keepalive"],
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("session ttl must be positive")
	}

	switch cfg.StorageDriver {
	case "none", "cloudinary", "minio":
	default:
		return Config{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
	switch cfg.PaymentProvider {
	case "sandbox", "stripe":
	default:
		return Config{}, fmt.Errorf("unsupported payment provider %q", cfg.PaymentProvider)
	}
	if cfg.PaymentProvider == "sandbox" && cfg.IsProduction() {
		return Config{}, fmt.Errorf("sandbox payment provider approves every payment and is not allowed in production")
	}
	if cfg.PaymentProvider == "stripe" && cfg.PaymentAPIKey == "" {
		return Config{}, fmt.Errorf("payment api key is required for the stripe provider")
	}
	if cfg.MailProvider == "sendgrid" && cfg.SendGridAPIKey == "" {
		return Config{}, fmt.Errorf("sendgrid api key is required for the sendgrid mail provider")
	}
	if cfg.SeedEnabled && cfg.SeedToken == "" {
		return Config{}, fmt.Errorf("seed token is required when seeding is enabled")
	}

	return cfg, nil
}
