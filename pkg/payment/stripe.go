package payment

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// StripeConfig configures the REST client.
type StripeConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// StripeClient implements Provider against the Stripe payment intents API.
type StripeClient struct {
	http   *resty.Client
	logger zerolog.Logger
}

type stripeIntent struct {
	ID            string `json:"id"`
	ClientSecret  string `json:"client_secret"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	PaymentMethod string `json:"payment_method"`
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewStripeClient builds a provider client with retries on transient failures.
func NewStripeClient(cfg StripeConfig, logger zerolog.Logger) (*StripeClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("payment api key must be provided")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.stripe.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(cfg.APIKey).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})

	return &StripeClient{
		http:   client,
		logger: logger.With().Str("component", "payment_provider").Logger(),
	}, nil
}

// CreateIntent registers a new payment intent.
func (c *StripeClient) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	form := map[string]string{
		"amount":                             strconv.FormatInt(req.Amount, 10),
		"currency":                           strings.ToLower(req.Currency),
		"automatic_payment_methods[enabled]": "true",
	}
	for key, value := range req.Metadata {
		form[fmt.Sprintf("metadata[%s]", key)] = value
	}

	var out stripeIntent
	var apiErr stripeError
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v1/payment_intents")
	if err != nil {
		return Intent{}, fmt.Errorf("create payment intent: %w", err)
	}
	if resp.IsError() {
		return Intent{}, c.providerError("create payment intent", resp.StatusCode(), apiErr)
	}

	c.logger.Info().Str("intent_id", out.ID).Int64("amount", out.Amount).Msg("payment intent created")
	return out.toIntent(), nil
}

// Retrieve fetches the current state of an intent.
func (c *StripeClient) Retrieve(ctx context.Context, id string) (Intent, error) {
	var out stripeIntent
	var apiErr stripeError
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&out).
		SetError(&apiErr).
		Get("/v1/payment_intents/{id}")
	if err != nil {
		return Intent{}, fmt.Errorf("retrieve payment intent: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return Intent{}, ErrIntentNotFound
	}
	if resp.IsError() {
		return Intent{}, c.providerError("retrieve payment intent", resp.StatusCode(), apiErr)
	}
	return out.toIntent(), nil
}

func (c *StripeClient) providerError(op string, status int, apiErr stripeError) error {
	c.logger.Warn().Str("op", op).Int("status", status).Str("code", apiErr.Error.Code).Msg("payment provider rejected request")
	if apiErr.Error.Message != "" {
		return fmt.Errorf("%s: provider returned %d: %s", op, status, apiErr.Error.Message)
	}
	return fmt.Errorf("%s: provider returned %d", op, status)
}

func (s stripeIntent) toIntent() Intent {
	return Intent{
		ID:            s.ID,
		ClientSecret:  s.ClientSecret,
		Amount:        s.Amount,
		Currency:      s.Currency,
		Status:        s.Status,
		PaymentMethod: s.PaymentMethod,
	}
}
