package payment

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Sandbox is an in-process provider for development and tests. Intents succeed on the
// first Retrieve unless SetStatus says otherwise.
type Sandbox struct {
	mu      sync.Mutex
	intents map[string]Intent
}

// NewSandbox returns an empty sandbox provider.
func NewSandbox() *Sandbox {
	return &Sandbox{intents: make(map[string]Intent)}
}

// CreateIntent stores a new intent awaiting confirmation.
func (s *Sandbox) CreateIntent(_ context.Context, req IntentRequest) (Intent, error) {
	id := "pi_sandbox_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	intent := Intent{
		ID:            id,
		ClientSecret:  id + "_secret_" + uuid.NewString()[:8],
		Amount:        req.Amount,
		Currency:      strings.ToLower(req.Currency),
		Status:        StatusRequiresConfirmation,
		PaymentMethod: "card",
	}

	s.mu.Lock()
	s.intents[id] = intent
	s.mu.Unlock()
	return intent, nil
}

// Retrieve returns the intent, settling pending ones as succeeded.
func (s *Sandbox) Retrieve(_ context.Context, id string) (Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, ok := s.intents[id]
	if !ok {
		return Intent{}, ErrIntentNotFound
	}
	if intent.Status == StatusRequiresConfirmation {
		intent.Status = StatusSucceeded
		s.intents[id] = intent
	}
	return intent, nil
}

// SetStatus forces the status of a known intent.
func (s *Sandbox) SetStatus(id, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, ok := s.intents[id]
	if !ok {
		return false
	}
	intent.Status = status
	s.intents[id] = intent
	return true
}
