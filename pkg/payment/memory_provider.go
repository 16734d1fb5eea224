package payment

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryProvider is an in-memory Provider implementation for development and
// tests. Production deployments wire an adapter for the real processor here.
type MemoryProvider struct {
	intents map[string]Intent
	mu      sync.RWMutex
}

// NewMemoryProvider creates a new instance of MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		intents: make(map[string]Intent),
	}
}

// CreateIntent registers a new intent for the given amount.
func (p *MemoryProvider) CreateIntent(amount decimal.Decimal, currency string) (*Intent, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("intent amount must not be negative, got %s", amount)
	}
	if currency == "" {
		currency = "USD"
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	intent := Intent{
		ID:       "pi_" + uuid.New().String(),
		Amount:   amount,
		Currency: currency,
		Status:   IntentStatusRequiresPayment,
	}
	p.intents[intent.ID] = intent
	return &intent, nil
}

// GetIntent returns the intent stored under id.
func (p *MemoryProvider) GetIntent(id string) (*Intent, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	intent, ok := p.intents[id]
	if !ok {
		return nil, ErrIntentNotFound
	}
	return &intent, nil
}

// MarkSucceeded transitions an intent to the succeeded status. Only the
// in-memory provider exposes this; with a real processor the transition
// happens on the processor's side.
func (p *MemoryProvider) MarkSucceeded(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	intent, ok := p.intents[id]
	if !ok {
		return ErrIntentNotFound
	}
	intent.Status = IntentStatusSucceeded
	p.intents[id] = intent
	return nil
}
