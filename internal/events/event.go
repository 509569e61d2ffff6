// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"headwear_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// Event names.
const (
	QuoteSavedName    = "quotes.quote.saved"
	QuoteAcceptedName = "quotes.quote.accepted"
	QuoteRejectedName = "quotes.quote.rejected"
	OrderCreatedName  = "orders.order.created"
)

// =============================================================================
// Quotes Domain Events
// =============================================================================

// QuoteSaved is published after a quote and its links are persisted.
type QuoteSaved struct {
	BaseEvent
	QuoteOrderID   uuid.UUID  `json:"quoteOrderId"`
	ConversationID uuid.UUID  `json:"conversationId"`
	SessionID      string     `json:"sessionId"`
	UserID         *uuid.UUID `json:"userId,omitempty"`
	Synthesized    bool       `json:"synthesized"`
}

func (e QuoteSaved) EventName() string { return QuoteSavedName }

// QuoteAccepted is published when a customer approves a quote.
type QuoteAccepted struct {
	BaseEvent
	QuoteOrderID   uuid.UUID  `json:"quoteOrderId"`
	ConversationID uuid.UUID  `json:"conversationId"`
	OrderID        uuid.UUID  `json:"orderId"`
	UserID         *uuid.UUID `json:"userId,omitempty"`
	CustomerEmail  string     `json:"customerEmail,omitempty"`
	Total          float64    `json:"total"`
}

func (e QuoteAccepted) EventName() string { return QuoteAcceptedName }

// QuoteRejected is published when a customer declines a quote.
type QuoteRejected struct {
	BaseEvent
	QuoteOrderID   uuid.UUID  `json:"quoteOrderId"`
	ConversationID uuid.UUID  `json:"conversationId"`
	UserID         *uuid.UUID `json:"userId,omitempty"`
}

func (e QuoteRejected) EventName() string { return QuoteRejectedName }

// =============================================================================
// Orders Domain Events
// =============================================================================

// OrderCreated is published once per accepted quote.
type OrderCreated struct {
	BaseEvent
	OrderID      uuid.UUID  `json:"orderId"`
	QuoteOrderID uuid.UUID  `json:"quoteOrderId"`
	UserID       *uuid.UUID `json:"userId,omitempty"`
	TotalAmount  float64    `json:"totalAmount"`
}

func (e OrderCreated) EventName() string { return OrderCreatedName }
