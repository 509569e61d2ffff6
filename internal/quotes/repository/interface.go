package repository

import (
	"context"

	"github.com/google/uuid"
)

// QuoteOrderStore persists quote orders and their files.
type QuoteOrderStore interface {
	// UpsertQuoteOrder inserts q or, when the id exists, refreshes its snapshot.
	UpsertQuoteOrder(ctx context.Context, q *QuoteOrder) error
	GetQuoteOrder(ctx context.Context, id uuid.UUID) (*QuoteOrder, error)
	SetQuoteOrderStatus(ctx context.Context, id uuid.UUID, status string) error
	MarkQuoteOrderConverted(ctx context.Context, id, orderID uuid.UUID) error
	// AddQuoteOrderFiles skips files already attached under the same URL.
	AddQuoteOrderFiles(ctx context.Context, files []QuoteOrderFile) error
	ListQuoteOrderFiles(ctx context.Context, quoteOrderID uuid.UUID) ([]QuoteOrderFile, error)
}

// OrderBuilderStateStore persists normalized builder state keyed by session.
type OrderBuilderStateStore interface {
	UpsertOrderBuilderState(ctx context.Context, s *OrderBuilderState) (uuid.UUID, error)
	GetOrderBuilderState(ctx context.Context, sessionID string) (*OrderBuilderState, error)
}

// ConversationStore persists conversations and their quote links.
type ConversationStore interface {
	GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error)
	// UpsertConversation creates the conversation or marks it as having a
	// quote. The owner is only set when the stored one is null; metadata
	// keys are merged.
	UpsertConversation(ctx context.Context, c *Conversation) error
	ClaimConversation(ctx context.Context, id, userID uuid.UUID) error
	MergeConversationMetadata(ctx context.Context, id uuid.UUID, patch map[string]any) error
	// LinkConversationQuote creates the bridge row if missing. The first
	// link of a conversation becomes its main quote.
	LinkConversationQuote(ctx context.Context, conversationID, quoteOrderID uuid.UUID) (ConversationQuote, bool, error)
	ListConversationQuotes(ctx context.Context, conversationID uuid.UUID) ([]ConversationQuote, error)
	// ListQuoteConversations returns the links of a quote across conversations.
	ListQuoteConversations(ctx context.Context, quoteOrderID uuid.UUID) ([]ConversationQuote, error)
}

// OrderStore persists orders.
type OrderStore interface {
	// CreateOrderForQuote returns the existing order when the quote was
	// already converted; created reports whether o was inserted.
	CreateOrderForQuote(ctx context.Context, o *Order) (Order, bool, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
}

// Store is everything the reconciliation service needs.
type Store interface {
	QuoteOrderStore
	OrderBuilderStateStore
	ConversationStore
	OrderStore
}

var _ Store = (*Repository)(nil)
