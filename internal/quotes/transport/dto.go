package transport

import (
	"encoding/json"

	"headwear_backend/internal/email"
	"headwear_backend/internal/extract"
	"headwear_backend/internal/quotebuilder"
	"headwear_backend/internal/quotes/repository"

	"github.com/google/uuid"
)

// DecisionStatus is the caller-facing status input of a quote decision.
type DecisionStatus string

const (
	DecisionApproved DecisionStatus = "APPROVED"
	DecisionRejected DecisionStatus = "REJECTED"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// ChatTurn is one earlier message of the conversation.
type ChatTurn struct {
	Role    string `json:"role" validate:"omitempty,oneof=user assistant system"`
	Content string `json:"content" validate:"max=8000"`
}

// BuildQuoteRequest asks for a structured quote from a free-text message.
type BuildQuoteRequest struct {
	Message             string     `json:"message" validate:"required,min=1,max=4000"`
	Intent              string     `json:"intent" validate:"max=100"`
	ConversationHistory []ChatTurn `json:"conversationHistory" validate:"max=100,dive"`
	SessionID           string     `json:"sessionId" validate:"max=200"`
	ConversationID      *uuid.UUID `json:"conversationId,omitempty"`
}

// UploadedFile is an artwork file already stored by the client.
type UploadedFile struct {
	FileName string `json:"fileName" validate:"required,max=500"`
	FileURL  string `json:"fileUrl" validate:"required,url,max=2000"`
	FileType string `json:"fileType" validate:"max=200"`
	FileSize int64  `json:"fileSize" validate:"min=0"`
	Category string `json:"category" validate:"omitempty,max=50"`
}

// CustomerInfo is the contact data captured in the chat.
type CustomerInfo struct {
	Name    string `json:"name" validate:"max=200"`
	Email   string `json:"email" validate:"omitempty,email,max=320"`
	Phone   string `json:"phone" validate:"max=50"`
	Company string `json:"company" validate:"max=200"`
}

// SaveQuoteRequest persists the session's order builder state as a quote.
type SaveQuoteRequest struct {
	ConversationID    *uuid.UUID      `json:"conversationId,omitempty"`
	QuoteOrderID      *uuid.UUID      `json:"quoteOrderId,omitempty"`
	SessionID         string          `json:"sessionId" validate:"required,max=200"`
	OrderBuilderState json.RawMessage `json:"orderBuilderState" validate:"required"`
	UploadedFiles     []UploadedFile  `json:"uploadedFiles" validate:"max=50,dive"`
	CustomerInfo      *CustomerInfo   `json:"customerInfo,omitempty"`
	Title             string          `json:"title" validate:"max=200"`
}

// UpdateQuoteStatusRequest records the customer's decision on a conversation's quote.
type UpdateQuoteStatusRequest struct {
	Status string `json:"status" validate:"required,quotestatus"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// BuildQuoteMetadata describes how the quote was produced.
type BuildQuoteMetadata struct {
	quotebuilder.Metadata
	Requirements   extract.Requirements `json:"requirements"`
	Warnings       []string             `json:"warnings"`
	Intent         string               `json:"intent,omitempty"`
	SessionID      string               `json:"sessionId,omitempty"`
	ConversationID *uuid.UUID           `json:"conversationId,omitempty"`
}

// BuildQuoteResponse is the structured quote plus its chat rendering.
type BuildQuoteResponse struct {
	Message   string                       `json:"message"`
	QuoteData quotebuilder.StructuredQuote `json:"quoteData"`
	Metadata  BuildQuoteMetadata           `json:"metadata"`
}

// SaveQuoteResponse confirms a saved quote.
type SaveQuoteResponse struct {
	ConversationID       uuid.UUID `json:"conversationId"`
	QuoteOrderID         uuid.UUID `json:"quoteOrderId"`
	OrderBuilderStateID  uuid.UUID `json:"orderBuilderStateId"`
	HasQuote             bool      `json:"hasQuote"`
	ReadyForAcceptance   bool      `json:"readyForAcceptance"`
	ConversationLinked   bool      `json:"conversationLinked"`
	NormalizationWarning []string  `json:"normalizationWarnings,omitempty"`
}

// DetectionSource names where quote evidence was found.
type DetectionSource string

const (
	SourceNone         DetectionSource = ""
	SourceLegacy       DetectionSource = "legacy"
	SourceLink         DetectionSource = "conversation_quotes"
	SourceOrderBuilder DetectionSource = "order_builder"
)

// DetectionReport lists which quote sources were checked for a conversation.
type DetectionReport struct {
	ConversationID   uuid.UUID       `json:"conversationId"`
	Source           DetectionSource `json:"source"`
	QuoteOrderID     *uuid.UUID      `json:"quoteOrderId,omitempty"`
	LegacyFlag       bool            `json:"legacyFlag"`
	LinkFound        bool            `json:"linkFound"`
	OrderBuilderData bool            `json:"orderBuilderData"`
	Synthesized      bool            `json:"synthesized"`
}

// UpdateQuoteStatusResponse is the outcome of a quote decision.
type UpdateQuoteStatusResponse struct {
	Success        bool            `json:"success"`
	QuoteOrderID   uuid.UUID       `json:"quoteOrderId"`
	PreviousStatus string          `json:"previousStatus"`
	NewStatus      string          `json:"newStatus"`
	QuoteStatus    DecisionStatus  `json:"quoteStatus"`
	OrderCreated   bool            `json:"orderCreated"`
	OrderID        *uuid.UUID      `json:"orderId,omitempty"`
	EmailResults   *email.Results  `json:"emailResults,omitempty"`
	Detection      DetectionReport `json:"detection"`
}

// QuoteOrderResponse is a quote with its attached files.
type QuoteOrderResponse struct {
	repository.QuoteOrder
	Files []repository.QuoteOrderFile `json:"files"`
}

// ConversationQuotesResponse lists the quotes linked to a conversation.
type ConversationQuotesResponse struct {
	ConversationID uuid.UUID                      `json:"conversationId"`
	Quotes         []repository.ConversationQuote `json:"quotes"`
}

// AttachmentUploadRequest asks for a presigned artwork upload.
type AttachmentUploadRequest struct {
	ConversationID uuid.UUID `json:"conversationId" validate:"required"`
	FileName       string    `json:"fileName" validate:"required,max=255"`
	ContentType    string    `json:"contentType" validate:"required"`
	Size           int64     `json:"size" validate:"required,gt=0"`
}
