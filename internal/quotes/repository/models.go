package repository

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Quote order statuses. COMPLETED means awaiting the customer's decision.
const (
	StatusCompleted        = "COMPLETED"
	StatusAccepted         = "ACCEPTED"
	StatusRejected         = "REJECTED"
	StatusConvertedToOrder = "CONVERTED_TO_ORDER"
)

// Order statuses set on creation.
const (
	OrderStatusPending         = "PENDING"
	PaymentStatusUnpaid        = "UNPAID"
	ProductionStatusNotStarted = "NOT_STARTED"
	FileCategoryLogo           = "LOGO"
	DefaultConversationContext = "SUPPORT"
)

// EstimatedCosts is the persisted cost breakdown. LogosCost excludes mold
// charges, so Total is the sum of the seven components.
type EstimatedCosts struct {
	Total              float64         `json:"total"`
	BaseProductCost    float64         `json:"baseProductCost"`
	LogosCost          float64         `json:"logosCost"`
	AccessoriesCost    float64         `json:"accessoriesCost"`
	DeliveryCost       float64         `json:"deliveryCost"`
	PremiumFabricCost  float64         `json:"premiumFabricCost"`
	PremiumClosureCost float64         `json:"premiumClosureCost"`
	MoldCharges        float64         `json:"moldCharges"`
	Quantity           int             `json:"quantity"`
	OrderBuilderData   json.RawMessage `json:"orderBuilderData,omitempty"`
}

// QuoteOrder is the database model for a customer-facing quote.
type QuoteOrder struct {
	ID                   uuid.UUID       `db:"id" json:"id"`
	SessionID            string          `db:"session_id" json:"sessionId"`
	UserID               *uuid.UUID      `db:"user_id" json:"userId,omitempty"`
	Title                string          `db:"title" json:"title"`
	Status               string          `db:"status" json:"status"`
	CustomerName         string          `db:"customer_name" json:"customerName,omitempty"`
	CustomerEmail        string          `db:"customer_email" json:"customerEmail,omitempty"`
	CustomerPhone        string          `db:"customer_phone" json:"customerPhone,omitempty"`
	CustomerCompany      string          `db:"customer_company" json:"customerCompany,omitempty"`
	ProductType          string          `db:"product_type" json:"productType,omitempty"`
	Quantities           json.RawMessage `db:"quantities" json:"quantities"`
	Colors               json.RawMessage `db:"colors" json:"colors"`
	LogoRequirements     json.RawMessage `db:"logo_requirements" json:"logoRequirements"`
	CustomizationOptions json.RawMessage `db:"customization_options" json:"customizationOptions"`
	ExtractedSpecs       json.RawMessage `db:"extracted_specs" json:"extractedSpecs"`
	EstimatedCosts       EstimatedCosts  `db:"estimated_costs" json:"estimatedCosts"`
	ConvertedToOrderID   *uuid.UUID      `db:"converted_to_order_id" json:"convertedToOrderId,omitempty"`
	AcceptedAt           *time.Time      `db:"accepted_at" json:"acceptedAt,omitempty"`
	RejectedAt           *time.Time      `db:"rejected_at" json:"rejectedAt,omitempty"`
	CreatedAt            time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updatedAt"`
}

// QuoteOrderFile is an uploaded artwork or reference file.
type QuoteOrderFile struct {
	ID           uuid.UUID `db:"id" json:"id"`
	QuoteOrderID uuid.UUID `db:"quote_order_id" json:"quoteOrderId"`
	FileName     string    `db:"file_name" json:"fileName"`
	FileURL      string    `db:"file_url" json:"fileUrl"`
	FileType     string    `db:"file_type" json:"fileType,omitempty"`
	FileSize     int64     `db:"file_size" json:"fileSize"`
	Category     string    `db:"category" json:"category"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// OrderBuilderState is one session's normalized builder state as stored.
type OrderBuilderState struct {
	ID               uuid.UUID       `db:"id"`
	SessionID        string          `db:"session_id"`
	CapStyleSetup    json.RawMessage `db:"cap_style_setup"`
	Customization    json.RawMessage `db:"customization"`
	Delivery         json.RawMessage `db:"delivery"`
	CostBreakdown    json.RawMessage `db:"cost_breakdown"`
	CurrentStep      string          `db:"current_step"`
	IsCompleted      bool            `db:"is_completed"`
	TotalCost        float64         `db:"total_cost"`
	TotalUnits       int             `db:"total_units"`
	StateVersion     int             `db:"state_version"`
	Metadata         json.RawMessage `db:"metadata"`
	OriginalFormat   string          `db:"original_format"`
	OriginalMetadata json.RawMessage `db:"original_metadata"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// Conversation is a chat thread that may carry quote data in its metadata.
type Conversation struct {
	ID               uuid.UUID      `db:"id" json:"id"`
	UserID           *uuid.UUID     `db:"user_id" json:"userId,omitempty"`
	Title            *string        `db:"title" json:"title,omitempty"`
	Summary          *string        `db:"summary" json:"summary,omitempty"`
	Context          string         `db:"context" json:"context"`
	HasQuote         bool           `db:"has_quote" json:"hasQuote"`
	QuoteCompletedAt *time.Time     `db:"quote_completed_at" json:"quoteCompletedAt,omitempty"`
	Metadata         map[string]any `db:"metadata" json:"metadata"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updatedAt"`
}

// ConversationQuote links a conversation to a quote order.
type ConversationQuote struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ConversationID uuid.UUID `db:"conversation_id" json:"conversationId"`
	QuoteOrderID   uuid.UUID `db:"quote_order_id" json:"quoteOrderId"`
	IsMainQuote    bool      `db:"is_main_quote" json:"isMainQuote"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// Order is created when a quote is accepted.
type Order struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	UserID           *uuid.UUID      `db:"user_id" json:"userId,omitempty"`
	QuoteOrderID     uuid.UUID       `db:"quote_order_id" json:"quoteOrderId"`
	CustomerEmail    string          `db:"customer_email" json:"customerEmail,omitempty"`
	Status           string          `db:"status" json:"status"`
	PaymentStatus    string          `db:"payment_status" json:"paymentStatus"`
	ProductionStatus string          `db:"production_status" json:"productionStatus"`
	TotalAmount      float64         `db:"total_amount" json:"totalAmount"`
	OrderData        json.RawMessage `db:"order_data" json:"orderData"`
	CreatedAt        time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updatedAt"`
}
