package repository

import (
	"context"
	"errors"
	"fmt"

	"headwear_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	quoteNotFoundMsg        = "quote not found"
	conversationNotFoundMsg = "conversation not found"
	orderNotFoundMsg        = "order not found"
	stateNotFoundMsg        = "order builder state not found"
)

// Repository provides database operations for quotes, conversations and orders.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new quotes repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ── Quote orders ──────────────────────────────────────────────────────────────

const quoteOrderColumns = `
	id, session_id, user_id, COALESCE(title, ''), status,
	COALESCE(customer_name, ''), COALESCE(customer_email, ''), COALESCE(customer_phone, ''), COALESCE(customer_company, ''),
	COALESCE(product_type, ''), quantities, colors, logo_requirements, customization_options, extracted_specs,
	estimated_costs, converted_to_order_id, accepted_at, rejected_at, created_at, updated_at`

func scanQuoteOrder(row pgx.Row) (*QuoteOrder, error) {
	var q QuoteOrder
	err := row.Scan(
		&q.ID, &q.SessionID, &q.UserID, &q.Title, &q.Status,
		&q.CustomerName, &q.CustomerEmail, &q.CustomerPhone, &q.CustomerCompany,
		&q.ProductType, &q.Quantities, &q.Colors, &q.LogoRequirements, &q.CustomizationOptions, &q.ExtractedSpecs,
		&q.EstimatedCosts, &q.ConvertedToOrderID, &q.AcceptedAt, &q.RejectedAt, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// UpsertQuoteOrder inserts the quote order, or refreshes the snapshot of an
// existing one that has not been decided yet.
func (r *Repository) UpsertQuoteOrder(ctx context.Context, q *QuoteOrder) error {
	query := `
		INSERT INTO quote_orders (
			id, session_id, user_id, title, status,
			customer_name, customer_email, customer_phone, customer_company, product_type,
			quantities, colors, logo_requirements, customization_options, extracted_specs, estimated_costs
		) VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''),
			$11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			session_id = EXCLUDED.session_id,
			user_id = COALESCE(quote_orders.user_id, EXCLUDED.user_id),
			title = EXCLUDED.title,
			customer_name = COALESCE(EXCLUDED.customer_name, quote_orders.customer_name),
			customer_email = COALESCE(EXCLUDED.customer_email, quote_orders.customer_email),
			customer_phone = COALESCE(EXCLUDED.customer_phone, quote_orders.customer_phone),
			customer_company = COALESCE(EXCLUDED.customer_company, quote_orders.customer_company),
			product_type = EXCLUDED.product_type,
			quantities = EXCLUDED.quantities,
			colors = EXCLUDED.colors,
			logo_requirements = EXCLUDED.logo_requirements,
			customization_options = EXCLUDED.customization_options,
			extracted_specs = EXCLUDED.extracted_specs,
			estimated_costs = EXCLUDED.estimated_costs,
			updated_at = now()
		WHERE quote_orders.status = 'COMPLETED'
		RETURNING status, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		q.ID, q.SessionID, q.UserID, q.Title, q.Status,
		q.CustomerName, q.CustomerEmail, q.CustomerPhone, q.CustomerCompany, q.ProductType,
		jsonOrEmpty(q.Quantities), jsonOrEmpty(q.Colors), jsonOrEmpty(q.LogoRequirements),
		jsonOrEmpty(q.CustomizationOptions), jsonOrEmpty(q.ExtractedSpecs), q.EstimatedCosts,
	).Scan(&q.Status, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Conflict("quote has already been decided and can no longer change")
	}
	if err != nil {
		return fmt.Errorf("upsert quote order: %w", err)
	}
	return nil
}

// GetQuoteOrder loads one quote order.
func (r *Repository) GetQuoteOrder(ctx context.Context, id uuid.UUID) (*QuoteOrder, error) {
	q, err := scanQuoteOrder(r.pool.QueryRow(ctx, `SELECT `+quoteOrderColumns+` FROM quote_orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(quoteNotFoundMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("get quote order: %w", err)
	}
	return q, nil
}

// SetQuoteOrderStatus records a decision, stamping accepted_at or rejected_at.
func (r *Repository) SetQuoteOrderStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `
		UPDATE quote_orders SET
			status = $2,
			accepted_at = CASE WHEN $2 = 'ACCEPTED' THEN now() ELSE accepted_at END,
			rejected_at = CASE WHEN $2 = 'REJECTED' THEN now() ELSE rejected_at END,
			updated_at = now()
		WHERE id = $1 AND status <> 'CONVERTED_TO_ORDER'`

	tag, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("set quote order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("quote is not open for a decision")
	}
	return nil
}

// MarkQuoteOrderConverted points the quote at its order. Re-running it with
// the same order id is a no-op.
func (r *Repository) MarkQuoteOrderConverted(ctx context.Context, id, orderID uuid.UUID) error {
	query := `
		UPDATE quote_orders SET converted_to_order_id = $2, status = 'CONVERTED_TO_ORDER', updated_at = now()
		WHERE id = $1 AND (converted_to_order_id IS NULL OR converted_to_order_id = $2)`

	tag, err := r.pool.Exec(ctx, query, id, orderID)
	if err != nil {
		return fmt.Errorf("mark quote order converted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("quote was converted to a different order")
	}
	return nil
}

// AddQuoteOrderFiles inserts the files in one batch, skipping duplicates.
func (r *Repository) AddQuoteOrderFiles(ctx context.Context, files []QuoteOrderFile) error {
	if len(files) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, f := range files {
		batch.Queue(`
			INSERT INTO quote_order_files (id, quote_order_id, file_name, file_url, file_type, file_size, category)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
			ON CONFLICT (quote_order_id, file_url) DO NOTHING`,
			f.ID, f.QuoteOrderID, f.FileName, f.FileURL, f.FileType, f.FileSize, f.Category)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert quote order files: %w", err)
	}
	return nil
}

// ListQuoteOrderFiles returns a quote's files in upload order.
func (r *Repository) ListQuoteOrderFiles(ctx context.Context, quoteOrderID uuid.UUID) ([]QuoteOrderFile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, quote_order_id, file_name, file_url, COALESCE(file_type, ''), file_size, category, created_at
		FROM quote_order_files WHERE quote_order_id = $1 ORDER BY created_at, file_name`, quoteOrderID)
	if err != nil {
		return nil, fmt.Errorf("list quote order files: %w", err)
	}
	defer rows.Close()

	files := make([]QuoteOrderFile, 0)
	for rows.Next() {
		var f QuoteOrderFile
		if err := rows.Scan(&f.ID, &f.QuoteOrderID, &f.FileName, &f.FileURL, &f.FileType, &f.FileSize, &f.Category, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quote order file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// ── Order builder state ───────────────────────────────────────────────────────

// UpsertOrderBuilderState writes the session's state in place and returns its id.
func (r *Repository) UpsertOrderBuilderState(ctx context.Context, s *OrderBuilderState) (uuid.UUID, error) {
	query := `
		INSERT INTO order_builder_states (
			id, session_id, cap_style_setup, customization, delivery, cost_breakdown,
			current_step, is_completed, total_cost, total_units, state_version, metadata,
			original_format, original_metadata
		) VALUES ($1, $2, $3, $4, $5, $6, COALESCE(NULLIF($7, ''), 'cap-style'), $8, $9, $10, $11, $12, NULLIF($13, ''), $14)
		ON CONFLICT (session_id) DO UPDATE SET
			cap_style_setup = EXCLUDED.cap_style_setup,
			customization = EXCLUDED.customization,
			delivery = EXCLUDED.delivery,
			cost_breakdown = EXCLUDED.cost_breakdown,
			current_step = EXCLUDED.current_step,
			is_completed = EXCLUDED.is_completed,
			total_cost = EXCLUDED.total_cost,
			total_units = EXCLUDED.total_units,
			state_version = EXCLUDED.state_version,
			metadata = EXCLUDED.metadata,
			original_format = EXCLUDED.original_format,
			original_metadata = EXCLUDED.original_metadata,
			updated_at = now()
		RETURNING id, created_at, updated_at`

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, query,
		s.ID, s.SessionID, nullJSON(s.CapStyleSetup), nullJSON(s.Customization), nullJSON(s.Delivery), nullJSON(s.CostBreakdown),
		s.CurrentStep, s.IsCompleted, s.TotalCost, s.TotalUnits, s.StateVersion, jsonOrEmpty(s.Metadata),
		s.OriginalFormat, nullJSON(s.OriginalMetadata),
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert order builder state: %w", err)
	}
	return s.ID, nil
}

// GetOrderBuilderState loads the state stored for a session.
func (r *Repository) GetOrderBuilderState(ctx context.Context, sessionID string) (*OrderBuilderState, error) {
	var s OrderBuilderState
	err := r.pool.QueryRow(ctx, `
		SELECT id, session_id, cap_style_setup, customization, delivery, cost_breakdown, current_step, is_completed,
			total_cost, total_units, state_version, metadata, COALESCE(original_format, ''), original_metadata, created_at, updated_at
		FROM order_builder_states WHERE session_id = $1`, sessionID,
	).Scan(&s.ID, &s.SessionID, &s.CapStyleSetup, &s.Customization, &s.Delivery, &s.CostBreakdown, &s.CurrentStep, &s.IsCompleted,
		&s.TotalCost, &s.TotalUnits, &s.StateVersion, &s.Metadata, &s.OriginalFormat, &s.OriginalMetadata, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(stateNotFoundMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("get order builder state: %w", err)
	}
	return &s, nil
}

// ── Conversations ─────────────────────────────────────────────────────────────

// GetConversation loads one conversation.
func (r *Repository) GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	var c Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, title, summary, context, has_quote, quote_completed_at, metadata, created_at, updated_at
		FROM conversations WHERE id = $1`, id,
	).Scan(&c.ID, &c.UserID, &c.Title, &c.Summary, &c.Context, &c.HasQuote, &c.QuoteCompletedAt, &c.Metadata, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(conversationNotFoundMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if c.Metadata == nil {
		c.Metadata = map[string]any{}
	}
	return &c, nil
}

// UpsertConversation creates or updates the conversation's quote flags.
func (r *Repository) UpsertConversation(ctx context.Context, c *Conversation) error {
	if c.Context == "" {
		c.Context = DefaultConversationContext
	}
	metadata := c.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	query := `
		INSERT INTO conversations (id, user_id, title, context, has_quote, quote_completed_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			user_id = COALESCE(conversations.user_id, EXCLUDED.user_id),
			has_quote = conversations.has_quote OR EXCLUDED.has_quote,
			quote_completed_at = COALESCE(EXCLUDED.quote_completed_at, conversations.quote_completed_at),
			metadata = conversations.metadata || EXCLUDED.metadata,
			updated_at = now()
		RETURNING user_id, has_quote, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, c.ID, c.UserID, c.Title, c.Context, c.HasQuote, c.QuoteCompletedAt, metadata).
		Scan(&c.UserID, &c.HasQuote, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}
	return nil
}

// ClaimConversation assigns an owner to a guest conversation.
func (r *Repository) ClaimConversation(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE conversations SET user_id = $2, updated_at = now()
		WHERE id = $1 AND (user_id IS NULL OR user_id = $2)`, id, userID)
	if err != nil {
		return fmt.Errorf("claim conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Forbidden("conversation belongs to another user")
	}
	return nil
}

// MergeConversationMetadata merges patch into the stored metadata at the top level.
func (r *Repository) MergeConversationMetadata(ctx context.Context, id uuid.UUID, patch map[string]any) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE conversations SET metadata = metadata || $2::jsonb, updated_at = now() WHERE id = $1`, id, patch)
	if err != nil {
		return fmt.Errorf("merge conversation metadata: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(conversationNotFoundMsg)
	}
	return nil
}

// LinkConversationQuote inserts the bridge row once per pair. Concurrent
// first links race on the partial main-quote index; the loser is retried as
// a secondary link.
func (r *Repository) LinkConversationQuote(ctx context.Context, conversationID, quoteOrderID uuid.UUID) (ConversationQuote, bool, error) {
	insert := `
		INSERT INTO conversation_quotes (id, conversation_id, quote_order_id, is_main_quote)
		SELECT $1, $2, $3, $4 AND NOT EXISTS (
			SELECT 1 FROM conversation_quotes WHERE conversation_id = $2 AND is_main_quote
		)
		ON CONFLICT DO NOTHING`

	for _, allowMain := range []bool{true, false} {
		tag, err := r.pool.Exec(ctx, insert, uuid.New(), conversationID, quoteOrderID, allowMain)
		if err != nil {
			return ConversationQuote{}, false, fmt.Errorf("link conversation quote: %w", err)
		}
		link, err := r.getLink(ctx, conversationID, quoteOrderID)
		if err == nil {
			return link, tag.RowsAffected() > 0, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return ConversationQuote{}, false, fmt.Errorf("read conversation quote: %w", err)
		}
	}
	return ConversationQuote{}, false, fmt.Errorf("link conversation quote: row not visible after insert")
}

func (r *Repository) getLink(ctx context.Context, conversationID, quoteOrderID uuid.UUID) (ConversationQuote, error) {
	var l ConversationQuote
	err := r.pool.QueryRow(ctx, `
		SELECT id, conversation_id, quote_order_id, is_main_quote, created_at, updated_at
		FROM conversation_quotes WHERE conversation_id = $1 AND quote_order_id = $2`, conversationID, quoteOrderID,
	).Scan(&l.ID, &l.ConversationID, &l.QuoteOrderID, &l.IsMainQuote, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// ListConversationQuotes returns the links of a conversation, main quote first.
func (r *Repository) ListConversationQuotes(ctx context.Context, conversationID uuid.UUID) ([]ConversationQuote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, quote_order_id, is_main_quote, created_at, updated_at
		FROM conversation_quotes WHERE conversation_id = $1
		ORDER BY is_main_quote DESC, created_at DESC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list conversation quotes: %w", err)
	}
	defer rows.Close()

	links := make([]ConversationQuote, 0)
	for rows.Next() {
		var l ConversationQuote
		if err := rows.Scan(&l.ID, &l.ConversationID, &l.QuoteOrderID, &l.IsMainQuote, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation quote: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// ListQuoteConversations returns every conversation link of a quote.
func (r *Repository) ListQuoteConversations(ctx context.Context, quoteOrderID uuid.UUID) ([]ConversationQuote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, quote_order_id, is_main_quote, created_at, updated_at
		FROM conversation_quotes WHERE quote_order_id = $1
		ORDER BY created_at`, quoteOrderID)
	if err != nil {
		return nil, fmt.Errorf("list quote conversations: %w", err)
	}
	defer rows.Close()

	links := make([]ConversationQuote, 0)
	for rows.Next() {
		var l ConversationQuote
		if err := rows.Scan(&l.ID, &l.ConversationID, &l.QuoteOrderID, &l.IsMainQuote, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan quote conversation: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// ── Orders ────────────────────────────────────────────────────────────────────

const orderColumns = `
	id, user_id, quote_order_id, COALESCE(customer_email, ''), status, payment_status, production_status,
	total_amount, order_data, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.QuoteOrderID, &o.CustomerEmail, &o.Status, &o.PaymentStatus, &o.ProductionStatus,
		&o.TotalAmount, &o.OrderData, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrderForQuote inserts o unless the quote already has an order.
func (r *Repository) CreateOrderForQuote(ctx context.Context, o *Order) (Order, bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO orders (id, user_id, quote_order_id, customer_email, status, payment_status, production_status, total_amount, order_data)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9)
		ON CONFLICT (quote_order_id) DO NOTHING`,
		o.ID, o.UserID, o.QuoteOrderID, o.CustomerEmail, o.Status, o.PaymentStatus, o.ProductionStatus, o.TotalAmount, jsonOrEmpty(o.OrderData))
	if err != nil {
		return Order{}, false, fmt.Errorf("insert order: %w", err)
	}

	stored, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE quote_order_id = $1`, o.QuoteOrderID))
	if err != nil {
		return Order{}, false, fmt.Errorf("read order: %w", err)
	}
	return *stored, tag.RowsAffected() > 0, nil
}

// GetOrder loads one order.
func (r *Repository) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(orderNotFoundMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func jsonOrEmpty(b []byte) []byte {
	if len(b) == 0 {
		return []byte("{}")
	}
	return b
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
