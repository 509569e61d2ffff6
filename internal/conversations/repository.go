package conversations

import (
	"context"
	"errors"
	"fmt"

	"headwear_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Conversation is the slice of a conversation the summarizer reads.
type Conversation struct {
	ID       uuid.UUID
	Title    *string
	Summary  *string
	Metadata map[string]any
}

// Store is the persistence the title/summary refresh needs.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*Conversation, error)
	SetTitleSummary(ctx context.Context, id uuid.UUID, title, summary string) error
}

// Repository reads and writes conversation titles with pgx.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	var c Conversation
	err := r.pool.QueryRow(ctx, `SELECT id, title, summary, metadata FROM conversations WHERE id = $1`, id).
		Scan(&c.ID, &c.Title, &c.Summary, &c.Metadata)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("conversation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if c.Metadata == nil {
		c.Metadata = map[string]any{}
	}
	return &c, nil
}

// SetTitleSummary keeps a title the customer chose and always replaces the summary.
func (r *Repository) SetTitleSummary(ctx context.Context, id uuid.UUID, title, summary string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE conversations
		SET title = COALESCE(NULLIF(title, ''), $2), summary = $3, updated_at = now()
		WHERE id = $1`, id, title, summary)
	if err != nil {
		return fmt.Errorf("set conversation title: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("conversation not found")
	}
	return nil
}
