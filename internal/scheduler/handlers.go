package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"headwear_backend/internal/email"
	"headwear_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TitleRefresher regenerates a conversation's title and summary.
type TitleRefresher interface {
	RefreshTitle(ctx context.Context, conversationID uuid.UUID) error
}

// QuoteRenderer renders a stored quote to PDF.
type QuoteRenderer interface {
	RenderQuote(ctx context.Context, quoteOrderID uuid.UUID) ([]byte, string, error)
}

// PDFStore keeps rendered PDFs.
type PDFStore interface {
	UploadQuotePDF(ctx context.Context, quoteID uuid.UUID, fileName string, body []byte) (string, error)
}

// Handlers runs the work behind each task type. Any collaborator may be nil,
// in which case its task is acknowledged and dropped.
type Handlers struct {
	Titles   TitleRefresher
	Renderer QuoteRenderer
	PDFs     PDFStore
	Sender   email.Sender
	Log      *logger.Logger
}

func (h *Handlers) logger() *logger.Logger {
	if h.Log == nil {
		return logger.Nop()
	}
	return h.Log
}

func (h *Handlers) TitleSummary(ctx context.Context, p TitleSummaryPayload) error {
	if h.Titles == nil {
		return nil
	}
	id, err := uuid.Parse(p.ConversationID)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return h.Titles.RefreshTitle(ctx, id)
}

func (h *Handlers) QuotePDF(ctx context.Context, p QuotePDFPayload) error {
	if h.Renderer == nil || h.PDFs == nil {
		return nil
	}
	id, err := uuid.Parse(p.QuoteOrderID)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	body, name, err := h.Renderer.RenderQuote(ctx, id)
	if err != nil {
		return err
	}
	key, err := h.PDFs.UploadQuotePDF(ctx, id, name, body)
	if err != nil {
		return err
	}
	h.logger().WithContext(ctx).Debug("quote pdf stored",
		slog.String("quote_order_id", id.String()),
		slog.String("object_key", key),
	)
	return nil
}

func (h *Handlers) Email(ctx context.Context, p EmailPayload) error {
	if h.Sender == nil {
		return nil
	}
	return h.Sender.Send(ctx, p.Message)
}

// register binds the handlers to asynq task types.
func (h *Handlers) register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskConversationTitleSummary, adapt(h.TitleSummary))
	mux.HandleFunc(TaskQuotePDFRender, adapt(h.QuotePDF))
	mux.HandleFunc(TaskEmailSend, adapt(h.Email))
}

func adapt[T any](fn func(context.Context, T) error) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		payload, err := parsePayload[T](task)
		if err != nil {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return fn(ctx, payload)
	}
}
