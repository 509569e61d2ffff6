package scheduler

import (
	"context"
	"errors"

	"headwear_backend/internal/email"
	"headwear_backend/platform/logger"
	"headwear_backend/platform/metrics"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Dispatcher schedules side effects on the queue, or runs them inline when
// there is no queue.
type Dispatcher struct {
	client   *Client
	inline   *InlineExecutor
	handlers *Handlers
	log      *logger.Logger
}

// NewDispatcher builds a dispatcher. With a nil client every task runs
// through inline using handlers.
func NewDispatcher(client *Client, inline *InlineExecutor, handlers *Handlers, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	if inline == nil {
		inline = NewInlineExecutor(0, log)
	}
	if handlers == nil {
		handlers = &Handlers{}
	}
	return &Dispatcher{client: client, inline: inline, handlers: handlers, log: log}
}

// Queued reports whether tasks go through Redis.
func (d *Dispatcher) Queued() bool {
	return d.client != nil
}

func (d *Dispatcher) ScheduleTitleSummary(ctx context.Context, conversationID uuid.UUID) error {
	p := TitleSummaryPayload{ConversationID: conversationID.String()}
	return dispatch(ctx, d, TaskConversationTitleSummary, "title:"+p.ConversationID, p, NewTitleSummaryTask, d.handlers.TitleSummary)
}

// ScheduleQuotePDF renders and stores the quote PDF. Requests with the same
// version of the same quote collapse into one task.
func (d *Dispatcher) ScheduleQuotePDF(ctx context.Context, quoteOrderID uuid.UUID, version string) error {
	p := QuotePDFPayload{QuoteOrderID: quoteOrderID.String()}
	return dispatch(ctx, d, TaskQuotePDFRender, "pdf:"+p.QuoteOrderID+":"+version, p, NewQuotePDFTask, d.handlers.QuotePDF)
}

// EnqueueEmail implements email.Queue.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, msg email.Message) error {
	p := EmailPayload{Message: msg}
	return dispatch(ctx, d, TaskEmailSend, "", p, NewEmailTask, d.handlers.Email)
}

func dispatch[T any](ctx context.Context, d *Dispatcher, name, dedupeKey string, payload T,
	build func(T) (*asynq.Task, error), run func(context.Context, T) error) error {
	if d.client == nil {
		d.inline.Go(ctx, name, func(ctx context.Context) error { return run(ctx, payload) })
		metrics.TasksScheduled.WithLabelValues(name, "inline").Inc()
		return nil
	}

	task, err := build(payload)
	if err != nil {
		metrics.TasksScheduled.WithLabelValues(name, "failed").Inc()
		return err
	}
	err = d.client.Enqueue(ctx, task, dedupeKey)
	switch {
	case errors.Is(err, ErrDuplicate):
		metrics.TasksScheduled.WithLabelValues(name, "duplicate").Inc()
		return nil
	case err != nil:
		metrics.TasksScheduled.WithLabelValues(name, "failed").Inc()
		d.log.WithContext(ctx).BestEffortFailure("enqueue_"+name, err)
		return err
	}
	metrics.TasksScheduled.WithLabelValues(name, "queued").Inc()
	return nil
}
