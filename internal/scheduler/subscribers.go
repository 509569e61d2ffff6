package scheduler

import (
	"context"
	"strconv"

	"headwear_backend/internal/events"
	"headwear_backend/internal/quotes/repository"
	"headwear_backend/platform/logger"
)

// RegisterSubscribers turns quote events into background tasks.
func RegisterSubscribers(bus events.Bus, d *Dispatcher, log *logger.Logger) {
	if log == nil {
		log = logger.Nop()
	}

	bus.Subscribe(events.QuoteSavedName, events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		saved, ok := e.(events.QuoteSaved)
		if !ok {
			return nil
		}
		if err := d.ScheduleTitleSummary(ctx, saved.ConversationID); err != nil {
			log.BestEffortFailure("schedule_title_summary", err)
		}
		return d.ScheduleQuotePDF(ctx, saved.QuoteOrderID, strconv.FormatInt(saved.OccurredAt().UnixNano(), 10))
	}))

	bus.Subscribe(events.QuoteAcceptedName, events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		accepted, ok := e.(events.QuoteAccepted)
		if !ok {
			return nil
		}
		if err := d.ScheduleTitleSummary(ctx, accepted.ConversationID); err != nil {
			log.BestEffortFailure("schedule_title_summary", err)
		}
		return d.ScheduleQuotePDF(ctx, accepted.QuoteOrderID, repository.StatusConvertedToOrder)
	}))

	bus.Subscribe(events.QuoteRejectedName, events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		rejected, ok := e.(events.QuoteRejected)
		if !ok {
			return nil
		}
		return d.ScheduleTitleSummary(ctx, rejected.ConversationID)
	}))
}
