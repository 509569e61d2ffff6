// Package service implements quote building, saving and the quote/order
// reconciliation workflow.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"headwear_backend/internal/email"
	"headwear_backend/internal/events"
	"headwear_backend/internal/pdf"
	"headwear_backend/internal/quotebuilder"
	"headwear_backend/internal/quotes/repository"
	"headwear_backend/platform/apperr"
	"headwear_backend/platform/logger"
	"headwear_backend/platform/metrics"
)

// QuoteBuilder prices a free-text request.
type QuoteBuilder interface {
	Build(ctx context.Context, message string) quotebuilder.Result
}

// Notifier sends the acceptance emails. It never fails the caller.
type Notifier interface {
	NotifyQuoteAccepted(ctx context.Context, q email.QuoteAccepted) email.Results
}

// PDFRenderer renders quote documents, returning an empty buffer on failure.
type PDFRenderer interface {
	Render(ctx context.Context, doc pdf.Document) []byte
}

// Saga names used in logs and metrics.
const (
	sagaSave       = "save_quote"
	sagaSynthesize = "synthesize_quote"
	sagaAccept     = "accept_quote"
	sagaReject     = "reject_quote"
)

// Service provides business logic for quotes.
type Service struct {
	store    repository.Store
	builder  QuoteBuilder
	notifier Notifier    // optional: nil means no acceptance emails
	pdf      PDFRenderer // optional: nil means PDFs are unavailable
	eventBus events.Bus  // optional: nil means no domain events
	files    FileStore   // optional
	log      *logger.Logger
	now      func() time.Time
}

// New creates a new quotes service.
func New(store repository.Store, builder QuoteBuilder, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, builder: builder, log: log, now: time.Now}
}

// SetNotifier injects the acceptance email notifier.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetPDFRenderer injects the quote PDF renderer.
func (s *Service) SetPDFRenderer(r PDFRenderer) {
	s.pdf = r
}

// SetEventBus injects the domain event bus.
func (s *Service) SetEventBus(bus events.Bus) {
	s.eventBus = bus
}

// step runs one write of a saga. Typed errors pass through unchanged; any
// other failure becomes a dependency error naming the step. Earlier steps are
// never undone: every step is keyed so that a retry converges.
func (s *Service) step(ctx context.Context, saga, name string, fn func() error) error {
	err := fn()
	s.log.WithContext(ctx).SagaStep(saga, name, err)
	if err == nil {
		return nil
	}
	metrics.SagaStepFailures.WithLabelValues(saga, name).Inc()

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Dependency(fmt.Sprintf("%s failed at step %s", saga, name), err).
		WithDetails(map[string]string{"saga": saga, "step": name})
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.eventBus == nil {
		return
	}
	// Handlers run after the request returns.
	s.eventBus.Publish(context.WithoutCancel(ctx), event)
}
