// Package quotes provides the quote building and reconciliation domain module.
package quotes

import (
	apphttp "headwear_backend/internal/http"
	"headwear_backend/internal/quotebuilder"
	"headwear_backend/internal/quotes/handler"
	"headwear_backend/internal/quotes/repository"
	"headwear_backend/internal/quotes/service"
	"headwear_backend/platform/events"
	"headwear_backend/platform/logger"
	"headwear_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the quotes domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new quotes module with all dependencies wired.
// Notifier and PDF renderer are injected on the returned service.
func NewModule(pool *pgxpool.Pool, catalogs quotebuilder.CatalogSource, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, quotebuilder.New(catalogs, log), log)
	svc.SetEventBus(eventBus)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "quotes"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	guest := ctx.Guest.Group("/quotes")
	if ctx.QuoteRateLimiter != nil {
		guest.Use(ctx.QuoteRateLimiter.RateLimit())
	}
	guest.POST("/build", m.handler.Build)
	guest.POST("/save", m.handler.Save)
	guest.POST("/attachments", m.handler.AttachmentUploadURL)

	ctx.Protected.GET("/quotes/:id", m.handler.GetQuote)
	ctx.Protected.GET("/quotes/:id/pdf", m.handler.DownloadPDF)
	ctx.Protected.GET("/quotes/:id/pdf-url", m.handler.PDFLink)
	ctx.Protected.PATCH("/conversations/:id/quote-status", m.handler.UpdateQuoteStatus)
	ctx.Protected.GET("/conversations/:id/quotes", m.handler.ListConversationQuotes)
	ctx.Protected.GET("/conversations/:id/quote-detection", m.handler.DetectQuote)
	ctx.Protected.GET("/orders/:id", m.handler.GetOrder)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
