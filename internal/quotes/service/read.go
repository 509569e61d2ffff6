package service

import (
	"context"

	"headwear_backend/internal/quotes/repository"
	"headwear_backend/internal/quotes/transport"
	"headwear_backend/platform/apperr"

	"github.com/google/uuid"
)

// Owned rows are invisible to everyone else; guest rows are readable by
// anyone holding the id.
func visibleTo(owner, caller *uuid.UUID) bool {
	return owner == nil || (caller != nil && *owner == *caller)
}

func (s *Service) visibleConversation(ctx context.Context, userID *uuid.UUID, id uuid.UUID) (*repository.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return nil, passOrDependency("load conversation", err)
	}
	if !visibleTo(conv.UserID, userID) {
		return nil, apperr.NotFound("conversation not found")
	}
	return conv, nil
}

func (s *Service) visibleQuote(ctx context.Context, userID *uuid.UUID, id uuid.UUID) (*repository.QuoteOrder, error) {
	q, err := s.store.GetQuoteOrder(ctx, id)
	if err != nil {
		return nil, passOrDependency("load quote order", err)
	}
	if !visibleTo(q.UserID, userID) {
		return nil, apperr.NotFound("quote not found")
	}
	return q, nil
}

// GetQuote returns a quote and its files.
func (s *Service) GetQuote(ctx context.Context, userID *uuid.UUID, id uuid.UUID) (transport.QuoteOrderResponse, error) {
	q, err := s.visibleQuote(ctx, userID, id)
	if err != nil {
		return transport.QuoteOrderResponse{}, err
	}
	files, err := s.store.ListQuoteOrderFiles(ctx, id)
	if err != nil {
		return transport.QuoteOrderResponse{}, passOrDependency("list quote files", err)
	}
	return transport.QuoteOrderResponse{QuoteOrder: *q, Files: files}, nil
}

// ListConversationQuotes returns the quotes linked to a conversation, main quote first.
func (s *Service) ListConversationQuotes(ctx context.Context, userID *uuid.UUID, conversationID uuid.UUID) (transport.ConversationQuotesResponse, error) {
	if _, err := s.visibleConversation(ctx, userID, conversationID); err != nil {
		return transport.ConversationQuotesResponse{}, err
	}
	links, err := s.store.ListConversationQuotes(ctx, conversationID)
	if err != nil {
		return transport.ConversationQuotesResponse{}, passOrDependency("list conversation quotes", err)
	}
	return transport.ConversationQuotesResponse{ConversationID: conversationID, Quotes: links}, nil
}

// GetOrder returns an order.
func (s *Service) GetOrder(ctx context.Context, userID *uuid.UUID, id uuid.UUID) (*repository.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, passOrDependency("load order", err)
	}
	if !visibleTo(o.UserID, userID) {
		return nil, apperr.NotFound("order not found")
	}
	return o, nil
}

// QuotePDF renders the quote document for the caller.
func (s *Service) QuotePDF(ctx context.Context, userID *uuid.UUID, id uuid.UUID) ([]byte, string, error) {
	q, err := s.visibleQuote(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}
	return s.render(ctx, q)
}

// RenderQuote renders a stored quote for archiving. It skips the visibility
// check and is only reachable from background tasks.
func (s *Service) RenderQuote(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	q, err := s.store.GetQuoteOrder(ctx, id)
	if err != nil {
		return nil, "", passOrDependency("load quote order", err)
	}
	return s.render(ctx, q)
}

// render reports an empty document as an unavailable dependency, since the
// renderer itself never fails.
func (s *Service) render(ctx context.Context, q *repository.QuoteOrder) ([]byte, string, error) {
	if s.pdf == nil {
		return nil, "", apperr.Dependency("quote PDFs are not available", nil)
	}
	doc := pdfDocument(q)
	body := s.pdf.Render(ctx, doc)
	if len(body) == 0 {
		return nil, "", apperr.Dependency("quote PDF could not be rendered", nil)
	}
	return body, doc.Number() + ".pdf", nil
}
