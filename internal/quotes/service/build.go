package service

import (
	"context"

	"headwear_backend/internal/quotes/transport"
)

// Build prices the request message. Pricing stages degrade to defaults
// instead of failing, so a quote is always returned.
func (s *Service) Build(ctx context.Context, req transport.BuildQuoteRequest) transport.BuildQuoteResponse {
	result := s.builder.Build(ctx, req.Message)

	return transport.BuildQuoteResponse{
		Message:   result.Message,
		QuoteData: result.Quote,
		Metadata: transport.BuildQuoteMetadata{
			Metadata:       result.Metadata,
			Requirements:   result.Requirements,
			Warnings:       nonNil(result.Warnings),
			Intent:         req.Intent,
			SessionID:      req.SessionID,
			ConversationID: req.ConversationID,
		},
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
