package service

import (
	"context"
	"strings"
	"time"

	"headwear_backend/internal/email"
	"headwear_backend/internal/events"
	"headwear_backend/internal/quotes/repository"
	"headwear_backend/internal/quotes/transport"
	"headwear_backend/platform/apperr"
	"headwear_backend/platform/metrics"

	"github.com/google/uuid"
)

// UpdateStatus records the customer's decision on the conversation's quote.
// APPROVED converts the quote into an order; REJECTED only records the
// decision. A quote that exists only as an order builder snapshot in the
// conversation metadata is saved first.
func (s *Service) UpdateStatus(ctx context.Context, userID, conversationID uuid.UUID, status string) (transport.UpdateQuoteStatusResponse, error) {
	decision := transport.DecisionStatus(strings.ToUpper(strings.TrimSpace(status)))
	if decision != transport.DecisionApproved && decision != transport.DecisionRejected {
		return transport.UpdateQuoteStatusResponse{}, apperr.ValidationFields("invalid status", []apperr.FieldError{
			{Field: "status", Message: "must be APPROVED or REJECTED"},
		})
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return transport.UpdateQuoteStatusResponse{}, passOrDependency("load conversation", err)
	}
	if err := s.claim(ctx, conv, userID); err != nil {
		return transport.UpdateQuoteStatusResponse{}, err
	}

	det, err := s.detect(ctx, conv)
	if err != nil {
		return transport.UpdateQuoteStatusResponse{}, err
	}
	if det.quoteID == nil {
		if det.snapshot == nil {
			return transport.UpdateQuoteStatusResponse{}, apperr.NotFound("no quote found for conversation").WithDetails(det.report)
		}
		id, err := s.synthesize(ctx, conv, det.snapshot, userID)
		if err != nil {
			return transport.UpdateQuoteStatusResponse{}, err
		}
		det.choose(transport.SourceOrderBuilder, id)
		det.report.Synthesized = true
	}

	quote, err := s.store.GetQuoteOrder(ctx, *det.quoteID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return transport.UpdateQuoteStatusResponse{}, apperr.NotFound("no quote found for conversation").WithDetails(det.report)
		}
		return transport.UpdateQuoteStatusResponse{}, passOrDependency("load quote order", err)
	}
	if !visibleTo(quote.UserID, &userID) {
		return transport.UpdateQuoteStatusResponse{}, apperr.Forbidden("quote belongs to another user")
	}

	resp := transport.UpdateQuoteStatusResponse{
		QuoteOrderID:   quote.ID,
		PreviousStatus: quote.Status,
		QuoteStatus:    decision,
		Detection:      det.report,
	}

	if decision == transport.DecisionApproved {
		err = s.accept(ctx, conv, quote, userID, &resp)
	} else {
		err = s.reject(ctx, conv, quote, userID, &resp)
	}
	if err != nil {
		return transport.UpdateQuoteStatusResponse{}, err
	}

	metrics.StatusTransitions.WithLabelValues(resp.NewStatus, string(det.report.Source)).Inc()
	resp.Success = true
	return resp, nil
}

// claim applies the ownership rule: a guest conversation is claimed by the
// caller, a conversation owned by someone else is refused.
func (s *Service) claim(ctx context.Context, conv *repository.Conversation, userID uuid.UUID) error {
	if conv.UserID != nil {
		if *conv.UserID != userID {
			return apperr.Forbidden("conversation belongs to another user")
		}
		return nil
	}
	if err := s.store.ClaimConversation(ctx, conv.ID, userID); err != nil {
		return passOrDependency("claim conversation", err)
	}
	conv.UserID = &userID
	return nil
}

func (s *Service) accept(ctx context.Context, conv *repository.Conversation, quote *repository.QuoteOrder, userID uuid.UUID, resp *transport.UpdateQuoteStatusResponse) error {
	if quote.Status == repository.StatusRejected {
		s.log.WithContext(ctx).Info("quote_reconsidered", "quote_order_id", quote.ID.String())
	}

	// A converted quote only has the tail of the saga left to replay.
	if quote.Status != repository.StatusConvertedToOrder {
		err := s.step(ctx, sagaAccept, "set_quote_status", func() error {
			return s.store.SetQuoteOrderStatus(ctx, quote.ID, repository.StatusAccepted)
		})
		if err != nil {
			return err
		}
	}

	var order repository.Order
	var created bool
	err := s.step(ctx, sagaAccept, "create_order", func() error {
		data, err := orderData(quote)
		if err != nil {
			return err
		}
		order, created, err = s.store.CreateOrderForQuote(ctx, &repository.Order{
			ID:               uuid.New(),
			UserID:           &userID,
			QuoteOrderID:     quote.ID,
			CustomerEmail:    quote.CustomerEmail,
			Status:           repository.OrderStatusPending,
			PaymentStatus:    repository.PaymentStatusUnpaid,
			ProductionStatus: repository.ProductionStatusNotStarted,
			TotalAmount:      quote.EstimatedCosts.Total,
			OrderData:        data,
		})
		return err
	})
	if err != nil {
		return err
	}

	err = s.step(ctx, sagaAccept, "mark_quote_converted", func() error {
		return s.store.MarkQuoteOrderConverted(ctx, quote.ID, order.ID)
	})
	if err != nil {
		return err
	}

	now := s.now().UTC()
	err = s.step(ctx, sagaAccept, "update_conversation_metadata", func() error {
		return s.store.MergeConversationMetadata(ctx, conv.ID, map[string]any{
			"quoteStatus":     repository.StatusAccepted,
			"quoteAcceptedAt": now.Format(time.RFC3339),
			"quoteOrderId":    quote.ID.String(),
			"orderId":         order.ID.String(),
		})
	})
	if err != nil {
		return err
	}

	orderID := order.ID
	resp.NewStatus = repository.StatusConvertedToOrder
	resp.OrderCreated = created
	resp.OrderID = &orderID

	if !created {
		return nil
	}

	results := s.notifyAccepted(ctx, quote, order.ID)
	resp.EmailResults = &results

	s.publish(ctx, events.QuoteAccepted{
		BaseEvent:      events.NewBaseEvent(),
		QuoteOrderID:   quote.ID,
		ConversationID: conv.ID,
		OrderID:        order.ID,
		UserID:         &userID,
		CustomerEmail:  quote.CustomerEmail,
		Total:          quote.EstimatedCosts.Total,
	})
	s.publish(ctx, events.OrderCreated{
		BaseEvent:    events.NewBaseEvent(),
		OrderID:      order.ID,
		QuoteOrderID: quote.ID,
		UserID:       &userID,
		TotalAmount:  order.TotalAmount,
	})
	return nil
}

func (s *Service) notifyAccepted(ctx context.Context, quote *repository.QuoteOrder, orderID uuid.UUID) email.Results {
	if s.notifier == nil {
		return email.Results{CustomerError: "notifications disabled", AdminError: "notifications disabled"}
	}
	return s.notifier.NotifyQuoteAccepted(ctx, acceptedEmail(quote, orderID))
}

func (s *Service) reject(ctx context.Context, conv *repository.Conversation, quote *repository.QuoteOrder, userID uuid.UUID, resp *transport.UpdateQuoteStatusResponse) error {
	err := s.step(ctx, sagaReject, "set_quote_status", func() error {
		if quote.Status == repository.StatusConvertedToOrder {
			return apperr.Conflict("quote was already converted to an order")
		}
		return s.store.SetQuoteOrderStatus(ctx, quote.ID, repository.StatusRejected)
	})
	if err != nil {
		return err
	}

	now := s.now().UTC()
	err = s.step(ctx, sagaReject, "update_conversation_metadata", func() error {
		return s.store.MergeConversationMetadata(ctx, conv.ID, map[string]any{
			"quoteStatus":     repository.StatusRejected,
			"quoteRejectedAt": now.Format(time.RFC3339),
			"quoteOrderId":    quote.ID.String(),
		})
	})
	if err != nil {
		return err
	}

	resp.NewStatus = repository.StatusRejected
	s.publish(ctx, events.QuoteRejected{
		BaseEvent:      events.NewBaseEvent(),
		QuoteOrderID:   quote.ID,
		ConversationID: conv.ID,
		UserID:         &userID,
	})
	return nil
}

// passOrDependency keeps typed errors and wraps driver failures.
func passOrDependency(op string, err error) error {
	if apperr.GetKind(err) != apperr.KindUnknown {
		return err
	}
	return apperr.Dependency(op, err)
}
