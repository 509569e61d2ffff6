package service

import (
	"context"
	"encoding/json"
	"fmt"

	"headwear_backend/internal/events"
	"headwear_backend/internal/orderbuilder"
	"headwear_backend/internal/quotebuilder"
	"headwear_backend/internal/quotes/repository"
	"headwear_backend/internal/quotes/transport"
	"headwear_backend/platform/apperr"

	"github.com/google/uuid"
)

// detection is the outcome of looking for a conversation's quote.
type detection struct {
	report   transport.DetectionReport
	quoteID  *uuid.UUID
	snapshot map[string]any
}

// Detect reports which quote sources exist for a conversation.
func (s *Service) Detect(ctx context.Context, userID *uuid.UUID, conversationID uuid.UUID) (transport.DetectionReport, error) {
	conv, err := s.visibleConversation(ctx, userID, conversationID)
	if err != nil {
		return transport.DetectionReport{}, err
	}
	det, err := s.detect(ctx, conv)
	if err != nil {
		return transport.DetectionReport{}, err
	}
	return det.report, nil
}

// detect checks, in priority order, the legacy metadata flag, the
// conversation links, and the order builder snapshot. All three are
// inspected so the report is complete; the first that yields a quote wins.
func (s *Service) detect(ctx context.Context, conv *repository.Conversation) (detection, error) {
	det := detection{report: transport.DetectionReport{ConversationID: conv.ID}}

	if id, ok := legacyQuoteID(conv); ok {
		det.report.LegacyFlag = true
		_, err := s.store.GetQuoteOrder(ctx, id)
		switch {
		case err == nil:
			det.choose(transport.SourceLegacy, id)
		case !apperr.Is(err, apperr.KindNotFound):
			return detection{}, apperr.Dependency("load quote order", err)
		}
	}

	links, err := s.store.ListConversationQuotes(ctx, conv.ID)
	if err != nil {
		return detection{}, apperr.Dependency("list conversation quotes", err)
	}
	if len(links) > 0 {
		det.report.LinkFound = true
		det.choose(transport.SourceLink, mainLink(links).QuoteOrderID)
	}

	if snap, ok := orderBuilderSnapshot(conv.Metadata); ok {
		det.report.OrderBuilderData = true
		det.snapshot = snap
		if det.quoteID == nil {
			det.report.Source = transport.SourceOrderBuilder
		}
	}
	return det, nil
}

func (d *detection) choose(source transport.DetectionSource, id uuid.UUID) {
	if d.quoteID != nil {
		return
	}
	d.quoteID = &id
	d.report.Source = source
	d.report.QuoteOrderID = &id
}

func mainLink(links []repository.ConversationQuote) repository.ConversationQuote {
	for _, l := range links {
		if l.IsMainQuote {
			return l
		}
	}
	return links[0]
}

func legacyQuoteID(conv *repository.Conversation) (uuid.UUID, bool) {
	if !conv.HasQuote {
		return uuid.Nil, false
	}
	if flag, _ := conv.Metadata["hasQuoteData"].(bool); !flag {
		return uuid.Nil, false
	}
	raw, _ := conv.Metadata["quoteOrderId"].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// orderBuilderSnapshot returns metadata.orderBuilder when it carries a
// completed cost breakdown or at least one quote version.
func orderBuilderSnapshot(meta map[string]any) (map[string]any, bool) {
	ob, ok := meta["orderBuilder"].(map[string]any)
	if !ok {
		return nil, false
	}
	if versions, ok := ob["quoteVersions"].([]any); ok && len(versions) > 0 {
		return ob, true
	}
	for _, status := range []any{ob["orderBuilderStatus"], meta["orderBuilderStatus"], ob} {
		if costBreakdownCompleted(status) {
			return ob, true
		}
	}
	return nil, false
}

func costBreakdownCompleted(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	cb, ok := m["costBreakdown"].(map[string]any)
	if !ok {
		return false
	}
	done, _ := cb["completed"].(bool)
	return done
}

// synthesisInput shapes a snapshot for the normalizer. The latest quote
// version supplies pricing when the snapshot has none, and a cap style is
// assumed when the chat never named one.
func synthesisInput(snap map[string]any) (json.RawMessage, error) {
	in := make(map[string]any, len(snap)+2)
	for k, v := range snap {
		in[k] = v
	}
	_, hasPricing := in["pricing"]
	_, hasBreakdown := in["costBreakdown"]
	if !hasPricing && !hasBreakdown {
		if versions, ok := in["quoteVersions"].([]any); ok && len(versions) > 0 {
			if latest, ok := versions[len(versions)-1].(map[string]any); ok {
				switch {
				case latest["pricing"] != nil:
					in["pricing"] = latest["pricing"]
				case latest["total"] != nil:
					in["pricing"] = map[string]any{"total": latest["total"]}
				}
			}
		}
	}
	if in["capStyleSetup"] == nil && in["capDetails"] == nil {
		in["capDetails"] = map[string]any{"productName": quotebuilder.DefaultProductName}
	}
	return json.Marshal(in)
}

// synthesize turns an order builder snapshot into a saved quote so that a
// quote produced only in chat can be decided on.
func (s *Service) synthesize(ctx context.Context, conv *repository.Conversation, snap map[string]any, userID uuid.UUID) (uuid.UUID, error) {
	raw, err := synthesisInput(snap)
	if err != nil {
		return uuid.Nil, apperr.Internal("encode order builder snapshot")
	}
	state, report := orderbuilder.Normalize(raw)
	if !report.OK() {
		return uuid.Nil, apperr.ValidationFields("order builder snapshot cannot be converted into a quote", reportFields(report))
	}

	sessionID := fmt.Sprintf("conversation-%s", conv.ID)
	// Derived from the conversation so a retried synthesis reuses the row.
	quoteID := uuid.NewSHA1(uuid.NameSpaceOID, []byte("quote-synthesis:"+conv.ID.String()))
	owner := &userID

	err = s.step(ctx, sagaSynthesize, "upsert_order_builder_state", func() error {
		_, err := s.upsertState(ctx, sessionID, state)
		return err
	})
	if err != nil {
		return uuid.Nil, err
	}

	err = s.step(ctx, sagaSynthesize, "create_quote_order", func() error {
		title := ""
		if conv.Title != nil {
			title = *conv.Title
		}
		q, err := buildQuoteOrder(quoteDraft{ID: quoteID, SessionID: sessionID, UserID: owner, Title: title, State: state})
		if err != nil {
			return err
		}
		return s.store.UpsertQuoteOrder(ctx, q)
	})
	if err != nil {
		return uuid.Nil, err
	}

	err = s.step(ctx, sagaSynthesize, "link_conversation_quote", func() error {
		_, _, err := s.store.LinkConversationQuote(ctx, conv.ID, quoteID)
		return err
	})
	if err != nil {
		return uuid.Nil, err
	}

	err = s.step(ctx, sagaSynthesize, "update_conversation_metadata", func() error {
		return s.store.MergeConversationMetadata(ctx, conv.ID, map[string]any{
			"hasQuoteData": true,
			"quoteOrderId": quoteID.String(),
			"quoteStatus":  repository.StatusCompleted,
		})
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.publish(ctx, events.QuoteSaved{
		BaseEvent:      events.NewBaseEvent(),
		QuoteOrderID:   quoteID,
		ConversationID: conv.ID,
		SessionID:      sessionID,
		UserID:         owner,
		Synthesized:    true,
	})
	return quoteID, nil
}
