package service

import (
	"context"
	"strings"

	"headwear_backend/internal/events"
	"headwear_backend/internal/orderbuilder"
	"headwear_backend/internal/quotes/repository"
	"headwear_backend/internal/quotes/transport"
	"headwear_backend/platform/apperr"

	"github.com/google/uuid"
)

// Save persists the session's builder state, the quote, its files, the
// owning conversation and the conversation link, in that order. Each write
// is keyed (session id, quote id, file url, conversation id, conversation
// and quote pair), so re-running a failed save converges.
func (s *Service) Save(ctx context.Context, userID *uuid.UUID, req transport.SaveQuoteRequest) (transport.SaveQuoteResponse, error) {
	state, report := orderbuilder.Normalize(req.OrderBuilderState)
	if !report.OK() {
		return transport.SaveQuoteResponse{}, apperr.ValidationFields("invalid order builder state", reportFields(report))
	}
	for _, w := range report.Warnings {
		s.log.WithContext(ctx).Debug("order_builder_normalized", "session_id", req.SessionID, "warning", w)
	}

	conversationID := uuid.New()
	if req.ConversationID != nil {
		conversationID = *req.ConversationID
		if err := s.checkSaveOwnership(ctx, conversationID, userID); err != nil {
			return transport.SaveQuoteResponse{}, err
		}
	}

	quoteID := uuid.New()
	if req.QuoteOrderID != nil {
		quoteID = *req.QuoteOrderID
		if err := s.checkQuoteOwnership(ctx, quoteID, conversationID, userID); err != nil {
			return transport.SaveQuoteResponse{}, err
		}
	}

	var stateID uuid.UUID
	var linked bool
	var quote *repository.QuoteOrder

	err := s.step(ctx, sagaSave, "upsert_order_builder_state", func() error {
		var err error
		stateID, err = s.upsertState(ctx, req.SessionID, state)
		return err
	})
	if err != nil {
		return transport.SaveQuoteResponse{}, err
	}

	err = s.step(ctx, sagaSave, "create_quote_order", func() error {
		var err error
		quote, err = buildQuoteOrder(quoteDraft{
			ID:        quoteID,
			SessionID: req.SessionID,
			UserID:    userID,
			Title:     req.Title,
			Customer:  req.CustomerInfo,
			State:     state,
		})
		if err != nil {
			return err
		}
		return s.store.UpsertQuoteOrder(ctx, quote)
	})
	if err != nil {
		return transport.SaveQuoteResponse{}, err
	}

	err = s.step(ctx, sagaSave, "create_files", func() error {
		return s.store.AddQuoteOrderFiles(ctx, quoteFiles(quoteID, req.UploadedFiles))
	})
	if err != nil {
		return transport.SaveQuoteResponse{}, err
	}

	err = s.step(ctx, sagaSave, "upsert_conversation", func() error {
		now := s.now().UTC()
		title := quote.Title
		return s.store.UpsertConversation(ctx, &repository.Conversation{
			ID:               conversationID,
			UserID:           userID,
			Title:            &title,
			Context:          repository.DefaultConversationContext,
			HasQuote:         true,
			QuoteCompletedAt: &now,
			Metadata: map[string]any{
				"hasQuoteData": true,
				"quoteOrderId": quoteID.String(),
				"quoteStatus":  repository.StatusCompleted,
				"orderBuilder": conversationSnapshot(state),
			},
		})
	})
	if err != nil {
		return transport.SaveQuoteResponse{}, err
	}

	err = s.step(ctx, sagaSave, "link_conversation_quote", func() error {
		var err error
		_, linked, err = s.store.LinkConversationQuote(ctx, conversationID, quoteID)
		return err
	})
	if err != nil {
		return transport.SaveQuoteResponse{}, err
	}

	s.publish(ctx, events.QuoteSaved{
		BaseEvent:      events.NewBaseEvent(),
		QuoteOrderID:   quoteID,
		ConversationID: conversationID,
		SessionID:      req.SessionID,
		UserID:         userID,
	})

	return transport.SaveQuoteResponse{
		ConversationID:       conversationID,
		QuoteOrderID:         quoteID,
		OrderBuilderStateID:  stateID,
		HasQuote:             true,
		ReadyForAcceptance:   true,
		ConversationLinked:   linked,
		NormalizationWarning: report.Warnings,
	}, nil
}

// checkSaveOwnership rejects saves into a conversation owned by someone
// else. A missing conversation is created by the save itself.
func (s *Service) checkSaveOwnership(ctx context.Context, conversationID uuid.UUID, userID *uuid.UUID) error {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil
	}
	if err != nil {
		return apperr.Dependency("load conversation", err)
	}
	if conv.UserID == nil {
		return nil
	}
	if userID == nil || *conv.UserID != *userID {
		return apperr.Forbidden("conversation belongs to another user")
	}
	return nil
}

// checkQuoteOwnership refuses overwriting a quote owned by someone else or
// moving an existing quote to a conversation it is not linked to.
func (s *Service) checkQuoteOwnership(ctx context.Context, quoteID, conversationID uuid.UUID, userID *uuid.UUID) error {
	existing, err := s.store.GetQuoteOrder(ctx, quoteID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil
	}
	if err != nil {
		return apperr.Dependency("load quote order", err)
	}
	if !visibleTo(existing.UserID, userID) {
		return apperr.Forbidden("quote belongs to another user")
	}

	links, err := s.store.ListQuoteConversations(ctx, quoteID)
	if err != nil {
		return apperr.Dependency("load quote links", err)
	}
	for _, l := range links {
		if l.ConversationID != conversationID {
			return apperr.Forbidden("quote is linked to another conversation")
		}
	}
	return nil
}

func (s *Service) upsertState(ctx context.Context, sessionID string, state orderbuilder.State) (uuid.UUID, error) {
	cols, err := state.Columns()
	if err != nil {
		return uuid.Nil, err
	}
	return s.store.UpsertOrderBuilderState(ctx, &repository.OrderBuilderState{
		ID:               uuid.New(),
		SessionID:        sessionID,
		CapStyleSetup:    cols.CapStyleSetup,
		Customization:    cols.Customization,
		Delivery:         cols.Delivery,
		CostBreakdown:    cols.CostBreakdown,
		CurrentStep:      state.CurrentStep,
		IsCompleted:      state.IsCompleted,
		TotalCost:        state.TotalCost,
		TotalUnits:       state.TotalUnits,
		StateVersion:     state.StateVersion,
		Metadata:         cols.Metadata,
		OriginalFormat:   string(state.OriginalFormat),
		OriginalMetadata: cols.OriginalMetadata,
	})
}

func quoteFiles(quoteID uuid.UUID, uploaded []transport.UploadedFile) []repository.QuoteOrderFile {
	files := make([]repository.QuoteOrderFile, 0, len(uploaded))
	for _, f := range uploaded {
		category := strings.ToUpper(strings.TrimSpace(f.Category))
		if category == "" {
			category = repository.FileCategoryLogo
		}
		files = append(files, repository.QuoteOrderFile{
			ID:           uuid.New(),
			QuoteOrderID: quoteID,
			FileName:     f.FileName,
			FileURL:      f.FileURL,
			FileType:     f.FileType,
			FileSize:     f.FileSize,
			Category:     category,
		})
	}
	return files
}

// reportFields splits "path: message" report errors into field errors.
func reportFields(r orderbuilder.Report) []apperr.FieldError {
	out := make([]apperr.FieldError, 0, len(r.Errors))
	for _, e := range r.Errors {
		field, msg, ok := strings.Cut(e, ": ")
		if !ok {
			field, msg = "orderBuilderState", e
		}
		out = append(out, apperr.FieldError{Field: field, Message: msg})
	}
	return out
}
