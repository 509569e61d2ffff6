package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"headwear_backend/internal/email"
	"headwear_backend/internal/pdf"
	"headwear_backend/internal/quotebuilder"
	"headwear_backend/internal/quotes/repository"
	"headwear_backend/internal/quotes/transport"
	"headwear_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeNotifier struct {
	calls []email.QuoteAccepted
}

func (n *fakeNotifier) NotifyQuoteAccepted(_ context.Context, q email.QuoteAccepted) email.Results {
	n.calls = append(n.calls, q)
	return email.Results{Customer: q.CustomerEmail != "", Admin: true}
}

type fakeRenderer struct {
	body []byte
}

func (r fakeRenderer) Render(context.Context, pdf.Document) []byte { return r.body }

type fakeBuilder struct{}

func (fakeBuilder) Build(_ context.Context, message string) quotebuilder.Result {
	return quotebuilder.Result{Message: "quote for " + message}
}

func newTestService() (*Service, *memStore, *fakeNotifier) {
	store := newMemStore()
	svc := New(store, fakeBuilder{}, nil)
	n := &fakeNotifier{}
	svc.SetNotifier(n)
	return svc, store, n
}

const canonicalState = `{
	"capStyleSetup": {"style": "AirFrame", "quantity": 2880, "color": "Navy", "unitPrice": 6.525, "totalCost": 18792},
	"costBreakdown": {"total": 18792, "baseProductCost": 18792, "completed": true},
	"currentStep": "review",
	"isCompleted": true
}`

func saveRequest(convID, quoteID uuid.UUID) transport.SaveQuoteRequest {
	return transport.SaveQuoteRequest{
		ConversationID:    &convID,
		QuoteOrderID:      &quoteID,
		SessionID:         "session-1",
		OrderBuilderState: json.RawMessage(canonicalState),
		UploadedFiles: []transport.UploadedFile{
			{FileName: "logo.png", FileURL: "https://files.example.com/logo.png", FileSize: 2048},
		},
		CustomerInfo: &transport.CustomerInfo{Name: "Dana Reyes", Email: "Dana@Example.com", Phone: "(201) 555-0123"},
	}
}

func TestSaveTwiceCreatesOneBridgeRow(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	convID, quoteID := uuid.New(), uuid.New()

	first, err := svc.Save(ctx, nil, saveRequest(convID, quoteID))
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	second, err := svc.Save(ctx, nil, saveRequest(convID, quoteID))
	if err != nil {
		t.Fatalf("second save: %v", err)
	}

	links := store.linksFor(convID)
	if len(links) != 1 {
		t.Fatalf("expected one bridge row, got %d", len(links))
	}
	if !links[0].IsMainQuote {
		t.Fatalf("first link must be the main quote")
	}
	if !first.ConversationLinked || second.ConversationLinked {
		t.Fatalf("only the first save should create the link: %v %v", first.ConversationLinked, second.ConversationLinked)
	}
	if first.OrderBuilderStateID != second.OrderBuilderStateID {
		t.Fatalf("state must be upserted by session")
	}
	if len(store.files) != 1 {
		t.Fatalf("expected file to be attached once, got %d", len(store.files))
	}
	if !second.ReadyForAcceptance || !second.HasQuote {
		t.Fatalf("unexpected response: %+v", second)
	}

	q := store.quotes[quoteID]
	if q.CustomerEmail != "dana@example.com" || q.CustomerPhone != "+12015550123" {
		t.Fatalf("customer contact not normalized: %q %q", q.CustomerEmail, q.CustomerPhone)
	}
	conv := store.convs[convID]
	if !conv.HasQuote || conv.Metadata["quoteOrderId"] != quoteID.String() {
		t.Fatalf("conversation not marked: %+v", conv)
	}
}

func TestSaveSecondQuoteIsNotMain(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	convID := uuid.New()

	if _, err := svc.Save(ctx, nil, saveRequest(convID, uuid.New())); err != nil {
		t.Fatalf("save: %v", err)
	}
	req := saveRequest(convID, uuid.New())
	req.SessionID = "session-2"
	if _, err := svc.Save(ctx, nil, req); err != nil {
		t.Fatalf("save: %v", err)
	}

	mains := 0
	for _, l := range store.linksFor(convID) {
		if l.IsMainQuote {
			mains++
		}
	}
	if mains != 1 {
		t.Fatalf("expected exactly one main quote, got %d", mains)
	}
}

func TestSaveRejectsInvalidState(t *testing.T) {
	svc, store, _ := newTestService()
	req := saveRequest(uuid.New(), uuid.New())
	req.OrderBuilderState = json.RawMessage(`{"capStyleSetup": {"quantity": 10}}`)

	_, err := svc.Save(context.Background(), nil, req)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var appErr *apperr.Error
	errors.As(err, &appErr)
	fields, _ := appErr.Details.([]apperr.FieldError)
	if len(fields) == 0 || fields[0].Field != "capStyleSetup.style" {
		t.Fatalf("expected field error for cap style, got %+v", appErr.Details)
	}
	if store.calls["UpsertOrderBuilderState"] != 0 {
		t.Fatalf("nothing may be written for an invalid state")
	}
}

func TestSaveFailureNamesStepAndKeepsEarlierWrites(t *testing.T) {
	svc, store, _ := newTestService()
	store.failOn["UpsertConversation"] = errors.New("connection reset")
	convID, quoteID := uuid.New(), uuid.New()

	_, err := svc.Save(context.Background(), nil, saveRequest(convID, quoteID))
	if !apperr.Is(err, apperr.KindDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	var appErr *apperr.Error
	errors.As(err, &appErr)
	details, _ := appErr.Details.(map[string]string)
	if details["step"] != "upsert_conversation" {
		t.Fatalf("expected failing step in details, got %+v", appErr.Details)
	}
	if _, ok := store.quotes[quoteID]; !ok {
		t.Fatalf("earlier writes must not be rolled back")
	}

	delete(store.failOn, "UpsertConversation")
	if _, err := svc.Save(context.Background(), nil, saveRequest(convID, quoteID)); err != nil {
		t.Fatalf("retry should converge: %v", err)
	}
	if len(store.quotes) != 1 || len(store.linksFor(convID)) != 1 {
		t.Fatalf("retry duplicated rows: quotes=%d links=%d", len(store.quotes), len(store.linksFor(convID)))
	}
}

func TestApproveConvertsQuoteIntoOrder(t *testing.T) {
	svc, store, notifier := newTestService()
	ctx := context.Background()
	userID := uuid.New()
	convID, quoteID := uuid.New(), uuid.New()

	if _, err := svc.Save(ctx, &userID, saveRequest(convID, quoteID)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := store.quotes[quoteID].EstimatedCosts.Total; got != 18792.00 {
		t.Fatalf("expected total 18792.00, got %v", got)
	}

	resp, err := svc.UpdateStatus(ctx, userID, convID, "APPROVED")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !resp.Success || !resp.OrderCreated || resp.OrderID == nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.PreviousStatus != repository.StatusCompleted || resp.NewStatus != repository.StatusConvertedToOrder {
		t.Fatalf("unexpected transition %s -> %s", resp.PreviousStatus, resp.NewStatus)
	}
	if len(store.orders) != 1 {
		t.Fatalf("expected exactly one order, got %d", len(store.orders))
	}

	order := store.orders[*resp.OrderID]
	var data map[string]any
	if err := json.Unmarshal(order.OrderData, &data); err != nil {
		t.Fatalf("order data: %v", err)
	}
	if data["quoteOrderId"] != quoteID.String() {
		t.Fatalf("orderData.quoteOrderId = %v, want %s", data["quoteOrderId"], quoteID)
	}
	if order.Status != repository.OrderStatusPending || order.TotalAmount != 18792.00 {
		t.Fatalf("unexpected order: %+v", order)
	}

	quote := store.quotes[quoteID]
	if quote.ConvertedToOrderID == nil || *quote.ConvertedToOrderID != order.ID {
		t.Fatalf("convertedToOrderId not set to the new order")
	}
	if quote.Status != repository.StatusConvertedToOrder || quote.AcceptedAt == nil {
		t.Fatalf("unexpected quote lifecycle: %s accepted=%v", quote.Status, quote.AcceptedAt)
	}

	meta := store.convs[convID].Metadata
	if meta["quoteStatus"] != repository.StatusAccepted || meta["quoteAcceptedAt"] == nil || meta["orderId"] != order.ID.String() {
		t.Fatalf("conversation metadata not updated: %+v", meta)
	}
	if len(notifier.calls) != 1 || resp.EmailResults == nil || !resp.EmailResults.Customer {
		t.Fatalf("expected one notification, got %d (%+v)", len(notifier.calls), resp.EmailResults)
	}
	if resp.Detection.Source != transport.SourceLegacy {
		t.Fatalf("saved quotes are found through the legacy flag first, got %q", resp.Detection.Source)
	}

	again, err := svc.UpdateStatus(ctx, userID, convID, "APPROVED")
	if err != nil {
		t.Fatalf("repeat approve: %v", err)
	}
	if again.OrderCreated || *again.OrderID != order.ID || len(store.orders) != 1 {
		t.Fatalf("repeat approval must not create another order")
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("repeat approval must not send more emails")
	}
}

func TestApproveRetryAfterPartialFailureConverges(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()
	convID, quoteID := uuid.New(), uuid.New()
	if _, err := svc.Save(ctx, &userID, saveRequest(convID, quoteID)); err != nil {
		t.Fatalf("save: %v", err)
	}

	store.failOn["MarkQuoteOrderConverted"] = errors.New("timeout")
	if _, err := svc.UpdateStatus(ctx, userID, convID, "APPROVED"); !apperr.Is(err, apperr.KindDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if store.quotes[quoteID].Status != repository.StatusAccepted {
		t.Fatalf("accepted status should have been committed")
	}

	delete(store.failOn, "MarkQuoteOrderConverted")
	resp, err := svc.UpdateStatus(ctx, userID, convID, "APPROVED")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(store.orders) != 1 || resp.OrderCreated {
		t.Fatalf("retry must reuse the order created by the first attempt")
	}
	if store.quotes[quoteID].Status != repository.StatusConvertedToOrder {
		t.Fatalf("retry should finish the conversion")
	}
}

func TestApproveSynthesizesQuoteFromOrderBuilderSnapshot(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()
	convID := uuid.New()
	store.convs[convID] = repository.Conversation{
		ID:      convID,
		Context: repository.DefaultConversationContext,
		Metadata: map[string]any{
			"orderBuilder": map[string]any{
				"pricing":            map[string]any{"total": 950.5},
				"orderBuilderStatus": map[string]any{"costBreakdown": map[string]any{"completed": true}},
			},
		},
	}

	resp, err := svc.UpdateStatus(ctx, userID, convID, "approved")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !resp.Detection.Synthesized || resp.Detection.Source != transport.SourceOrderBuilder {
		t.Fatalf("expected synthesis from the order builder, got %+v", resp.Detection)
	}
	links := store.linksFor(convID)
	if len(links) != 1 || links[0].QuoteOrderID != resp.QuoteOrderID || !links[0].IsMainQuote {
		t.Fatalf("expected one main bridge row to the synthesized quote, got %+v", links)
	}
	quote := store.quotes[resp.QuoteOrderID]
	if quote.EstimatedCosts.Total != 950.5 {
		t.Fatalf("expected synthesized total 950.5, got %v", quote.EstimatedCosts.Total)
	}
	if quote.ProductType != quotebuilder.DefaultProductName {
		t.Fatalf("expected default cap style, got %q", quote.ProductType)
	}
	if !resp.OrderCreated || len(store.orders) != 1 {
		t.Fatalf("acceptance should complete after synthesis")
	}
	if conv := store.convs[convID]; conv.UserID == nil || *conv.UserID != userID {
		t.Fatalf("guest conversation should be claimed by the caller")
	}
}

func TestUpdateStatusRejectsOtherOwner(t *testing.T) {
	svc, store, _ := newTestService()
	owner := uuid.New()
	convID := uuid.New()
	store.convs[convID] = repository.Conversation{ID: convID, UserID: &owner, Metadata: map[string]any{}}

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), convID, "APPROVED")
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestSaveRefusesOverwritingOtherOwnersQuote(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	alice, mallory := uuid.New(), uuid.New()
	aliceConv, quoteID := uuid.New(), uuid.New()
	if _, err := svc.Save(ctx, &alice, saveRequest(aliceConv, quoteID)); err != nil {
		t.Fatalf("save: %v", err)
	}

	req := saveRequest(uuid.New(), quoteID)
	req.CustomerInfo = &transport.CustomerInfo{Name: "M", Email: "mallory@evil.test"}
	for _, caller := range []*uuid.UUID{&mallory, nil} {
		if _, err := svc.Save(ctx, caller, req); !apperr.Is(err, apperr.KindForbidden) {
			t.Fatalf("expected forbidden, got %v", err)
		}
	}

	q := store.quotes[quoteID]
	if q.CustomerEmail != "dana@example.com" || q.EstimatedCosts.Total != 18792 {
		t.Fatalf("quote was overwritten: %q %v", q.CustomerEmail, q.EstimatedCosts.Total)
	}
	if len(store.orders) != 0 {
		t.Fatalf("no order expected")
	}
}

func TestSaveRefusesRelinkingGuestQuote(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	convID, quoteID := uuid.New(), uuid.New()
	if _, err := svc.Save(ctx, nil, saveRequest(convID, quoteID)); err != nil {
		t.Fatalf("save: %v", err)
	}

	otherConv := uuid.New()
	if _, err := svc.Save(ctx, nil, saveRequest(otherConv, quoteID)); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(store.linksFor(otherConv)) != 0 {
		t.Fatalf("quote must stay bridged to its own conversation")
	}
}

func TestUpdateStatusRejectsQuoteOwnedByOtherUser(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	owner, caller := uuid.New(), uuid.New()
	quoteID := uuid.New()
	if _, err := svc.Save(ctx, &owner, saveRequest(uuid.New(), quoteID)); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A guest conversation pointing at the owned quote through legacy metadata.
	convID := uuid.New()
	store.convs[convID] = repository.Conversation{ID: convID, HasQuote: true, Metadata: map[string]any{
		"hasQuoteData": true,
		"quoteOrderId": quoteID.String(),
	}}

	_, err := svc.UpdateStatus(ctx, caller, convID, "APPROVED")
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(store.orders) != 0 {
		t.Fatalf("no order expected")
	}
}

func TestUpdateStatusWithoutQuoteReportsDetection(t *testing.T) {
	svc, store, _ := newTestService()
	convID := uuid.New()
	store.convs[convID] = repository.Conversation{
		ID:       convID,
		Metadata: map[string]any{"orderBuilder": map[string]any{"currentStep": "logos"}},
	}

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), convID, "APPROVED")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	var appErr *apperr.Error
	errors.As(err, &appErr)
	report, ok := appErr.Details.(transport.DetectionReport)
	if !ok {
		t.Fatalf("expected detection report in details, got %T", appErr.Details)
	}
	if report.ConversationID != convID || report.LegacyFlag || report.LinkFound || report.OrderBuilderData {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestRejectRecordsDecisionWithoutOrder(t *testing.T) {
	svc, store, notifier := newTestService()
	ctx := context.Background()
	userID := uuid.New()
	convID, quoteID := uuid.New(), uuid.New()
	if _, err := svc.Save(ctx, &userID, saveRequest(convID, quoteID)); err != nil {
		t.Fatalf("save: %v", err)
	}

	resp, err := svc.UpdateStatus(ctx, userID, convID, "REJECTED")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if resp.NewStatus != repository.StatusRejected || resp.OrderCreated || resp.OrderID != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(store.orders) != 0 || len(notifier.calls) != 0 {
		t.Fatalf("rejection has no side effects")
	}
	meta := store.convs[convID].Metadata
	if meta["quoteStatus"] != repository.StatusRejected || meta["quoteRejectedAt"] == nil {
		t.Fatalf("rejection not recorded: %+v", meta)
	}
	if store.quotes[quoteID].RejectedAt == nil {
		t.Fatalf("rejectedAt not stamped")
	}
}

func TestRejectAfterConversionConflicts(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()
	convID := uuid.New()
	if _, err := svc.Save(ctx, &userID, saveRequest(convID, uuid.New())); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, userID, convID, "APPROVED"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, userID, convID, "REJECTED"); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestReadsHideOtherOwnersRows(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()
	convID, quoteID := uuid.New(), uuid.New()
	if _, err := svc.Save(ctx, &owner, saveRequest(convID, quoteID)); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := svc.GetQuote(ctx, &owner, quoteID)
	if err != nil || len(got.Files) != 1 {
		t.Fatalf("owner read failed: %v %+v", err, got.Files)
	}
	if _, err := svc.GetQuote(ctx, &stranger, quoteID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for stranger, got %v", err)
	}
	if _, err := svc.ListConversationQuotes(ctx, nil, convID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for guest, got %v", err)
	}
}

func TestQuotePDFEmptyRenderIsDependencyError(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	quoteID := uuid.New()
	if _, err := svc.Save(ctx, nil, saveRequest(uuid.New(), quoteID)); err != nil {
		t.Fatalf("save: %v", err)
	}

	svc.SetPDFRenderer(fakeRenderer{body: []byte{}})
	if _, _, err := svc.QuotePDF(ctx, nil, quoteID); !apperr.Is(err, apperr.KindDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}

	svc.SetPDFRenderer(fakeRenderer{body: []byte("%PDF-1.3")})
	body, name, err := svc.QuotePDF(ctx, nil, quoteID)
	if err != nil || string(body) != "%PDF-1.3" || name != "Q-"+quoteID.String()[:8]+".pdf" {
		t.Fatalf("unexpected pdf result: %q %q %v", body, name, err)
	}
}

func TestBuildPassesThroughQuoteAndRequestContext(t *testing.T) {
	svc, _, _ := newTestService()
	convID := uuid.New()
	resp := svc.Build(context.Background(), transport.BuildQuoteRequest{Message: "200 caps", Intent: "quote", ConversationID: &convID})
	if resp.Message != "quote for 200 caps" || resp.Metadata.Intent != "quote" || *resp.Metadata.ConversationID != convID {
		t.Fatalf("unexpected build response: %+v", resp)
	}
	if resp.Metadata.Warnings == nil {
		t.Fatalf("warnings should never be null")
	}
}
