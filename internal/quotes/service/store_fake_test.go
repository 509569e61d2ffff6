package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"headwear_backend/internal/quotes/repository"
	"headwear_backend/platform/apperr"

	"github.com/google/uuid"
)

// memStore mirrors the keyed upsert semantics of the pgx repository.
type memStore struct {
	mu     sync.Mutex
	now    time.Time
	quotes map[uuid.UUID]repository.QuoteOrder
	files  []repository.QuoteOrderFile
	states map[string]repository.OrderBuilderState
	convs  map[uuid.UUID]repository.Conversation
	links  []repository.ConversationQuote
	orders map[uuid.UUID]repository.Order
	failOn map[string]error
	calls  map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		now:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		quotes: map[uuid.UUID]repository.QuoteOrder{},
		states: map[string]repository.OrderBuilderState{},
		convs:  map[uuid.UUID]repository.Conversation{},
		orders: map[uuid.UUID]repository.Order{},
		failOn: map[string]error{},
		calls:  map[string]int{},
	}
}

func (m *memStore) hit(op string) error {
	m.calls[op]++
	return m.failOn[op]
}

func (m *memStore) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func (m *memStore) UpsertQuoteOrder(_ context.Context, q *repository.QuoteOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("UpsertQuoteOrder"); err != nil {
		return err
	}
	now := m.tick()
	if existing, ok := m.quotes[q.ID]; ok {
		if existing.Status != repository.StatusCompleted {
			return apperr.Conflict("quote has already been decided and can no longer change")
		}
		if existing.UserID != nil {
			q.UserID = existing.UserID
		}
		q.CreatedAt = existing.CreatedAt
	} else {
		q.CreatedAt = now
	}
	q.Status = repository.StatusCompleted
	q.UpdatedAt = now
	m.quotes[q.ID] = *q
	return nil
}

func (m *memStore) GetQuoteOrder(_ context.Context, id uuid.UUID) (*repository.QuoteOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("GetQuoteOrder"); err != nil {
		return nil, err
	}
	q, ok := m.quotes[id]
	if !ok {
		return nil, apperr.NotFound("quote not found")
	}
	return &q, nil
}

func (m *memStore) SetQuoteOrderStatus(_ context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("SetQuoteOrderStatus"); err != nil {
		return err
	}
	q, ok := m.quotes[id]
	if !ok || q.Status == repository.StatusConvertedToOrder {
		return apperr.Conflict("quote is not open for a decision")
	}
	now := m.tick()
	q.Status = status
	switch status {
	case repository.StatusAccepted:
		q.AcceptedAt = &now
	case repository.StatusRejected:
		q.RejectedAt = &now
	}
	q.UpdatedAt = now
	m.quotes[id] = q
	return nil
}

func (m *memStore) MarkQuoteOrderConverted(_ context.Context, id, orderID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("MarkQuoteOrderConverted"); err != nil {
		return err
	}
	q := m.quotes[id]
	if q.ConvertedToOrderID != nil && *q.ConvertedToOrderID != orderID {
		return apperr.Conflict("quote was converted to a different order")
	}
	q.ConvertedToOrderID = &orderID
	q.Status = repository.StatusConvertedToOrder
	q.UpdatedAt = m.tick()
	m.quotes[id] = q
	return nil
}

func (m *memStore) AddQuoteOrderFiles(_ context.Context, files []repository.QuoteOrderFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("AddQuoteOrderFiles"); err != nil {
		return err
	}
next:
	for _, f := range files {
		for _, existing := range m.files {
			if existing.QuoteOrderID == f.QuoteOrderID && existing.FileURL == f.FileURL {
				continue next
			}
		}
		m.files = append(m.files, f)
	}
	return nil
}

func (m *memStore) ListQuoteOrderFiles(_ context.Context, quoteOrderID uuid.UUID) ([]repository.QuoteOrderFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []repository.QuoteOrderFile{}
	for _, f := range m.files {
		if f.QuoteOrderID == quoteOrderID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memStore) UpsertOrderBuilderState(_ context.Context, s *repository.OrderBuilderState) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("UpsertOrderBuilderState"); err != nil {
		return uuid.Nil, err
	}
	if existing, ok := m.states[s.SessionID]; ok {
		s.ID = existing.ID
	}
	m.states[s.SessionID] = *s
	return s.ID, nil
}

func (m *memStore) GetOrderBuilderState(_ context.Context, sessionID string) (*repository.OrderBuilderState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[sessionID]
	if !ok {
		return nil, apperr.NotFound("order builder state not found")
	}
	return &s, nil
}

func (m *memStore) GetConversation(_ context.Context, id uuid.UUID) (*repository.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("GetConversation"); err != nil {
		return nil, err
	}
	c, ok := m.convs[id]
	if !ok {
		return nil, apperr.NotFound("conversation not found")
	}
	c.Metadata = cloneMeta(c.Metadata)
	return &c, nil
}

func (m *memStore) UpsertConversation(_ context.Context, c *repository.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("UpsertConversation"); err != nil {
		return err
	}
	existing, ok := m.convs[c.ID]
	if !ok {
		stored := *c
		stored.Metadata = cloneMeta(c.Metadata)
		stored.CreatedAt = m.tick()
		m.convs[c.ID] = stored
		return nil
	}
	if existing.UserID == nil {
		existing.UserID = c.UserID
	}
	existing.HasQuote = existing.HasQuote || c.HasQuote
	if c.QuoteCompletedAt != nil {
		existing.QuoteCompletedAt = c.QuoteCompletedAt
	}
	if existing.Title == nil {
		existing.Title = c.Title
	}
	existing.Metadata = mergeMeta(existing.Metadata, c.Metadata)
	m.convs[c.ID] = existing
	return nil
}

func (m *memStore) ClaimConversation(_ context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("ClaimConversation"); err != nil {
		return err
	}
	c := m.convs[id]
	if c.UserID != nil && *c.UserID != userID {
		return apperr.Forbidden("conversation belongs to another user")
	}
	c.UserID = &userID
	m.convs[id] = c
	return nil
}

func (m *memStore) MergeConversationMetadata(_ context.Context, id uuid.UUID, patch map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("MergeConversationMetadata"); err != nil {
		return err
	}
	c, ok := m.convs[id]
	if !ok {
		return apperr.NotFound("conversation not found")
	}
	c.Metadata = mergeMeta(c.Metadata, patch)
	m.convs[id] = c
	return nil
}

func (m *memStore) LinkConversationQuote(_ context.Context, conversationID, quoteOrderID uuid.UUID) (repository.ConversationQuote, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("LinkConversationQuote"); err != nil {
		return repository.ConversationQuote{}, false, err
	}
	hasMain := false
	for _, l := range m.links {
		if l.ConversationID == conversationID && l.QuoteOrderID == quoteOrderID {
			return l, false, nil
		}
		if l.ConversationID == conversationID && l.IsMainQuote {
			hasMain = true
		}
	}
	link := repository.ConversationQuote{
		ID:             uuid.New(),
		ConversationID: conversationID,
		QuoteOrderID:   quoteOrderID,
		IsMainQuote:    !hasMain,
		CreatedAt:      m.tick(),
	}
	m.links = append(m.links, link)
	return link, true, nil
}

func (m *memStore) ListConversationQuotes(_ context.Context, conversationID uuid.UUID) ([]repository.ConversationQuote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("ListConversationQuotes"); err != nil {
		return nil, err
	}
	out := []repository.ConversationQuote{}
	for _, l := range m.links {
		if l.ConversationID == conversationID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) ListQuoteConversations(_ context.Context, quoteOrderID uuid.UUID) ([]repository.ConversationQuote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("ListQuoteConversations"); err != nil {
		return nil, err
	}
	out := []repository.ConversationQuote{}
	for _, l := range m.links {
		if l.QuoteOrderID == quoteOrderID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) CreateOrderForQuote(_ context.Context, o *repository.Order) (repository.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("CreateOrderForQuote"); err != nil {
		return repository.Order{}, false, err
	}
	for _, existing := range m.orders {
		if existing.QuoteOrderID == o.QuoteOrderID {
			return existing, false, nil
		}
	}
	stored := *o
	stored.CreatedAt = m.tick()
	m.orders[o.ID] = stored
	return stored, true, nil
}

func (m *memStore) GetOrder(_ context.Context, id uuid.UUID) (*repository.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, apperr.NotFound("order not found")
	}
	return &o, nil
}

// linksFor counts bridge rows of a conversation.
func (m *memStore) linksFor(conversationID uuid.UUID) []repository.ConversationQuote {
	out, _ := m.ListConversationQuotes(context.Background(), conversationID)
	return out
}

func cloneMeta(in map[string]any) map[string]any {
	if in == nil {
		return map[string]any{}
	}
	b, _ := json.Marshal(in)
	out := map[string]any{}
	_ = json.Unmarshal(b, &out)
	return out
}

func mergeMeta(base, patch map[string]any) map[string]any {
	out := cloneMeta(base)
	for k, v := range cloneMeta(patch) {
		out[k] = v
	}
	return out
}

var _ repository.Store = (*memStore)(nil)
