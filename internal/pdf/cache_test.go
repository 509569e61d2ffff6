package pdf

import (
	"context"
	"errors"
	"testing"
	"time"

	"headwear_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRenderer struct {
	calls int
	body  []byte
}

func (r *countingRenderer) Render(_ context.Context, _ Document) []byte {
	r.calls++
	return r.body
}

func TestCachedRendererMemoizesByIDAndUpdatedAt(t *testing.T) {
	inner := &countingRenderer{body: []byte("%PDF-1.3")}
	cache := NewCachedRenderer(inner, time.Minute)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	doc := Document{QuoteOrderID: uuid.New(), UpdatedAt: now.Add(-time.Hour)}
	ctx := context.Background()

	require.Equal(t, inner.body, cache.Render(ctx, doc))
	require.Equal(t, inner.body, cache.Render(ctx, doc))
	assert.Equal(t, 1, inner.calls)

	doc.UpdatedAt = now
	cache.Render(ctx, doc)
	assert.Equal(t, 2, inner.calls, "a newer updatedAt must not hit the old entry")

	now = now.Add(2 * time.Minute)
	cache.Render(ctx, doc)
	assert.Equal(t, 3, inner.calls, "expired entries are re-rendered")
}

func TestCachedRendererSkipsEmptyRenders(t *testing.T) {
	inner := &countingRenderer{body: []byte{}}
	cache := NewCachedRenderer(inner, time.Minute)
	doc := Document{QuoteOrderID: uuid.New(), UpdatedAt: time.Now()}

	cache.Render(context.Background(), doc)
	cache.Render(context.Background(), doc)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedRendererInvalidate(t *testing.T) {
	inner := &countingRenderer{body: []byte("pdf")}
	cache := NewCachedRenderer(inner, time.Minute)
	doc := Document{QuoteOrderID: uuid.New(), UpdatedAt: time.Now()}

	cache.Render(context.Background(), doc)
	cache.Invalidate(doc.QuoteOrderID)
	cache.Render(context.Background(), doc)
	assert.Equal(t, 2, inner.calls)
}

func TestRendererNeverFails(t *testing.T) {
	r := &Renderer{
		generate: func(Document) ([]byte, error) { return nil, errors.New("font missing") },
		log:      logger.Nop(),
	}
	out := r.Render(context.Background(), Document{QuoteOrderID: uuid.New()})
	require.NotNil(t, out)
	assert.Empty(t, out)

	r.generate = func(Document) ([]byte, error) { panic("layout overflow") }
	out = r.Render(context.Background(), Document{QuoteOrderID: uuid.New()})
	assert.Empty(t, out)
}

func TestGenerateProducesPDF(t *testing.T) {
	orderID := uuid.New()
	doc := Document{
		QuoteOrderID:  uuid.New(),
		Title:         "Team caps",
		Status:        "CONVERTED_TO_ORDER",
		CustomerName:  "Dana Reyes",
		CustomerEmail: "dana@example.com",
		CreatedAt:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Quantity:      200,
		Lines: []Line{
			{Label: "AirFrame", Detail: "Structured", Quantity: 200, UnitPrice: 3.20, Total: 640},
			{Label: "3D Embroidery", Detail: "Front, Large", Quantity: 200, UnitPrice: 1.25, Total: 250},
		},
		Total:   1350,
		OrderID: &orderID,
	}

	out, err := Generate(doc)
	require.NoError(t, err)
	require.True(t, len(out) > 4)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestDocumentHelpers(t *testing.T) {
	id := uuid.MustParse("7d3c1e0a-1111-4222-8333-444455556666")
	doc := Document{QuoteOrderID: id, Quantity: 200, Total: 1350}
	assert.Equal(t, "Q-7d3c1e0a", doc.Number())
	assert.InDelta(t, 6.75, doc.UnitTotal(), 1e-9)
	assert.Zero(t, Document{}.UnitTotal())
	assert.Equal(t, "a  |  b", joinParts([]string{"a", " ", "b"}, "  |  "))
}
