package conversations

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

type memStore struct {
	conv    *Conversation
	title   string
	summary string
	setErr  error
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (*Conversation, error) {
	if m.conv == nil || m.conv.ID != id {
		return nil, errors.New("not found")
	}
	return m.conv, nil
}

func (m *memStore) SetTitleSummary(_ context.Context, _ uuid.UUID, title, summary string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.title, m.summary = title, summary
	return nil
}

type stubSummarizer struct {
	out Summary
	err error
}

func (s stubSummarizer) Summarize(context.Context, Digest) (Summary, error) {
	return s.out, s.err
}

func snapshotMetadata() map[string]any {
	return map[string]any{
		"quoteStatus": "COMPLETED",
		"orderBuilder": map[string]any{
			"capStyleSetup": map[string]any{"style": "6P AirFrame HSCS", "quantity": float64(144), "fabric": "Acrylic"},
			"customization": map[string]any{
				"logoDetails": []any{map[string]any{"type": "3D Embroidery", "location": "Front", "size": "Large"}},
			},
			"totalUnits": float64(144),
			"totalCost":  float64(1296.5),
		},
	}
}

func TestRefreshUsesAgentOutput(t *testing.T) {
	id := uuid.New()
	store := &memStore{conv: &Conversation{ID: id, Metadata: snapshotMetadata()}}
	svc := New(store, stubSummarizer{out: Summary{Title: "Team caps", Summary: "144 caps."}}, nil)

	got, err := svc.Refresh(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Team caps" || store.title != "Team caps" {
		t.Fatalf("expected agent title to be stored, got %q / %q", got.Title, store.title)
	}
}

func TestRefreshFallsBackWhenAgentFails(t *testing.T) {
	id := uuid.New()
	store := &memStore{conv: &Conversation{ID: id, Metadata: snapshotMetadata()}}
	svc := New(store, stubSummarizer{err: errors.New("timeout")}, nil)

	got, err := svc.Refresh(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "144 6P AirFrame HSCS caps" {
		t.Fatalf("unexpected fallback title %q", got.Title)
	}
	if !strings.Contains(got.Summary, "3D Embroidery on Front") || !strings.Contains(got.Summary, "$1296.50") {
		t.Fatalf("fallback summary missing quote details: %q", got.Summary)
	}
}

func TestRefreshReturnsStorageErrors(t *testing.T) {
	id := uuid.New()
	store := &memStore{conv: &Conversation{ID: id, Metadata: map[string]any{}}, setErr: errors.New("db down")}
	if _, err := New(store, nil, nil).Refresh(context.Background(), id); err == nil {
		t.Fatalf("expected storage error")
	}
}

func TestParseSummaryStripsFences(t *testing.T) {
	got, err := parseSummary("```json\n{\"title\": \" Trucker caps \", \"summary\": \"48 caps.\"}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Trucker caps" || got.Summary != "48 caps." {
		t.Fatalf("unexpected summary %+v", got)
	}
	if _, err := parseSummary("no json here"); err == nil {
		t.Fatalf("expected error for non-JSON reply")
	}
}

func TestFallbackWithoutSnapshot(t *testing.T) {
	got, _ := FallbackSummarizer{}.Summarize(context.Background(), DigestFromMetadata(map[string]any{}))
	if got.Title != "Custom caps" {
		t.Fatalf("unexpected title %q", got.Title)
	}
}
