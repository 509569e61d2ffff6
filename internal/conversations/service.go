// Package conversations keeps conversation titles and summaries in step with
// the quote discussed in them.
package conversations

import (
	"context"
	"log/slog"

	"headwear_backend/platform/logger"
	"headwear_backend/platform/metrics"

	"github.com/google/uuid"
)

// Service refreshes conversation titles and summaries.
type Service struct {
	store    Store
	primary  Summarizer
	fallback Summarizer
	log      *logger.Logger
}

// New creates the service. primary may be nil when no LLM is configured.
func New(store Store, primary Summarizer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, primary: primary, fallback: FallbackSummarizer{}, log: log}
}

// Refresh regenerates the title and summary. An LLM failure falls back to
// the deterministic title; only storage failures are returned.
func (s *Service) Refresh(ctx context.Context, id uuid.UUID) (Summary, error) {
	conv, err := s.store.Get(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	d := DigestFromMetadata(conv.Metadata)

	summary, err := s.summarize(ctx, d)
	if err != nil {
		return Summary{}, err
	}
	if err := s.store.SetTitleSummary(ctx, id, summary.Title, summary.Summary); err != nil {
		return Summary{}, err
	}
	s.log.WithContext(ctx).Debug("conversation titled",
		slog.String("conversation_id", id.String()),
		slog.String("title", summary.Title),
	)
	return summary, nil
}

// RefreshTitle is Refresh for background tasks that only need the outcome.
func (s *Service) RefreshTitle(ctx context.Context, id uuid.UUID) error {
	_, err := s.Refresh(ctx, id)
	return err
}

func (s *Service) summarize(ctx context.Context, d Digest) (Summary, error) {
	if s.primary != nil {
		summary, err := s.primary.Summarize(ctx, d)
		if err == nil {
			return summary, nil
		}
		s.log.WithContext(ctx).StageFallback("title_summary", err)
		metrics.StageFallbacks.WithLabelValues("title_summary").Inc()
	}
	return s.fallback.Summarize(ctx, d)
}

// DigestFromMetadata reads the order builder snapshot kept on the conversation.
func DigestFromMetadata(meta map[string]any) Digest {
	var d Digest
	d.QuoteStatus, _ = meta["quoteStatus"].(string)

	ob, _ := meta["orderBuilder"].(map[string]any)
	if ob == nil {
		return d
	}
	if setup, ok := ob["capStyleSetup"].(map[string]any); ok {
		d.Style, _ = setup["style"].(string)
		d.Fabric, _ = setup["fabric"].(string)
		d.Closure, _ = setup["closure"].(string)
		d.Quantity = intOf(setup["quantity"])
	}
	if units := intOf(ob["totalUnits"]); units > 0 {
		d.Quantity = units
	}
	d.Total = floatOf(ob["totalCost"])
	if d.Total == 0 {
		if cb, ok := ob["costBreakdown"].(map[string]any); ok {
			d.Total = floatOf(cb["total"])
		}
	}
	if custom, ok := ob["customization"].(map[string]any); ok {
		if logos, ok := custom["logoDetails"].([]any); ok {
			for _, l := range logos {
				lm, _ := l.(map[string]any)
				if name := logoName(lm); name != "" {
					d.Logos = append(d.Logos, name)
				}
			}
		}
	}
	return d
}

func logoName(l map[string]any) string {
	if l == nil {
		return ""
	}
	method, _ := l["type"].(string)
	location, _ := l["location"].(string)
	switch {
	case method != "" && location != "":
		return method + " on " + location
	case method != "":
		return method
	default:
		return location
	}
}

func intOf(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func floatOf(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}
