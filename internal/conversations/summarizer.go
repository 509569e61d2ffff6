package conversations

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"headwear_backend/platform/ai/moonshot"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const (
	maxTitleLen   = 80
	maxSummaryLen = 400
	appName       = "conversation-titles"
)

// Digest is the quote context a title is written from.
type Digest struct {
	Style       string
	Quantity    int
	Total       float64
	Fabric      string
	Closure     string
	QuoteStatus string
	Logos       []string
}

// Summary is a generated conversation title and summary.
type Summary struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Summarizer writes a title and summary for a conversation.
type Summarizer interface {
	Summarize(ctx context.Context, d Digest) (Summary, error)
}

// AgentSummarizer asks an LLM agent for the title and summary.
type AgentSummarizer struct {
	runner         *runner.Runner
	sessionService session.Service
}

func NewAgentSummarizer(apiKey, modelName string) (*AgentSummarizer, error) {
	kimi := moonshot.NewModel(moonshot.Config{
		APIKey:          apiKey,
		Model:           modelName,
		DisableThinking: true,
	})

	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "ConversationTitler",
		Model:       kimi,
		Description: "Writes short titles and summaries for custom headwear quote conversations.",
		Instruction: titlerInstruction,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create titler agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create titler runner: %w", err)
	}
	return &AgentSummarizer{runner: r, sessionService: sessionService}, nil
}

const titlerInstruction = `You name customer conversations about custom cap orders.
Reply with JSON only: {"title": "...", "summary": "..."}.
The title is at most 8 words. The summary is one or two sentences covering product, quantity, decorations and status.`

func (s *AgentSummarizer) Summarize(ctx context.Context, d Digest) (Summary, error) {
	userID := "titler"
	sessionID := uuid.NewString()
	if _, err := s.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   appName,
		UserID:    userID,
		SessionID: sessionID,
	}); err != nil {
		return Summary{}, fmt.Errorf("failed to create titler session: %w", err)
	}
	defer func() {
		_ = s.sessionService.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
			AppName:   appName,
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	prompt := genai.NewContentFromText(digestPrompt(d), genai.RoleUser)
	var output strings.Builder
	for event, err := range s.runner.Run(ctx, userID, sessionID, prompt, agent.RunConfig{StreamingMode: agent.StreamingModeNone}) {
		if err != nil {
			return Summary{}, fmt.Errorf("titler run failed: %w", err)
		}
		if event == nil || event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			output.WriteString(part.Text)
		}
	}
	return parseSummary(output.String())
}

func digestPrompt(d Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product: %s\nQuantity: %d\nTotal: $%.2f\n", orUnknown(d.Style), d.Quantity, d.Total)
	if d.Fabric != "" {
		fmt.Fprintf(&b, "Fabric: %s\n", d.Fabric)
	}
	if d.Closure != "" {
		fmt.Fprintf(&b, "Closure: %s\n", d.Closure)
	}
	if len(d.Logos) > 0 {
		fmt.Fprintf(&b, "Logos: %s\n", strings.Join(d.Logos, ", "))
	}
	if d.QuoteStatus != "" {
		fmt.Fprintf(&b, "Quote status: %s\n", d.QuoteStatus)
	}
	return b.String()
}

// parseSummary accepts the reply with or without a code fence around it.
func parseSummary(raw string) (Summary, error) {
	raw = strings.TrimSpace(raw)
	start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Summary{}, fmt.Errorf("titler reply is not JSON: %q", truncate(raw, 80))
	}
	var s Summary
	if err := json.Unmarshal([]byte(raw[start:end+1]), &s); err != nil {
		return Summary{}, fmt.Errorf("decode titler reply: %w", err)
	}
	s.Title = truncate(strings.TrimSpace(s.Title), maxTitleLen)
	s.Summary = truncate(strings.TrimSpace(s.Summary), maxSummaryLen)
	if s.Title == "" {
		return Summary{}, fmt.Errorf("titler reply has no title")
	}
	return s, nil
}

// FallbackSummarizer builds a title from the quote alone.
type FallbackSummarizer struct{}

func (FallbackSummarizer) Summarize(_ context.Context, d Digest) (Summary, error) {
	style := orUnknown(d.Style)
	if style == "unknown" {
		style = "Custom"
	}
	title := style + " caps"
	if d.Quantity > 0 {
		title = fmt.Sprintf("%d %s caps", d.Quantity, style)
	}

	var parts []string
	if d.Quantity > 0 {
		parts = append(parts, fmt.Sprintf("Quote for %d %s caps", d.Quantity, style))
	} else {
		parts = append(parts, fmt.Sprintf("Quote for %s caps", style))
	}
	if len(d.Logos) > 0 {
		parts[0] += " with " + strings.Join(d.Logos, ", ")
	}
	if d.Total > 0 {
		parts = append(parts, fmt.Sprintf("total $%.2f", d.Total))
	}
	summary := strings.Join(parts, ", ") + "."
	if d.QuoteStatus != "" {
		summary += " Status: " + strings.ToLower(d.QuoteStatus) + "."
	}
	return Summary{Title: truncate(title, maxTitleLen), Summary: truncate(summary, maxSummaryLen)}, nil
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
