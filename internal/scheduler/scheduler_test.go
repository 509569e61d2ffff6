package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"headwear_backend/internal/email"
	"headwear_backend/internal/events"
	platformevents "headwear_backend/platform/events"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type testConfig struct{ url string }

func (c testConfig) GetRedisURL() string       { return c.url }
func (c testConfig) GetRedisTLSInsecure() bool { return false }
func (c testConfig) GetAsynqQueueName() string { return "quotes" }
func (c testConfig) GetAsynqConcurrency() int  { return 1 }

type recorder struct {
	mu       sync.Mutex
	titles   []uuid.UUID
	rendered []uuid.UUID
	stored   []string
	sent     []email.Message
	panicOn  string
}

func (r *recorder) RefreshTitle(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, id)
	return nil
}

func (r *recorder) RenderQuote(_ context.Context, id uuid.UUID) ([]byte, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rendered = append(r.rendered, id)
	return []byte("%PDF-1.7"), "Q-" + id.String()[:8] + ".pdf", nil
}

func (r *recorder) UploadQuotePDF(_ context.Context, id uuid.UUID, name string, _ []byte) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stored = append(r.stored, name)
	return "quotes/" + id.String() + "/" + name, nil
}

func (r *recorder) Send(_ context.Context, msg email.Message) error {
	if r.panicOn != "" && msg.To == r.panicOn {
		panic("smtp exploded")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recorder) handlers() *Handlers {
	return &Handlers{Titles: r, Renderer: r, PDFs: r, Sender: r}
}

func TestClientEnqueueDeduplicates(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(testConfig{url: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	d := NewDispatcher(client, nil, nil, nil)
	id := uuid.New()
	if err := d.ScheduleQuotePDF(context.Background(), id, "v1"); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if err := d.ScheduleQuotePDF(context.Background(), id, "v1"); err != nil {
		t.Fatalf("duplicate enqueue should be swallowed: %v", err)
	}
	if err := d.ScheduleQuotePDF(context.Background(), id, "v2"); err != nil {
		t.Fatalf("new version enqueue: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	n, err := rdb.LLen(context.Background(), "asynq:{quotes}:pending").Result()
	if err != nil {
		t.Fatalf("llen: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 pending tasks, got %d", n)
	}
}

func TestClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testConfig{}); err == nil {
		t.Fatalf("expected error without redis url")
	}
}

func TestInlineDispatcherRunsHandlers(t *testing.T) {
	rec := &recorder{}
	inline := NewInlineExecutor(time.Second, nil)
	d := NewDispatcher(nil, inline, rec.handlers(), nil)

	if err := d.EnqueueEmail(context.Background(), email.Message{To: "a@example.com", Subject: "hi"}); err != nil {
		t.Fatalf("enqueue email: %v", err)
	}
	inline.Wait()

	if len(rec.sent) != 1 || rec.sent[0].To != "a@example.com" {
		t.Fatalf("expected email to be sent inline, got %+v", rec.sent)
	}
	if d.Queued() {
		t.Fatalf("inline dispatcher must not report queued")
	}
}

func TestInlineExecutorSurvivesPanics(t *testing.T) {
	rec := &recorder{panicOn: "boom@example.com"}
	inline := NewInlineExecutor(time.Second, nil)
	d := NewDispatcher(nil, inline, rec.handlers(), nil)

	_ = d.EnqueueEmail(context.Background(), email.Message{To: "boom@example.com"})
	_ = d.EnqueueEmail(context.Background(), email.Message{To: "ok@example.com"})
	inline.Wait()

	if len(rec.sent) != 1 || rec.sent[0].To != "ok@example.com" {
		t.Fatalf("expected only the healthy email, got %+v", rec.sent)
	}
}

func TestInlineExecutorDetachesFromCaller(t *testing.T) {
	inline := NewInlineExecutor(time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var got error
	inline.Go(ctx, "probe", func(ctx context.Context) error {
		got = ctx.Err()
		return nil
	})
	inline.Wait()
	if got != nil {
		t.Fatalf("task context should outlive the caller, got %v", got)
	}
}

func TestSubscribersScheduleQuoteWork(t *testing.T) {
	rec := &recorder{}
	inline := NewInlineExecutor(time.Second, nil)
	d := NewDispatcher(nil, inline, rec.handlers(), nil)
	bus := platformevents.NewInMemoryBus(nil)
	RegisterSubscribers(bus, d, nil)

	convID, quoteID := uuid.New(), uuid.New()
	bus.Publish(context.Background(), events.QuoteSaved{
		BaseEvent:      events.NewBaseEvent(),
		QuoteOrderID:   quoteID,
		ConversationID: convID,
	})
	bus.Wait()
	inline.Wait()

	if len(rec.titles) != 1 || rec.titles[0] != convID {
		t.Fatalf("expected title refresh for conversation, got %v", rec.titles)
	}
	if len(rec.rendered) != 1 || rec.rendered[0] != quoteID || len(rec.stored) != 1 {
		t.Fatalf("expected pdf render and upload, got %v / %v", rec.rendered, rec.stored)
	}
}

func TestHandlerRejectsMalformedPayload(t *testing.T) {
	h := (&recorder{}).handlers()
	run := adapt(h.QuotePDF)
	err := run(context.Background(), asynq.NewTask(TaskQuotePDFRender, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
	err = run(context.Background(), asynq.NewTask(TaskQuotePDFRender, []byte(`{"quoteOrderId":"nope"}`)))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for bad id, got %v", err)
	}
}
