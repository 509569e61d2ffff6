package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"headwear_backend/platform/logger"
)

const defaultInlineTimeout = 2 * time.Minute

// InlineExecutor runs tasks in goroutines when no queue is available. Each
// run gets its own timeout and panic boundary; failures are only logged.
type InlineExecutor struct {
	timeout time.Duration
	log     *logger.Logger
	wg      sync.WaitGroup
}

func NewInlineExecutor(timeout time.Duration, log *logger.Logger) *InlineExecutor {
	if timeout <= 0 {
		timeout = defaultInlineTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &InlineExecutor{timeout: timeout, log: log}
}

// Go starts fn detached from the caller's cancellation.
func (e *InlineExecutor) Go(ctx context.Context, name string, fn func(context.Context) error) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()
		if err := e.run(runCtx, fn); err != nil {
			e.log.WithContext(ctx).BestEffortFailure(name, err, slog.String("executor", "inline"))
		}
	}()
}

func (e *InlineExecutor) run(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// Wait blocks until every started task has returned.
func (e *InlineExecutor) Wait() {
	e.wg.Wait()
}
