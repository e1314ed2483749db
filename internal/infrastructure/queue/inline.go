package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lsfernandes92/user-service-challenge/internal/application/ports"
)

// InlineEnqueuer runs provisioning in a goroutine of the current process when Redis is not configured.
// Tasks are not persisted; a restart drops any still running.
type InlineEnqueuer struct {
	gather  GatherAccountKeyRunner
	timeout time.Duration
	log     zerolog.Logger
	wg      sync.WaitGroup
}

func NewInlineEnqueuer(gather GatherAccountKeyRunner, timeout time.Duration, log zerolog.Logger) *InlineEnqueuer {
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}
	return &InlineEnqueuer{gather: gather, timeout: timeout, log: log}
}

// EnqueueGatherAccountKey starts the task and returns immediately. The task outlives the request context.
func (q *InlineEnqueuer) EnqueueGatherAccountKey(ctx context.Context, email, internalKey string) error {
	p := gatherAccountKeyPayload{Email: email, Key: internalKey}
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		taskCtx, cancel := context.WithTimeout(context.Background(), q.timeout)
		defer cancel()
		_ = runGatherAccountKey(taskCtx, q.gather, p, q.log)
	}()
	return nil
}

// Wait blocks until every started task has finished.
func (q *InlineEnqueuer) Wait() {
	q.wg.Wait()
}

var _ ports.TaskEnqueuer = (*InlineEnqueuer)(nil)
