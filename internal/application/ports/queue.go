package ports

import "context"

// TaskEnqueuer enqueues async tasks. Callers enqueue only after the record the task refers to is committed.
type TaskEnqueuer interface {
	EnqueueGatherAccountKey(ctx context.Context, email, internalKey string) error
}
