package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/lsfernandes92/user-service-challenge/internal/application/ports"
)

const (
	TypeGatherAccountKey = "user:gather_account_key"

	// DefaultTaskTimeout bounds one provisioning task, including the identity service call.
	DefaultTaskTimeout = 30 * time.Second
)

// gatherAccountKeyPayload is the JSON body of a TypeGatherAccountKey task.
type gatherAccountKeyPayload struct {
	Email string `json:"email"`
	Key   string `json:"key"`
}

// NewGatherAccountKeyTask builds the provisioning task for one user.
func NewGatherAccountKeyTask(email, internalKey string) (*asynq.Task, error) {
	payload, err := json.Marshal(gatherAccountKeyPayload{Email: email, Key: internalKey})
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", TypeGatherAccountKey, err)
	}
	return asynq.NewTask(TypeGatherAccountKey, payload), nil
}

type taskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// TaskEnqueuer hands tasks to Redis through asynq.
type TaskEnqueuer struct {
	client  taskClient
	timeout time.Duration
	log     zerolog.Logger
}

// NewAsynqEnqueuer returns an enqueuer whose tasks are cancelled after timeout. timeout <= 0 uses DefaultTaskTimeout.
func NewAsynqEnqueuer(redisOpt asynq.RedisClientOpt, timeout time.Duration, log zerolog.Logger) *TaskEnqueuer {
	return newTaskEnqueuer(asynq.NewClient(redisOpt), timeout, log)
}

func newTaskEnqueuer(client taskClient, timeout time.Duration, log zerolog.Logger) *TaskEnqueuer {
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}
	return &TaskEnqueuer{client: client, timeout: timeout, log: log}
}

func (q *TaskEnqueuer) Close() error {
	return q.client.Close()
}

func (q *TaskEnqueuer) EnqueueGatherAccountKey(ctx context.Context, email, internalKey string) error {
	task, err := NewGatherAccountKeyTask(email, internalKey)
	if err != nil {
		return err
	}
	info, err := q.client.EnqueueContext(ctx, task, asynq.Timeout(q.timeout), asynq.Queue("default"))
	if err != nil {
		q.log.Warn().Err(err).Str("email", email).Msg("enqueue gather account key failed")
		return fmt.Errorf("enqueue %s: %w", TypeGatherAccountKey, err)
	}
	q.log.Debug().Str("task_id", info.ID).Str("email", email).Msg("gather account key enqueued")
	return nil
}

var _ ports.TaskEnqueuer = (*TaskEnqueuer)(nil)
