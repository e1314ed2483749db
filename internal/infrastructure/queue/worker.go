package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/lsfernandes92/user-service-challenge/internal/application/provisioning"
	domerrors "github.com/lsfernandes92/user-service-challenge/internal/domain/errors"
)

const outcomeError = "error"

var provisioningTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "userservice_provisioning_total",
		Help: "Account key provisioning tasks by outcome",
	},
	[]string{"outcome"},
)

// GatherAccountKeyRunner executes one provisioning attempt.
type GatherAccountKeyRunner interface {
	Execute(ctx context.Context, input provisioning.GatherAccountKeyInput) (*provisioning.GatherAccountKeyResult, error)
}

// Worker runs the asynq handlers for provisioning tasks.
type Worker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	gather GatherAccountKeyRunner
	log    zerolog.Logger
}

// NewWorker creates an asynq server and registers handlers. Call Run to start.
func NewWorker(redisOpt asynq.RedisClientOpt, concurrency int, gather GatherAccountKeyRunner, log zerolog.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 2
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		LogLevel:    asynq.InfoLevel,
		Queues:      map[string]int{"default": 1},
	})
	mux := asynq.NewServeMux()
	w := &Worker{srv: srv, mux: mux, gather: gather, log: log}
	mux.HandleFunc(TypeGatherAccountKey, w.handleGatherAccountKey)
	return w
}

func (w *Worker) handleGatherAccountKey(ctx context.Context, t *asynq.Task) error {
	var p gatherAccountKeyPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		w.log.Error().Err(err).Msg("gather account key task payload invalid")
		provisioningTotal.WithLabelValues(outcomeError).Inc()
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	err := runGatherAccountKey(ctx, w.gather, p, w.log)
	// A missing user or a conflicting account key fails the same way on every attempt.
	if errors.Is(err, domerrors.ErrUserNotFound) || errors.Is(err, domerrors.ErrAccountKeyTaken) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}

// runGatherAccountKey executes one task and records its outcome.
func runGatherAccountKey(ctx context.Context, gather GatherAccountKeyRunner, p gatherAccountKeyPayload, log zerolog.Logger) error {
	res, err := gather.Execute(ctx, provisioning.GatherAccountKeyInput{Email: p.Email, InternalKey: p.Key})
	if err != nil {
		provisioningTotal.WithLabelValues(outcomeError).Inc()
		log.Error().Err(err).Str("email", p.Email).Msg("gather account key task failed")
		return err
	}
	provisioningTotal.WithLabelValues(string(res.Outcome)).Inc()
	return nil
}

// Run blocks until shutdown. Use Shutdown for graceful stop.
func (w *Worker) Run() error {
	return w.srv.Run(w.mux)
}

// Shutdown stops the worker, waiting for in-flight tasks.
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}
