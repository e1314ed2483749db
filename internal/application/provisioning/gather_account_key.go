package provisioning

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lsfernandes92/user-service-challenge/internal/application/ports"
	domerrors "github.com/lsfernandes92/user-service-challenge/internal/domain/errors"
)

// Outcome is the terminal state of one provisioning task.
type Outcome string

const (
	// OutcomeProvisioned means the account key was obtained and stored.
	OutcomeProvisioned Outcome = "provisioned"
	// OutcomeAlreadyProvisioned means the user already had an account key; nothing changed.
	OutcomeAlreadyProvisioned Outcome = "already_provisioned"
	// OutcomeFailed means the identity service refused or could not be reached; nothing changed.
	OutcomeFailed Outcome = "failed"
)

type GatherAccountKeyInput struct {
	Email       string
	InternalKey string
}

type GatherAccountKeyResult struct {
	Outcome Outcome
	// Failure is set when Outcome is OutcomeFailed.
	Failure *ports.ProvisionError
}

// GatherAccountKey obtains the external account key for a registered user and stores it once.
//
// A missing user is returned as an error so the queue records the task as failed. An identity
// service failure is a normal outcome and returns a nil error, so the queue does not retry it.
type GatherAccountKey struct {
	users  ports.UserRepository
	client ports.AccountKeyClient
	log    zerolog.Logger
}

func NewGatherAccountKey(users ports.UserRepository, client ports.AccountKeyClient, log zerolog.Logger) *GatherAccountKey {
	return &GatherAccountKey{users: users, client: client, log: log}
}

func (uc *GatherAccountKey) Execute(ctx context.Context, input GatherAccountKeyInput) (*GatherAccountKeyResult, error) {
	user, err := uc.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("gather account key for %q: %w", input.Email, domerrors.ErrUserNotFound)
	}
	if user.HasAccountKey() {
		uc.log.Debug().Str("user_id", user.ID.String()).Msg("account key already set; skipping")
		return &GatherAccountKeyResult{Outcome: OutcomeAlreadyProvisioned}, nil
	}

	res := uc.client.FetchAccountKey(ctx, input.Email, input.InternalKey)
	if !res.Succeeded() {
		uc.log.Warn().
			Str("user_id", user.ID.String()).
			Str("kind", string(res.Failure.Kind)).
			Int("status", res.Failure.Status).
			Msg("account key not provisioned")
		return &GatherAccountKeyResult{Outcome: OutcomeFailed, Failure: res.Failure}, nil
	}

	stored, err := uc.users.SetAccountKey(ctx, user.ID, res.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("store account key for user %s: %w", user.ID, err)
	}
	if !stored {
		uc.log.Info().Str("user_id", user.ID.String()).Msg("account key set concurrently; keeping existing value")
		return &GatherAccountKeyResult{Outcome: OutcomeAlreadyProvisioned}, nil
	}
	uc.log.Info().Str("user_id", user.ID.String()).Msg("account key provisioned")
	return &GatherAccountKeyResult{Outcome: OutcomeProvisioned}, nil
}
