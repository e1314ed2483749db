package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lsfernandes92/user-service-challenge/internal/application/ports"
	"github.com/lsfernandes92/user-service-challenge/internal/domain"
	domerrors "github.com/lsfernandes92/user-service-challenge/internal/domain/errors"
)

type RegisterUserInput struct {
	Email       string
	PhoneNumber string
	FullName    string
	Password    string
	Metadata    string
}

type RegisterUserResult struct {
	User *domain.User
}

// RegisterUser creates an account: validate, generate the internal key, hash the password,
// persist, then enqueue account key provisioning. Each step runs explicitly and in that order.
type RegisterUser struct {
	users    ports.UserRepository
	keys     ports.KeyGenerator
	hasher   ports.PasswordHasher
	tasks    ports.TaskEnqueuer
	validate *validator.Validate
	log      zerolog.Logger
	now      func() time.Time
}

func NewRegisterUser(users ports.UserRepository, keys ports.KeyGenerator, hasher ports.PasswordHasher, tasks ports.TaskEnqueuer, log zerolog.Logger) *RegisterUser {
	return &RegisterUser{
		users:    users,
		keys:     keys,
		hasher:   hasher,
		tasks:    tasks,
		validate: newValidator(),
		log:      log,
		now:      time.Now,
	}
}

// Execute returns a *domerrors.ValidationError when the input is rejected.
func (uc *RegisterUser) Execute(ctx context.Context, input RegisterUserInput) (*RegisterUserResult, error) {
	verr := validateInput(uc.validate, input)
	if err := uc.checkTaken(ctx, input, verr); err != nil {
		return nil, err
	}
	if !verr.Empty() {
		return nil, verr
	}

	internalKey := uc.keys.Generate()
	hash, err := uc.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := uc.now().UTC()
	user := &domain.User{
		ID:           domain.NewUserID(uuid.Must(uuid.NewV7())),
		Email:        input.Email,
		PhoneNumber:  input.PhoneNumber,
		FullName:     input.FullName,
		PasswordHash: hash,
		InternalKey:  internalKey,
		Metadata:     input.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, domerrors.ErrEmailTaken):
			return nil, &domerrors.ValidationError{Messages: []string{takenMessage("Email")}}
		case errors.Is(err, domerrors.ErrPhoneTaken):
			return nil, &domerrors.ValidationError{Messages: []string{takenMessage("Phone number")}}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	// The insert has committed; the task can never observe a missing record.
	if err := uc.tasks.EnqueueGatherAccountKey(ctx, user.Email, user.InternalKey); err != nil {
		uc.log.Error().Err(err).Str("user_id", user.ID.String()).Msg("enqueue account key provisioning failed")
	}
	return &RegisterUserResult{User: user}, nil
}

func (uc *RegisterUser) checkTaken(ctx context.Context, input RegisterUserInput, verr *domerrors.ValidationError) error {
	if input.Email != "" {
		existing, err := uc.users.GetByEmail(ctx, input.Email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if existing != nil {
			verr.Add(takenMessage("Email"))
		}
	}
	if input.PhoneNumber != "" {
		existing, err := uc.users.GetByPhone(ctx, input.PhoneNumber)
		if err != nil {
			return fmt.Errorf("check phone number: %w", err)
		}
		if existing != nil {
			verr.Add(takenMessage("Phone number"))
		}
	}
	return nil
}
