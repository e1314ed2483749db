// seed registers sample users for local development through the same path as POST /api/users,
// so each one gets an internal key and a provisioning task. Re-running skips users that already exist.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/lsfernandes92/user-service-challenge/internal/application/ports"
	"github.com/lsfernandes92/user-service-challenge/internal/application/provisioning"
	"github.com/lsfernandes92/user-service-challenge/internal/application/users"
	"github.com/lsfernandes92/user-service-challenge/internal/config"
	"github.com/lsfernandes92/user-service-challenge/internal/domain"
	domerrors "github.com/lsfernandes92/user-service-challenge/internal/domain/errors"
	"github.com/lsfernandes92/user-service-challenge/internal/infrastructure/identity"
	"github.com/lsfernandes92/user-service-challenge/internal/infrastructure/persistence/postgres"
	"github.com/lsfernandes92/user-service-challenge/internal/infrastructure/queue"
	"github.com/lsfernandes92/user-service-challenge/internal/infrastructure/security"
)

const seedPassword = "password123"

func main() {
	count := pflag.IntP("count", "n", 10, "number of users to register")
	pflag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if cfg.Database.Driver != config.StoreDriverPostgres {
		log.Fatal().Str("store", cfg.Database.Driver).Msg("seed needs STORE_DRIVER=postgres")
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}
	userRepo := postgres.NewUserRepository(db)

	// With Redis the running service's worker picks the tasks up; without it they run here.
	var (
		tasks  ports.TaskEnqueuer
		inline *queue.InlineEnqueuer
	)
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		enq := queue.NewAsynqEnqueuer(asynq.RedisClientOpt{Addr: opt.Addr, Username: opt.Username, Password: opt.Password, DB: opt.DB, TLSConfig: opt.TLSConfig}, cfg.Provisioning.TaskTimeout, log)
		defer enq.Close()
		tasks = enq
	} else {
		client := identity.NewClient(cfg.Identity.BaseURL, identity.WithTimeout(cfg.Identity.Timeout), identity.WithLogger(log))
		inline = queue.NewInlineEnqueuer(provisioning.NewGatherAccountKey(userRepo, client, log), cfg.Provisioning.TaskTimeout, log)
		tasks = inline
	}

	hasher := security.NewArgon2Hasher(security.Argon2Params{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
	})
	register := users.NewRegisterUser(userRepo, security.NewRandomKeyGenerator(), hasher, tasks, log)

	created, skipped := 0, 0
	for i := 1; i <= *count; i++ {
		in := users.RegisterUserInput{
			Email:       fmt.Sprintf("seed%d@example.com", i),
			PhoneNumber: fmt.Sprintf("555%07d", i),
			FullName:    fmt.Sprintf("Seed User %d", i),
			Password:    seedPassword,
			Metadata:    domain.RandomMetadata(),
		}
		if _, err := register.Execute(ctx, in); err != nil {
			var verr *domerrors.ValidationError
			if errors.As(err, &verr) {
				log.Debug().Str("email", in.Email).Strs("errors", verr.Messages).Msg("skipping")
				skipped++
				continue
			}
			log.Fatal().Err(err).Str("email", in.Email).Msg("register user")
		}
		created++
	}
	if inline != nil {
		inline.Wait()
	}
	log.Info().Int("created", created).Int("skipped", skipped).Msg("seed complete")
}
