package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lsfernandes92/user-service-challenge/internal/application/ports"
	"github.com/lsfernandes92/user-service-challenge/internal/application/provisioning"
	"github.com/lsfernandes92/user-service-challenge/internal/application/users"
	"github.com/lsfernandes92/user-service-challenge/internal/config"
	"github.com/lsfernandes92/user-service-challenge/internal/infrastructure/cache"
	httprouter "github.com/lsfernandes92/user-service-challenge/internal/infrastructure/http"
	"github.com/lsfernandes92/user-service-challenge/internal/infrastructure/http/handlers"
	"github.com/lsfernandes92/user-service-challenge/internal/infrastructure/http/middleware"
	"github.com/lsfernandes92/user-service-challenge/internal/infrastructure/identity"
	"github.com/lsfernandes92/user-service-challenge/internal/infrastructure/persistence/memory"
	"github.com/lsfernandes92/user-service-challenge/internal/infrastructure/persistence/postgres"
	"github.com/lsfernandes92/user-service-challenge/internal/infrastructure/queue"
	"github.com/lsfernandes92/user-service-challenge/internal/infrastructure/security"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	} else {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown LOG_LEVEL; using info")
	}

	ctx := context.Background()

	var (
		db       *sql.DB
		userRepo ports.UserRepository
	)
	switch cfg.Database.Driver {
	case config.StoreDriverMemory:
		log.Warn().Msg("STORE_DRIVER=memory: users are lost on restart")
		userRepo = memory.NewUserRepository()
	default:
		db, err = postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to database")
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("migrate database")
		}
		userRepo = postgres.NewUserRepository(db)
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed; continuing without redis")
			redisClient = nil
		}
	}

	identityClient := identity.NewClient(cfg.Identity.BaseURL,
		identity.WithTimeout(cfg.Identity.Timeout),
		identity.WithLogger(log.With().Str("component", "identity").Logger()),
	)
	gather := provisioning.NewGatherAccountKey(userRepo, identityClient, log.With().Str("component", "provisioning").Logger())

	var (
		taskEnqueuer   ports.TaskEnqueuer
		asynqWorker    *queue.Worker
		inlineEnqueuer *queue.InlineEnqueuer
		snapshotStore  cache.SnapshotStore
	)
	if redisClient != nil {
		redisOpt, _ := redis.ParseURL(cfg.Redis.URL)
		asynqOpt := asynq.RedisClientOpt{Addr: redisOpt.Addr, Username: redisOpt.Username, Password: redisOpt.Password, DB: redisOpt.DB, TLSConfig: redisOpt.TLSConfig}
		asynqEnq := queue.NewAsynqEnqueuer(asynqOpt, cfg.Provisioning.TaskTimeout, log)
		defer asynqEnq.Close()
		taskEnqueuer = asynqEnq
		asynqWorker = queue.NewWorker(asynqOpt, cfg.Provisioning.Concurrency, gather, log.With().Str("component", "worker").Logger())
		go func() {
			if err := asynqWorker.Run(); err != nil {
				log.Warn().Err(err).Msg("asynq worker stopped")
			}
		}()
		snapshotStore = cache.NewRedisStore(redisClient, "")
	} else {
		log.Info().Msg("REDIS_URL not set; provisioning runs in process")
		inlineEnqueuer = queue.NewInlineEnqueuer(gather, cfg.Provisioning.TaskTimeout, log.With().Str("component", "provisioning").Logger())
		taskEnqueuer = inlineEnqueuer
		snapshotStore = cache.NewMemoryStore()
	}

	hasher := security.NewArgon2Hasher(security.Argon2Params{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
	})
	listing := cache.NewListingCache(userRepo.ListIDs, snapshotStore, cfg.Listing.CacheTTL, log.With().Str("component", "listing").Logger())

	registerUC := users.NewRegisterUser(userRepo, security.NewRandomKeyGenerator(), hasher, taskEnqueuer, log)
	listUC := users.NewListUsers(listing, userRepo)

	ipLimit, err := middleware.NewIPRateLimiter(cfg.Security.RateLimitPerIP, redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("rate limiter")
	}

	var healthDB handlers.Pinger
	if db != nil {
		healthDB = db
	}
	router := httprouter.NewRouter(httprouter.RouterConfig{
		HealthHandler: handlers.NewHealthHandler(healthDB, redisClient),
		UsersHandler:  handlers.NewUsersHandler(registerUC, listUC, log),
		Log:           log,
		Secure:        middleware.NewSecure(middleware.SecureOptions(cfg.Security.Development)),
		IPRateLimit:   ipLimit,
		Metrics:       true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("store", cfg.Database.Driver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if asynqWorker != nil {
		asynqWorker.Shutdown()
	}
	if inlineEnqueuer != nil {
		inlineEnqueuer.Wait()
	}
	log.Info().Msg("server stopped")
}
