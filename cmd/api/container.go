package main

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/techappsUT/social-publisher/internal/application/intake"
	"github.com/techappsUT/social-publisher/internal/application/query"
	"github.com/techappsUT/social-publisher/internal/blobstore"
	"github.com/techappsUT/social-publisher/internal/config"
	"github.com/techappsUT/social-publisher/internal/domain/account"
	"github.com/techappsUT/social-publisher/internal/handlers"
	"github.com/techappsUT/social-publisher/internal/identity"
	"github.com/techappsUT/social-publisher/internal/infrastructure/encryption"
	"github.com/techappsUT/social-publisher/internal/infrastructure/persistence"
	"github.com/techappsUT/social-publisher/internal/infrastructure/queue"
	"github.com/techappsUT/social-publisher/internal/logging"
	"github.com/techappsUT/social-publisher/internal/middleware"
)

// Container wires every collaborator the API process needs. Built once at
// startup and never mutated. cmd/worker and cmd/scheduler assemble their
// own, separate containers reusing the same constructors — the publish
// loop needs the credential/breaker/adapter graph the API process never
// touches, and the tick loop needs the scheduled-post store and asynq.
type Container struct {
	Config *config.Config
	Logger logging.Logger
	DB     *gorm.DB
	Redis  *redis.Client

	Accounts account.Repository

	Handlers       *handlers.Handlers
	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimiter
}

// NewContainer assembles the dependency graph cmd/api needs.
func NewContainer(cfg *config.Config) (*Container, error) {
	log := logging.New(cfg.Server.Host == "localhost")

	db, err := persistence.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("container: connect database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
	})

	enc, err := encryption.New([]byte(cfg.Security.EncryptionKey))
	if err != nil {
		return nil, fmt.Errorf("container: build token encryption: %w", err)
	}

	accounts := persistence.NewAccountRepository(db, enc)
	requests := persistence.NewUploadRepository(db)

	q := queue.New(redisClient, cfg.Queue.PostingQueueURL)

	in := intake.New(accounts, requests, q, log)
	qry := query.New(requests, q)

	blob := blobstore.New(cfg.Blob.VideoUploadBucket, cfg.Blob.Endpoint)
	verifier := identity.NewVerifier(cfg.Security.JWTSecret, cfg.CORS.APIBaseURL)

	h := handlers.New(in, qry, accounts, blob, log)

	return &Container{
		Config:         cfg,
		Logger:         log,
		DB:             db,
		Redis:          redisClient,
		Accounts:       accounts,
		Handlers:       h,
		AuthMiddleware: middleware.NewAuthMiddleware(verifier),
		RateLimiter:    middleware.NewRateLimiter(redisClient, log),
	}, nil
}
