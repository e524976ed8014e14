package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/techappsUT/social-publisher/internal/application/worker"
	"github.com/techappsUT/social-publisher/internal/config"
	"github.com/techappsUT/social-publisher/internal/credentials"
	"github.com/techappsUT/social-publisher/internal/domain/account"
	"github.com/techappsUT/social-publisher/internal/infrastructure/breaker"
	"github.com/techappsUT/social-publisher/internal/infrastructure/cache"
	"github.com/techappsUT/social-publisher/internal/infrastructure/encryption"
	"github.com/techappsUT/social-publisher/internal/infrastructure/persistence"
	"github.com/techappsUT/social-publisher/internal/infrastructure/queue"
	"github.com/techappsUT/social-publisher/internal/infrastructure/ratelimit"
	"github.com/techappsUT/social-publisher/internal/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file found, using process environment")
	}

	cfg := config.Load()
	log := logging.New(cfg.Server.Host == "localhost")

	w, err := buildWorker(cfg, log)
	if err != nil {
		log.Error("worker initialization failed", "error", err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		log.Info("worker started")
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			log.Error("worker run loop exited", "error", err.Error())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker")
	cancel()
}

func buildWorker(cfg *config.Config, log logging.Logger) (*worker.Worker, error) {
	db, err := persistence.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
	})

	enc, err := encryption.New([]byte(cfg.Security.EncryptionKey))
	if err != nil {
		return nil, fmt.Errorf("build token encryption: %w", err)
	}

	accounts := persistence.NewAccountRepository(db, enc)
	requests := persistence.NewUploadRepository(db)
	locks := cache.New(redisClient)
	q := queue.New(redisClient, cfg.Queue.PostingQueueURL)

	refreshers := map[account.Platform]credentials.Refresher{
		account.PlatformFacebook:  credentials.NewMetaRefresher(http.DefaultClient, cfg.Facebook.AppID, cfg.Facebook.AppSecret),
		account.PlatformInstagram: credentials.NewMetaRefresher(http.DefaultClient, cfg.Instagram.AppID, cfg.Instagram.AppSecret),
		account.PlatformTwitter:   credentials.NewTwitterRefresher(),
		account.PlatformYouTube:   credentials.NewYouTubeRefresher(cfg.YouTube.ClientID, cfg.YouTube.ClientSecret),
		account.PlatformLinkedIn:  credentials.NewLinkedInRefresher(http.DefaultClient, cfg.LinkedIn.ClientID, cfg.LinkedIn.ClientSecret),
		account.PlatformTikTok:    credentials.NewTikTokRefresher(http.DefaultClient, cfg.TikTok.ClientKey, cfg.TikTok.ClientSecret),
	}
	credMgr := credentials.New(accounts, refreshers, locks)
	breakers := breaker.New()
	limiter := ratelimit.New()

	return worker.New(accounts, requests, credMgr, breakers, limiter, q, log, cfg.Twitter.APIKey, cfg.Twitter.APISecret), nil
}
