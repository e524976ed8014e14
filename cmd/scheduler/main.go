// Command scheduler runs the periodic tick that promotes due
// ScheduledPosts into Fan-out Intake (spec §4.7). It has no teacher
// precedent — the teacher scheduled posts from inside the worker binary
// with a polling loop; this repo instead registers an asynq periodic task
// so the tick cadence and its at-most-once dedup lock are explicit.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/techappsUT/social-publisher/internal/application/intake"
	"github.com/techappsUT/social-publisher/internal/application/scheduler"
	"github.com/techappsUT/social-publisher/internal/config"
	"github.com/techappsUT/social-publisher/internal/infrastructure/cache"
	"github.com/techappsUT/social-publisher/internal/infrastructure/encryption"
	"github.com/techappsUT/social-publisher/internal/infrastructure/persistence"
	"github.com/techappsUT/social-publisher/internal/infrastructure/queue"
	"github.com/techappsUT/social-publisher/internal/infrastructure/tasks"
	"github.com/techappsUT/social-publisher/internal/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file found, using process environment")
	}

	cfg := config.Load()
	log := logging.New(cfg.Server.Host == "localhost")

	sched, err := buildScheduler(cfg, log)
	if err != nil {
		log.Error("scheduler initialization failed", "error", err.Error())
		os.Exit(1)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
	}

	asynqScheduler := asynq.NewScheduler(redisOpt, nil)
	if _, err := tasks.RegisterPeriodicTick(asynqScheduler, cfg.SchedulerTickSeconds()); err != nil {
		log.Error("register periodic tick failed", "error", err.Error())
		os.Exit(1)
	}

	server := asynq.NewServer(redisOpt, asynq.Config{Concurrency: 1})
	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeSchedulerTick, &tasks.TickHandler{Tick: sched.Tick})

	go func() {
		log.Info("scheduler server started")
		if err := server.Run(mux); err != nil {
			log.Error("scheduler server stopped", "error", err.Error())
			os.Exit(1)
		}
	}()

	go func() {
		log.Info("scheduler periodic registrar started", "interval_seconds", cfg.SchedulerTickSeconds())
		asynqScheduler.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down scheduler")
	asynqScheduler.Shutdown()
	server.Shutdown()
}

func buildScheduler(cfg *config.Config, log logging.Logger) (*scheduler.Scheduler, error) {
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
	posts := persistence.NewScheduledRepository(db)
	locks := cache.New(redisClient)
	q := queue.New(redisClient, cfg.Queue.PostingQueueURL)

	in := intake.New(accounts, requests, q, log)

	return scheduler.New(posts, in, locks, log), nil
}
