package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"neurocart/internal/cache"
	"neurocart/internal/config"
	"neurocart/internal/http/handlers"
	"neurocart/internal/jobs"
	applog "neurocart/internal/log"
	"neurocart/internal/repos"
	"neurocart/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.LogFile != "" {
		f, err := applog.Tee(cfg.LogFile)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := repos.Seed(ctx, db, repos.SeedOptions{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		DemoProducts:  cfg.SeedDemo,
	}); err != nil {
		log.Fatalf("seed: %v", err)
	}

	c, err := newCache(cfg)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	q, err := newQueue(ctx, cfg)
	if err != nil {
		log.Fatalf("jobs: %v", err)
	}

	deps := handlers.NewDeps(db, cfg, c, q)
	app := handlers.NewApp(deps, handlers.AppOptions{
		TemplatesDir: cfg.TemplateDir,
		RateLimit:    60,
		LoginLimit:   5,
		AccessLog:    true,
	})

	runner := jobs.NewRunner(q, jobs.Options{
		Workers:     cfg.JobsWorkers,
		MaxAttempts: cfg.JobsMaxAttempts,
		BackoffBase: cfg.JobsBackoffBase,
		BackoffMax:  cfg.JobsBackoffMax,
	})
	services.RegisterJobs(runner, deps.Coupons, deps.Auth)

	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		runner.Run(ctx)
	}()
	go jobs.Schedule(ctx, q, jobs.KindExpireSweep, cfg.CouponSweepInterval, true)
	go jobs.Schedule(ctx, q, jobs.KindSessionPurge, time.Hour, false)

	errChan := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		log.Printf("[server] error: %v", err)
		stop()
	case <-ctx.Done():
		log.Printf("[server] shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("[server] graceful shutdown failed: %v", err)
	}

	select {
	case <-workersDone:
		log.Printf("[jobs] workers stopped")
	case <-time.After(10 * time.Second):
		log.Printf("[jobs] workers did not stop in time")
	}
}

func newCache(cfg config.Config) (cache.Cache, error) {
	switch cfg.CacheBackend {
	case "", "memory":
		return cache.NewMemory(), nil
	case "redis":
		client, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return cache.NewRedis(client, "neurocart:cache:"), nil
	}
	return nil, errors.New("CACHE_BACKEND must be memory or redis")
}

func newQueue(ctx context.Context, cfg config.Config) (jobs.Queue, error) {
	switch cfg.JobsBackend {
	case "", "memory":
		return jobs.NewMemoryQueue(), nil
	case "redis":
		client, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return jobs.NewRedisQueue(client, cfg.JobsQueue), nil
	case "sqs":
		if cfg.SQSQueueURL == "" {
			return nil, errors.New("SQS_QUEUE_URL is required for the sqs backend")
		}
		client, err := jobs.NewSQSClient(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
		if err != nil {
			return nil, err
		}
		return jobs.NewSQSQueue(client, cfg.SQSQueueURL), nil
	}
	return nil, errors.New("JOBS_BACKEND must be memory, redis or sqs")
}
