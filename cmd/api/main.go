package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/visitgate-api/internal/application/dailytask"
	"github.com/visitgate-api/internal/cache"
	"github.com/visitgate-api/internal/config"
	"github.com/visitgate-api/internal/infrastructure/dynamo"
	"github.com/visitgate-api/internal/infrastructure/hooks"
	"github.com/visitgate-api/internal/infrastructure/rediscache"
	"github.com/visitgate-api/internal/infrastructure/smtp"
	"github.com/visitgate-api/internal/infrastructure/sns"
	"github.com/visitgate-api/internal/infrastructure/verifier"
	"github.com/visitgate-api/internal/pkg/id"
	"github.com/visitgate-api/internal/scheduler"
	transporthttp "github.com/visitgate-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared TTL cache: Redis when configured, in-memory otherwise. The
	// in-memory store is per-process, so the singleton lock only holds
	// within a single instance.
	var store cache.Store
	if cfg.RedisAddr != "" {
		client, err := rediscache.NewClient(ctx, cfg)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer client.Close()
		store = rediscache.New(client)
	} else {
		log.Println("WARN: REDIS_ADDR not set, using in-memory cache (single instance only)")
		store = cache.NewMemory()
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	visitorRepo := dynamo.NewVisitorRepo(dynamoClient, cfg.DynamoTables.Visitors)
	settingsRepo := dynamo.NewSettingsRepo(dynamoClient, cfg.DynamoTables.Settings)

	mailer := smtp.NewMailer(cfg)

	// SNS notifier for daily-task outcomes (optional — graceful fallback).
	var notifier dailytask.Notifier
	if n, err := sns.NewNotifier(cfg); err == nil {
		notifier = n
	} else {
		log.Printf("WARN: SNS notifier not available: %v", err)
	}

	instanceID := id.New()
	taskSvc := dailytask.NewService(dailytask.ServiceDeps{
		Cache:       store,
		InstanceID:  instanceID,
		Calendar:    hooks.NewHTTPTrigger("calendar_sync", cfg.CalendarSyncURL),
		Contacts:    hooks.NewHTTPTrigger("contacts_sync", cfg.ContactsSyncURL),
		Invitations: hooks.NewHTTPTrigger("invitation_dispatch", cfg.InviteDispatchURL),
		Notifier:    notifier,
	})

	sched := scheduler.New(settingsRepo, taskSvc, cfg.DefaultDailyCron)
	go sched.Run(ctx)

	deps := &transporthttp.Deps{
		Cache:       store,
		VisitorRepo: visitorRepo,
		Mailer:      mailer,
		Verifier:    verifier.NewClient(cfg),
		DailyTask:   taskSvc,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, instance=%s)", cfg.AppPort, cfg.AppEnv, instanceID)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
