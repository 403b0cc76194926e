package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Davshiv20/PingPollz/internal/config"
	"github.com/Davshiv20/PingPollz/internal/database"
	"github.com/Davshiv20/PingPollz/internal/handler"
	"github.com/Davshiv20/PingPollz/internal/service"
	"github.com/Davshiv20/PingPollz/internal/store"
)

func main() {
	cfg := config.Load()

	// State store: in-memory by default, Postgres when shared across nodes.
	var (
		st      store.Store
		sweeper *cron.Cron
	)
	switch cfg.StoreBackend {
	case "postgres":
		pool, err := database.NewPool(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		if err := database.RunMigrations(context.Background(), pool); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Migrations applied successfully")

		pg := store.NewPostgres(pool, cfg.ChatHistoryLimit)
		st = pg

		// Retention sweep for the chat table; the capacity bound already
		// trims per-append, this clears abandoned sessions.
		sweeper = cron.New()
		_, err = sweeper.AddFunc("@hourly", func() {
			n, err := pg.DeleteChatOlderThan(context.Background(), cfg.ChatRetentionDays)
			if err != nil {
				log.Printf("[Sweep] chat retention failed: %v", err)
				return
			}
			if n > 0 {
				log.Printf("[Sweep] deleted %d chat messages older than %dd", n, cfg.ChatRetentionDays)
			}
		})
		if err != nil {
			log.Fatalf("Failed to schedule retention sweep: %v", err)
		}
		sweeper.Start()
	default:
		st = store.NewMemory(cfg.ChatHistoryLimit)
	}

	// Services
	authSvc, err := service.NewAuthService(cfg.PresenterPasscode, cfg.JWTSecret)
	if err != nil {
		log.Fatalf("Failed to init auth: %v", err)
	}
	notifier, err := service.NewNotifier(cfg.DiscordToken, cfg.DiscordChannelID)
	if err != nil {
		log.Fatalf("Failed to init Discord notifier: %v", err)
	}

	hub := service.NewHub()
	timers := service.NewTimerService()
	pollSvc := service.NewPollService(st, hub, timers, notifier)
	sessionSvc := service.NewSessionService(st, hub)
	chatSvc := service.NewChatService(st, hub)

	app := handler.NewApp(cfg, handler.Deps{
		Store:    st,
		Hub:      hub,
		Auth:     authSvc,
		Sessions: sessionSvc,
		Polls:    pollSvc,
		Chat:     chatSvc,
	})

	// Start hub
	go hub.Run()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Printf("PingPollz backend running on :%s (%s, store=%s)", cfg.Port, cfg.Env, cfg.StoreBackend)

	<-quit
	log.Println("Shutting down...")
	_ = app.ShutdownWithTimeout(5 * time.Second)
	if sweeper != nil {
		sweeper.Stop()
	}
	timers.Stop()
	hub.Shutdown()
	notifier.Close()
	log.Println("Server stopped")
}
