package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Davshiv20/PingPollz/internal/config"
	"github.com/Davshiv20/PingPollz/internal/middleware"
	"github.com/Davshiv20/PingPollz/internal/service"
	"github.com/Davshiv20/PingPollz/internal/store"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Store    store.Store
	Hub      *service.Hub
	Auth     *service.AuthService
	Sessions *service.SessionService
	Polls    *service.PollService
	Chat     *service.ChatService
}

// NewApp builds the Fiber app with every route wired. Shared by cmd/server
// and the handler tests.
func NewApp(cfg *config.Config, d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // 1MB
	})

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,PUT,DELETE",
	}))

	healthH := NewHealthHandler(d.Store)
	app.Get("/health", healthH.Health)
	app.Get("/ready", healthH.Ready)

	v1 := app.Group("/api/v1")

	// Auth (public)
	authH := NewAuthHandler(d.Auth)
	auth := v1.Group("/auth")
	auth.Post("/login", middleware.RateLimit(10, time.Minute), authH.Login)
	auth.Post("/refresh", middleware.RateLimit(20, time.Minute), authH.Refresh)

	// Query surface (public): point-in-time reads delegating to the engine.
	pollH := NewPollHandler(d.Polls)
	v1.Get("/polls", pollH.List)
	v1.Get("/polls/current", pollH.Current)

	participantH := NewParticipantHandler(d.Sessions, d.Hub)
	v1.Get("/participants", participantH.List)

	chatH := NewChatHandler(d.Chat)
	v1.Get("/chat/history", chatH.History)

	// Presenter-only mutations
	presenter := v1.Group("", middleware.Presenter(d.Auth))
	presenter.Post("/polls", pollH.Create)
	presenter.Post("/polls/end", pollH.End)
	presenter.Post("/participants/:id/kick", participantH.Kick)
	presenter.Get("/stats", participantH.Stats)

	// WebSocket
	wsH := NewWSHandler(d.Hub, d.Auth, d.Sessions, d.Polls, d.Chat)
	app.Get("/ws", wsH.Upgrade)

	return app
}
