package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roomyhq/roomy/internal/config"
	"github.com/roomyhq/roomy/internal/database"
	postgresrepo "github.com/roomyhq/roomy/internal/repository/postgres"
	"github.com/roomyhq/roomy/internal/service"
	"github.com/roomyhq/roomy/internal/transport/http/handlers"
	"github.com/roomyhq/roomy/internal/transport/http/middleware"
	"github.com/roomyhq/roomy/internal/transport/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		logger.Error("connecting to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	chatRepo := postgresrepo.NewChatRepo(pool)

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret)
	chatService := service.NewChatService(chatRepo, userRepo)
	adminService := service.NewAdminService(chatRepo, userRepo, logger)

	// WebSocket hub routes live deliveries to connected recipients.
	hub := ws.NewHub(logger)
	go hub.Run()
	chatService.SetNotifier(ws.NewHubNotifier(hub))

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	chatHandler := handlers.NewChatHandler(chatService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, cfg.JWTSecret))

	// Protected - Chat
	mux.Handle("POST /api/chat/send", auth(http.HandlerFunc(chatHandler.Send)))
	mux.Handle("GET /api/chat/conversation", auth(http.HandlerFunc(chatHandler.GetConversation)))
	mux.Handle("GET /api/chat/users", auth(http.HandlerFunc(chatHandler.GetChatUsers)))
	mux.Handle("GET /api/chat/recent", auth(http.HandlerFunc(chatHandler.GetRecentChats)))

	// Protected - Admin
	mux.Handle("DELETE /api/admin/users/{id}", auth(http.HandlerFunc(adminHandler.DeleteUser)))

	// Start server with CORS
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	logger.Info("starting server", "addr", addr)
	if err := http.ListenAndServe(addr, middleware.CORS(mux)); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
