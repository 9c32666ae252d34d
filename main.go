package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/valkey-io/valkey-go"

	"duochat/config"
	"duochat/database"
	"duochat/database/memory"
	"duochat/handlers"
	"duochat/middleware"
	"duochat/services"
	"duochat/websocket"
)

// storage is everything the services need from a backend.
type storage interface {
	services.FriendshipStore
	services.DialogStore
	services.MessageStore
	services.UserDirectory
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, users, closeStore := openStorage(cfg)
	defer closeStore()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	var notifier services.Notifier = hub
	if cfg.ValkeyAddr != "" {
		client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{cfg.ValkeyAddr}})
		if err != nil {
			fatal("failed to connect to valkey", err)
		}
		defer client.Close()

		relay, err := websocket.NewRelay(client, cfg.ValkeyChannel, hub)
		if err != nil {
			fatal("failed to create relay", err)
		}
		go relay.Run(ctx)
		notifier = relay
		slog.Info("realtime relay enabled", "addr", cfg.ValkeyAddr, "channel", cfg.ValkeyChannel)
	}

	friendService, err := services.NewFriendService(store, users)
	if err != nil {
		fatal("failed to create friend service", err)
	}
	messageService, err := services.NewMessageService(friendService, store, store, notifier, cfg.MaxMessageLength, cfg.HistoryMaxTake)
	if err != nil {
		fatal("failed to create message service", err)
	}

	limiter := middleware.NewRateLimiter(cfg.SendRatePerMinute, cfg.SendBurst)
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()

	r := gin.Default()
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))

	router := &handlers.Router{
		Friends:     handlers.NewFriendHandler(friendService),
		Messages:    handlers.NewMessageHandler(messageService),
		WebSocket:   websocket.NewHandler(hub, messageService, cfg.JWTSecret).HandleWebSocket,
		JWTSecret:   cfg.JWTSecret,
		RateLimiter: limiter,
		RatePerMin:  cfg.SendRatePerMinute,
	}
	router.Register(r)

	srv := &http.Server{Addr: cfg.ServerAddr, Handler: r}
	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "err", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.ServerAddr, "storage", cfg.Storage)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal("failed to start server", err)
	}
}

// openStorage returns the backend and the directory used to check request
// targets. The in-memory backend knows no accounts, so it gets no directory.
func openStorage(cfg *config.Config) (storage, services.UserDirectory, func()) {
	if cfg.Storage == "memory" {
		slog.Warn("using in-memory storage, data is lost on restart")
		return memory.NewStore(), nil, func() {}
	}

	db, err := database.Connect(cfg.MysqlDSN)
	if err != nil {
		fatal("failed to connect to database", err)
	}
	if err := database.CreateTables(db); err != nil {
		db.Close()
		fatal("failed to create tables", err)
	}
	store, err := database.NewStore(db)
	if err != nil {
		db.Close()
		fatal("failed to create store", err)
	}
	return store, store, func() { db.Close() }
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
