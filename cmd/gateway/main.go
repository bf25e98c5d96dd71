package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartTask/internal/auth"
	"smartTask/internal/config"
	"smartTask/internal/gateway"
	"smartTask/internal/logger"
	"smartTask/internal/middleware"
	userpg "smartTask/internal/repository/user/postgres"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if err := logger.Init(cfg.Logging.Development); err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	users, err := userpg.New(ctx, cfg.Database)
	if err != nil {
		logger.Error("Gateway: не удалось подключиться к базе", err)
		os.Exit(1)
	}
	defer users.Close()

	tokens := auth.NewTokenService(cfg.Auth.SecretKey, cfg.Auth.TokenTTL)
	gw := gateway.New(tokens, users, cfg.TaskService)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.RateLimit(100))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api/v1", gw.Routes)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{
		Addr:    cfg.GatewayAddr(),
		Handler: r,
	}

	go func() {
		logger.Info("Gateway: сервер запущен", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Gateway: сервер остановился с ошибкой", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Gateway: завершение работы...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Gateway: ошибка при остановке сервера", err)
	}
}
