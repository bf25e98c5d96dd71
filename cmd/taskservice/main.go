package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartTask/internal/cache"
	"smartTask/internal/config"
	"smartTask/internal/handlers"
	"smartTask/internal/logger"
	"smartTask/internal/middleware"
	taskpg "smartTask/internal/repository/task/postgres"
	"smartTask/internal/service"

	"github.com/go-chi/chi/v5"
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

	repo, err := taskpg.New(ctx, cfg.Database)
	if err != nil {
		logger.Error("TaskService: не удалось подключиться к базе", err)
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.Migrate(ctx, "migrations"); err != nil {
		logger.Error("TaskService: не удалось применить миграции", err)
		os.Exit(1)
	}

	taskCache, err := cache.New(cfg.Redis.URL)
	if err != nil {
		logger.Error("TaskService: не удалось подключиться к Redis", err)
		os.Exit(1)
	}
	defer taskCache.Close()

	taskService := service.NewTaskService(repo, taskCache, cfg.Redis)
	taskHandler := handlers.NewTaskHandler(&taskService)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.RateLimit(300))

	r.Route("/api/v1", taskHandler.Routes)
	r.Get("/health", taskHandler.HealthCheck)

	server := &http.Server{
		Addr:    cfg.TaskServiceAddr(),
		Handler: r,
	}

	go func() {
		logger.Info("TaskService: сервер запущен", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("TaskService: сервер остановился с ошибкой", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("TaskService: завершение работы...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("TaskService: ошибка при остановке сервера", err)
	}
}
