package service

import (
	"context"
	"time"

	"smartTask/internal/models/task"

	"github.com/google/uuid"
)

// TaskRepository — хранилище задач, каждый метод параметризован
// владельцем: забыть фильтр по user_id здесь невозможно.
type TaskRepository interface {
	Create(ctx context.Context, t *task.Task) error
	GetByID(ctx context.Context, owner, id uuid.UUID) (*task.Task, error)
	Update(ctx context.Context, t *task.Task) error
	Delete(ctx context.Context, owner, id uuid.UUID) (*task.Task, error)
	List(ctx context.Context, owner uuid.UUID, spec task.ListSpec) ([]*task.Task, error)
	HealthCheck(ctx context.Context) error
}

// TaskCache — key-value слой с TTL поверх Redis.
type TaskCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteMatching(ctx context.Context, pattern string) (int, error)
}
