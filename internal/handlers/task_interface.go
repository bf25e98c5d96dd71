package handlers

import "context"
import "github.com/google/uuid"
import "smartTask/internal/models/task"

type TaskService interface {
	CreateTask(ctx context.Context, owner uuid.UUID, newTask *task.Task) (*task.Task, error)
	GetTask(ctx context.Context, owner, id uuid.UUID) (*task.Task, error)
	UpdateTask(ctx context.Context, owner, id uuid.UUID, pattern *task.RulePatch, options ...task.TaskOption) (*task.Task, error)
	DeleteTask(ctx context.Context, owner, id uuid.UUID) (*task.Task, error)
	ListTasks(ctx context.Context, owner uuid.UUID, spec task.ListSpec) ([]*task.Task, error)
	HealthCheck(ctx context.Context) error
}
