package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"smartTask/internal/models/task"
	repo "smartTask/internal/repository"

	"github.com/google/uuid"
)

// TaskStorage повторяет семантику postgres-репозитория в памяти:
// скоупинг по владельцу, фильтры, сортировка. Используется в тестах
// и для локального запуска без БД.
type TaskStorage struct {
	storage map[uuid.UUID]*task.Task
	mtx     sync.RWMutex
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[uuid.UUID]*task.Task),
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *TaskStorage) Close() {}

func clone(t *task.Task) *task.Task {
	cp := *t
	if t.Tags != nil {
		cp.Tags = append([]string{}, t.Tags...)
	}
	if t.RecurringPattern != nil {
		rule := *t.RecurringPattern
		cp.RecurringPattern = &rule
	}
	return &cp
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	taskToCreate.CreatedAt = time.Now()
	if taskToCreate.RecurringPattern != nil {
		if taskToCreate.RecurringPattern.ID == uuid.Nil {
			taskToCreate.RecurringPattern.ID = uuid.New()
		}
		taskToCreate.RecurringPattern.TaskID = taskToCreate.ID
		taskToCreate.RecurringPattern.CreatedAt = taskToCreate.CreatedAt
	}

	s.storage[taskToCreate.ID] = clone(taskToCreate)
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, owner, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	t, ok := s.storage[id]
	if !ok || t.UserID != owner {
		return nil, repo.ErrNotFound
	}
	return clone(t), nil
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[taskToUpdate.ID]
	if !ok || existing.UserID != taskToUpdate.UserID {
		return repo.ErrNotFound
	}

	now := time.Now()
	taskToUpdate.UpdatedAt = &now
	if taskToUpdate.RecurringPattern != nil {
		if taskToUpdate.RecurringPattern.ID == uuid.Nil {
			taskToUpdate.RecurringPattern.ID = uuid.New()
			taskToUpdate.RecurringPattern.CreatedAt = now
		}
		taskToUpdate.RecurringPattern.TaskID = taskToUpdate.ID
		taskToUpdate.RecurringPattern.UpdatedAt = &now
	}

	s.storage[taskToUpdate.ID] = clone(taskToUpdate)
	return nil
}

func (s *TaskStorage) Delete(ctx context.Context, owner, id uuid.UUID) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, ok := s.storage[id]
	if !ok || t.UserID != owner {
		return nil, repo.ErrNotFound
	}

	delete(s.storage, id)
	return t, nil
}

func (s *TaskStorage) List(ctx context.Context, owner uuid.UUID, spec task.ListSpec) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	spec.Normalize()

	matched := []*task.Task{}
	for _, t := range s.storage {
		if t.UserID != owner {
			continue
		}
		if !matches(t, spec) {
			continue
		}
		matched = append(matched, t)
	}

	sortTasks(matched, spec.SortBy, spec.SortOrder)

	if spec.Offset >= len(matched) {
		return []*task.Task{}, nil
	}
	matched = matched[spec.Offset:]
	if len(matched) > spec.Limit {
		matched = matched[:spec.Limit]
	}

	result := make([]*task.Task, len(matched))
	for i, t := range matched {
		result[i] = clone(t)
	}
	return result, nil
}

func matches(t *task.Task, spec task.ListSpec) bool {
	if spec.Status != nil && t.Status != *spec.Status {
		return false
	}
	if spec.Priority != nil && t.Priority != *spec.Priority {
		return false
	}
	if spec.Search != "" {
		needle := strings.ToLower(spec.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	for _, tag := range spec.Tags {
		found := false
		for _, have := range t.Tags {
			if have == tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if spec.DeadlineAfter != nil {
		if t.Deadline == nil || t.Deadline.Before(*spec.DeadlineAfter) {
			return false
		}
	}
	if spec.DeadlineBefore != nil {
		if t.Deadline == nil || t.Deadline.After(*spec.DeadlineBefore) {
			return false
		}
	}
	return true
}

var priorityRank = map[task.Priority]int{
	task.PriorityLow:    0,
	task.PriorityMedium: 1,
	task.PriorityHigh:   2,
	task.PriorityUrgent: 3,
}

func sortTasks(tasks []*task.Task, sortBy, order string) {
	less := func(a, b *task.Task) bool {
		switch sortBy {
		case "deadline":
			switch {
			case a.Deadline == nil:
				return false
			case b.Deadline == nil:
				return true
			default:
				return a.Deadline.Before(*b.Deadline)
			}
		case "priority":
			return priorityRank[a.Priority] < priorityRank[b.Priority]
		case "status":
			return a.Status < b.Status
		case "title":
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		case "updated_at":
			switch {
			case a.UpdatedAt == nil:
				return b.UpdatedAt != nil
			case b.UpdatedAt == nil:
				return false
			default:
				return a.UpdatedAt.Before(*b.UpdatedAt)
			}
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if order == "asc" {
			return less(tasks[i], tasks[j])
		}
		return less(tasks[j], tasks[i])
	})
}
