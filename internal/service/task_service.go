package service

import (
	"context"
	"errors"
	"time"

	"smartTask/internal/cache"
	"smartTask/internal/config"
	"smartTask/internal/logger"
	"smartTask/internal/models/task"
	rep "smartTask/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskService держит дисциплину кэширования вокруг хранилища:
// чтения через cache-aside, мутации сначала коммитятся в хранилище
// и только потом инвалидируют кэш. Отказ кэша никогда не валит
// мутацию — хуже немного устаревших данных только недоступность.
type TaskService struct {
	repo    TaskRepository
	cache   TaskCache
	ttlTask time.Duration
	// списки инвалидируются чаще, поэтому живут меньше
	ttlList time.Duration
}

func NewTaskService(repo TaskRepository, taskCache TaskCache, cfg config.RedisConfig) TaskService {
	return TaskService{
		repo:    repo,
		cache:   taskCache,
		ttlTask: cfg.TTLTask,
		ttlList: cfg.TTLTaskList,
	}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}

// CreateTask сохраняет задачу и правило повторения одной единицей
// работы. is_recurring всегда выводится из наличия правила.
func (s *TaskService) CreateTask(ctx context.Context, owner uuid.UUID, newTask *task.Task) (*task.Task, error) {
	newTask.ID = uuid.New()
	newTask.UserID = owner

	if newTask.Status == "" {
		newTask.Status = task.StatusPending
	}
	if newTask.Priority == "" {
		newTask.Priority = task.PriorityMedium
	}
	if newTask.Tags == nil {
		newTask.Tags = []string{}
	}

	newTask.IsRecurring = newTask.RecurringPattern != nil

	if newTask.Status == task.StatusDone {
		now := time.Now()
		newTask.CompletedAt = &now
	} else {
		newTask.CompletedAt = nil
	}

	if err := s.repo.Create(ctx, newTask); err != nil {
		return nil, err
	}

	s.invalidateLists(ctx, owner)

	logger.Info("Service: Задача создана",
		zap.String("task_id", newTask.ID.String()),
		zap.String("user_id", owner.String()))
	return newTask, nil
}

// GetTask сначала пробует кэш; ошибка кэша деградирует до похода в
// хранилище, а не до отказа запроса.
func (s *TaskService) GetTask(ctx context.Context, owner, id uuid.UUID) (*task.Task, error) {
	key := cache.TaskKey(owner, id)

	cached := &task.Task{}
	hit, err := s.cache.Get(ctx, key, cached)
	if err != nil {
		logger.Warn("Service: Кэш недоступен на чтении, идём в хранилище", zap.Error(err))
	}
	if hit {
		return cached, nil
	}

	t, err := s.repo.GetByID(ctx, owner, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("задача", id.String())
		}
		return nil, err
	}

	if err := s.cache.Set(ctx, key, t, s.ttlTask); err != nil {
		logger.Warn("Service: Не удалось записать задачу в кэш", zap.Error(err))
	}

	return t, nil
}

// UpdateTask применяет только переданные поля. Переход в done
// проставляет completed_at, уход из done — очищает.
func (s *TaskService) UpdateTask(ctx context.Context, owner, id uuid.UUID, pattern *task.RulePatch, options ...task.TaskOption) (*task.Task, error) {
	existing, err := s.repo.GetByID(ctx, owner, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("задача", id.String())
		}
		return nil, err
	}

	prevStatus := existing.Status
	for _, opt := range options {
		opt(existing)
	}

	if existing.Status != prevStatus {
		if existing.Status == task.StatusDone {
			now := time.Now()
			existing.CompletedAt = &now
		} else if prevStatus == task.StatusDone {
			existing.CompletedAt = nil
		}
	}

	if pattern != nil {
		if existing.RecurringPattern == nil {
			rule, err := ruleFromPatch(pattern)
			if err != nil {
				return nil, err
			}
			existing.RecurringPattern = rule
			existing.IsRecurring = true
		} else {
			pattern.Apply(existing.RecurringPattern)
		}
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("задача", id.String())
		}
		return nil, err
	}

	s.invalidateLists(ctx, owner)
	s.invalidateItem(ctx, owner, id)

	return existing, nil
}

// ruleFromPatch собирает новое правило, когда патч пришёл к задаче
// без правила. Тип и дата начала обязательны.
func ruleFromPatch(p *task.RulePatch) (*task.RecurringRule, error) {
	if p.RecurrenceType == nil {
		return nil, NewValidationError("recurring_pattern.recurrence_type", "обязательно для нового правила")
	}
	if p.StartDate == nil {
		return nil, NewValidationError("recurring_pattern.start_date", "обязательно для нового правила")
	}

	rule := &task.RecurringRule{
		RecurrenceType: *p.RecurrenceType,
		StartDate:      *p.StartDate,
	}
	p.Apply(rule)
	return rule, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, owner, id uuid.UUID) (*task.Task, error) {
	deleted, err := s.repo.Delete(ctx, owner, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("задача", id.String())
		}
		return nil, err
	}

	s.invalidateOwner(ctx, owner)

	logger.Info("Service: Задача удалена",
		zap.String("task_id", id.String()),
		zap.String("user_id", owner.String()))
	return deleted, nil
}

// ListTasks кэширует результат по отпечатку полной спецификации:
// одинаковые запросы попадают в одну запись.
func (s *TaskService) ListTasks(ctx context.Context, owner uuid.UUID, spec task.ListSpec) ([]*task.Task, error) {
	spec.Normalize()
	key := cache.ListKey(owner, cache.Fingerprint(spec))

	cached := []*task.Task{}
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn("Service: Кэш недоступен на чтении, идём в хранилище", zap.Error(err))
	}
	if hit {
		return cached, nil
	}

	tasks, err := s.repo.List(ctx, owner, spec)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, tasks, s.ttlList); err != nil {
		logger.Warn("Service: Не удалось записать список в кэш", zap.Error(err))
	}

	return tasks, nil
}

// invalidateLists сносит все списочные записи владельца. Мутация уже
// закоммичена, поэтому ошибка только логируется.
func (s *TaskService) invalidateLists(ctx context.Context, owner uuid.UUID) {
	count, err := s.cache.DeleteMatching(ctx, cache.OwnerListPattern(owner))
	if err != nil {
		logger.Warn("Service: Не удалось инвалидировать списки в кэше",
			zap.String("user_id", owner.String()),
			zap.Error(err))
		return
	}
	if count > 0 {
		logger.Debug("Service: Инвалидированы списочные записи кэша",
			zap.String("user_id", owner.String()),
			zap.Int("count", count))
	}
}

// invalidateOwner сносит весь кэш владельца разом: после удаления
// задачи не должно остаться ни её записи, ни списков, где она
// значилась.
func (s *TaskService) invalidateOwner(ctx context.Context, owner uuid.UUID) {
	count, err := s.cache.DeleteMatching(ctx, cache.TaskKeyPattern(owner))
	if err != nil {
		logger.Warn("Service: Не удалось инвалидировать кэш владельца",
			zap.String("user_id", owner.String()),
			zap.Error(err))
		return
	}
	if count > 0 {
		logger.Debug("Service: Инвалидирован кэш владельца",
			zap.String("user_id", owner.String()),
			zap.Int("count", count))
	}
}

func (s *TaskService) invalidateItem(ctx context.Context, owner, id uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.TaskKey(owner, id)); err != nil {
		logger.Warn("Service: Не удалось инвалидировать задачу в кэше",
			zap.String("task_id", id.String()),
			zap.Error(err))
	}
}
