package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"smartTask/internal/config"
	"smartTask/internal/logger"
	"smartTask/internal/models/task"
	repo "smartTask/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Storage — единственная точка доступа к таблицам tasks и
// recurring_tasks. Каждый запрос обязан фильтроваться по user_id,
// обойти скоупинг через этот тип нельзя.
type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg config.DatabaseConfig) (*Storage, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConnections
	poolConfig.MinConns = cfg.MinConnections
	poolConfig.MaxConnIdleTime = cfg.IdleTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

const taskColumns = `id, user_id, title, description, status, priority, color_label,
	estimated_duration, deadline, reminder_enabled, reminder_time, tags,
	is_recurring, created_at, updated_at, completed_at`

const ruleColumns = `id, task_id, recurrence_type, time_interval,
	monday, tuesday, wednesday, thursday, friday, saturday, sunday,
	time_of_day, start_date, end_date, last_generated, created_at, updated_at`

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.ColorLabel,
		&t.EstimatedDuration,
		&t.Deadline,
		&t.ReminderEnabled,
		&t.ReminderTime,
		&t.Tags,
		&t.IsRecurring,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.CompletedAt,
	)
	return t, err
}

func scanRule(row pgx.Row) (*task.RecurringRule, error) {
	r := &task.RecurringRule{}
	err := row.Scan(
		&r.ID,
		&r.TaskID,
		&r.RecurrenceType,
		&r.TimeInterval,
		&r.Monday,
		&r.Tuesday,
		&r.Wednesday,
		&r.Thursday,
		&r.Friday,
		&r.Saturday,
		&r.Sunday,
		&r.TimeOfDay,
		&r.StartDate,
		&r.EndDate,
		&r.LastGenerated,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}

// Create пишет задачу и её правило в одной транзакции: задача без
// правила при is_recurring=true существовать не должна.
func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		logger.Error("Repository: Не удалось открыть транзакцию", err)
		return fmt.Errorf("открытие транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO tasks
			(id, user_id, title, description, status, priority, color_label,
			 estimated_duration, deadline, reminder_enabled, reminder_time, tags,
			 is_recurring, created_at, completed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING created_at`

	err = tx.QueryRow(ctx, query,
		taskToCreate.ID,
		taskToCreate.UserID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Status,
		taskToCreate.Priority,
		taskToCreate.ColorLabel,
		taskToCreate.EstimatedDuration,
		taskToCreate.Deadline,
		taskToCreate.ReminderEnabled,
		taskToCreate.ReminderTime,
		taskToCreate.Tags,
		taskToCreate.IsRecurring,
		time.Now(),
		taskToCreate.CompletedAt,
	).Scan(&taskToCreate.CreatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	if taskToCreate.RecurringPattern != nil {
		if err := s.insertRule(ctx, tx, taskToCreate.ID, taskToCreate.RecurringPattern); err != nil {
			logger.Error("Repository: Не удалось добавить правило повторения", err)
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось закоммитить транзакцию", err)
		return fmt.Errorf("коммит транзакции: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) insertRule(ctx context.Context, tx pgx.Tx, taskID uuid.UUID, rule *task.RecurringRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	rule.TaskID = taskID

	query := `INSERT INTO recurring_tasks
			(id, task_id, recurrence_type, time_interval,
			 monday, tuesday, wednesday, thursday, friday, saturday, sunday,
			 time_of_day, start_date, end_date, last_generated, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			RETURNING created_at`

	err := tx.QueryRow(ctx, query,
		rule.ID,
		rule.TaskID,
		rule.RecurrenceType,
		rule.TimeInterval,
		rule.Monday,
		rule.Tuesday,
		rule.Wednesday,
		rule.Thursday,
		rule.Friday,
		rule.Saturday,
		rule.Sunday,
		rule.TimeOfDay,
		rule.StartDate,
		rule.EndDate,
		rule.LastGenerated,
		time.Now(),
	).Scan(&rule.CreatedAt)

	if err != nil {
		return fmt.Errorf("добавление правила повторения: %w", err)
	}
	return nil
}

// GetByID скоупится по владельцу: чужая задача неотличима от отсутствующей.
func (s *Storage) GetByID(ctx context.Context, owner, id uuid.UUID) (*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`

	t, err := scanTask(s.pool.QueryRow(ctx, query, id, owner))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if t.IsRecurring {
		rule, err := scanRule(s.pool.QueryRow(ctx,
			`SELECT `+ruleColumns+` FROM recurring_tasks WHERE task_id = $1`, t.ID))
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			logger.Error("Repository: Не удалось получить правило повторения", err)
			return nil, fmt.Errorf("получение правила повторения: %w", err)
		}
		if err == nil {
			t.RecurringPattern = rule
		}
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return t, nil
}

// Update переписывает задачу целиком (частичность применяется уровнем
// выше) и создаёт либо обновляет правило в той же транзакции.
func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		logger.Error("Repository: Не удалось открыть транзакцию", err)
		return fmt.Errorf("открытие транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				status = $3,
				priority = $4,
				color_label = $5,
				estimated_duration = $6,
				deadline = $7,
				reminder_enabled = $8,
				reminder_time = $9,
				tags = $10,
				is_recurring = $11,
				completed_at = $12,
				updated_at = NOW()
			WHERE id = $13 AND user_id = $14
			RETURNING updated_at`

	err = tx.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.Status,
		taskToUpdate.Priority,
		taskToUpdate.ColorLabel,
		taskToUpdate.EstimatedDuration,
		taskToUpdate.Deadline,
		taskToUpdate.ReminderEnabled,
		taskToUpdate.ReminderTime,
		taskToUpdate.Tags,
		taskToUpdate.IsRecurring,
		taskToUpdate.CompletedAt,
		taskToUpdate.ID,
		taskToUpdate.UserID,
	).Scan(&taskToUpdate.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	if taskToUpdate.RecurringPattern != nil {
		if err := s.upsertRule(ctx, tx, taskToUpdate.ID, taskToUpdate.RecurringPattern); err != nil {
			logger.Error("Repository: Не удалось обновить правило повторения", err)
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось закоммитить транзакцию", err)
		return fmt.Errorf("коммит транзакции: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) upsertRule(ctx context.Context, tx pgx.Tx, taskID uuid.UUID, rule *task.RecurringRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	rule.TaskID = taskID

	query := `INSERT INTO recurring_tasks
			(id, task_id, recurrence_type, time_interval,
			 monday, tuesday, wednesday, thursday, friday, saturday, sunday,
			 time_of_day, start_date, end_date, last_generated, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
			ON CONFLICT (task_id) DO UPDATE
			SET recurrence_type = EXCLUDED.recurrence_type,
				time_interval = EXCLUDED.time_interval,
				monday = EXCLUDED.monday,
				tuesday = EXCLUDED.tuesday,
				wednesday = EXCLUDED.wednesday,
				thursday = EXCLUDED.thursday,
				friday = EXCLUDED.friday,
				saturday = EXCLUDED.saturday,
				sunday = EXCLUDED.sunday,
				time_of_day = EXCLUDED.time_of_day,
				start_date = EXCLUDED.start_date,
				end_date = EXCLUDED.end_date,
				last_generated = EXCLUDED.last_generated,
				updated_at = NOW()`

	_, err := tx.Exec(ctx, query,
		rule.ID,
		rule.TaskID,
		rule.RecurrenceType,
		rule.TimeInterval,
		rule.Monday,
		rule.Tuesday,
		rule.Wednesday,
		rule.Thursday,
		rule.Friday,
		rule.Saturday,
		rule.Sunday,
		rule.TimeOfDay,
		rule.StartDate,
		rule.EndDate,
		rule.LastGenerated,
	)

	if err != nil {
		return fmt.Errorf("upsert правила повторения: %w", err)
	}
	return nil
}

// Delete удаляет задачу владельца; правило уходит каскадом по FK.
// Возвращает удалённую задачу, она нужна сервису для ответа.
func (s *Storage) Delete(ctx context.Context, owner, id uuid.UUID) (*task.Task, error) {
	start := time.Now()

	query := `DELETE FROM tasks
			WHERE id = $1 AND user_id = $2
			RETURNING ` + taskColumns

	t, err := scanTask(s.pool.QueryRow(ctx, query, id, owner))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось удалить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("удаление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return t, nil
}

// List строит запрос из спецификации. Сортировка только по полям из
// белого списка, направление приводится заранее в spec.Normalize.
func (s *Storage) List(ctx context.Context, owner uuid.UUID, spec task.ListSpec) ([]*task.Task, error) {
	start := time.Now()
	spec.Normalize()

	var conditions []string
	var args []any

	addArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conditions = append(conditions, "user_id = "+addArg(owner))

	if spec.Status != nil {
		conditions = append(conditions, "status = "+addArg(*spec.Status))
	}
	if spec.Priority != nil {
		conditions = append(conditions, "priority = "+addArg(*spec.Priority))
	}
	if spec.Search != "" {
		ph := addArg("%" + spec.Search + "%")
		conditions = append(conditions, fmt.Sprintf("(title ILIKE %s OR description ILIKE %s)", ph, ph))
	}
	if len(spec.Tags) > 0 {
		conditions = append(conditions, "tags @> "+addArg(spec.Tags))
	}
	if spec.DeadlineAfter != nil {
		conditions = append(conditions, "deadline >= "+addArg(*spec.DeadlineAfter))
	}
	if spec.DeadlineBefore != nil {
		conditions = append(conditions, "deadline <= "+addArg(*spec.DeadlineBefore))
	}

	direction := "DESC"
	if spec.SortOrder == "asc" {
		direction = "ASC"
	}

	query := `SELECT ` + taskColumns + ` FROM tasks
			WHERE ` + strings.Join(conditions, " AND ") +
		fmt.Sprintf(" ORDER BY %s %s LIMIT %s OFFSET %s",
			spec.SortBy, direction, addArg(spec.Limit), addArg(spec.Offset))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	if err := s.attachRules(ctx, tasks); err != nil {
		return nil, err
	}

	if time.Since(start) > time.Millisecond*50+time.Millisecond*10*time.Duration(spec.Limit) {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return tasks, nil
}

// attachRules подгружает правила повторения одним запросом на весь список.
func (s *Storage) attachRules(ctx context.Context, tasks []*task.Task) error {
	ids := []uuid.UUID{}
	byID := map[uuid.UUID]*task.Task{}
	for _, t := range tasks {
		if t.IsRecurring {
			ids = append(ids, t.ID)
			byID[t.ID] = t
		}
	}
	if len(ids) == 0 {
		return nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+ruleColumns+` FROM recurring_tasks WHERE task_id = ANY($1)`, ids)
	if err != nil {
		logger.Error("Repository: Не удалось получить правила повторения", err)
		return fmt.Errorf("получение правил повторения: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования правила", zap.Error(err))
			continue
		}
		if t, ok := byID[rule.TaskID]; ok {
			t.RecurringPattern = rule
		}
	}

	return rows.Err()
}

func (s *Storage) Migrate(ctx context.Context, dir string) error {
	logger.Info("Repository: Применение миграций")

	initUp, err := os.ReadFile(dir + "/001_init.up.sql")
	if err != nil {
		logger.Error("Repository: Не удалось прочитать 001_init.up.sql", err)
		return err
	}

	if _, err := s.pool.Exec(ctx, string(initUp)); err != nil {
		logger.Error("Repository: Не удалось применить 001_init", err)
		return err
	}

	logger.Info("Repository: Миграции применены")
	return nil
}

func (s *Storage) Down(ctx context.Context, dir string) error {
	logger.Info("Repository: Откат миграций")

	initDown, err := os.ReadFile(dir + "/001_init.down.sql")
	if err != nil {
		logger.Error("Repository: Не удалось прочитать 001_init.down.sql", err)
		return err
	}

	if _, err := s.pool.Exec(ctx, string(initDown)); err != nil {
		logger.Error("Repository: Не удалось откатить 001_init", err)
		return err
	}

	return nil
}
