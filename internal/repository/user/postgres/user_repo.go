package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smartTask/internal/config"
	"smartTask/internal/logger"
	"smartTask/internal/models/user"
	repo "smartTask/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

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

	logger.Info("Repository: Успешное создание подключения к PostgreSQL (users)")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const userColumns = `id, username, email, password_hash, first_name, last_name,
	is_active, role, created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.IsActive,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (s *Storage) Create(ctx context.Context, userToCreate *user.User) error {
	start := time.Now()

	query := `INSERT INTO users
			(id, username, email, password_hash, first_name, last_name, is_active, role, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at`

	err := s.pool.QueryRow(ctx, query,
		userToCreate.ID,
		userToCreate.Username,
		userToCreate.Email,
		userToCreate.PasswordHash,
		userToCreate.FirstName,
		userToCreate.LastName,
		userToCreate.IsActive,
		userToCreate.Role,
		time.Now(),
	).Scan(&userToCreate.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 — нарушение уникальности username/email
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repo.ErrDuplicate
		}
		logger.Error("Repository: Не удалось создать пользователя", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("создание пользователя: %w", err)
	}

	return nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err)
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}

func (s *Storage) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err)
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}

func (s *Storage) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err)
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}

func (s *Storage) List(ctx context.Context, offset, limit int) ([]*user.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		logger.Error("Repository: Не удалось получить пользователей", err)
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования пользователя", zap.Error(err))
			continue
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	return users, nil
}
