package gateway

import (
	"context"
	"net/http"
	"time"

	"smartTask/internal/auth"
	"smartTask/internal/config"
	"smartTask/internal/models/user"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// downstreamTimeout ограничивает каждый проксируемый запрос целиком,
// независимо от времени жизни входящего контекста.
const downstreamTimeout = 10 * time.Second

// UserRepository — хранилище учётных записей gateway'я.
type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	List(ctx context.Context, offset, limit int) ([]*user.User, error)
}

// Gateway — входная точка системы: аутентификация, учётные записи и
// проксирование задач в task-service.
type Gateway struct {
	tokens         *auth.TokenService
	users          UserRepository
	taskServiceURL string
	client         *http.Client
}

func New(tokens *auth.TokenService, users UserRepository, cfg config.ServerConfig) *Gateway {
	return &Gateway{
		tokens:         tokens,
		users:          users,
		taskServiceURL: cfg.URL,
		client: &http.Client{
			Timeout: downstreamTimeout,
		},
	}
}

// Routes монтирует все маршруты gateway'я.
func (g *Gateway) Routes(r chi.Router) {
	r.Post("/auth/login", g.Login)
	r.Get("/auth/token-status", g.TokenStatus)

	r.Post("/users", g.RegisterUser)

	r.Group(func(r chi.Router) {
		r.Use(g.AuthRequired)

		r.Get("/users/me", g.CurrentUser)
		r.Get("/users", g.ListUsers)
		r.Get("/users/{id}", g.GetUserByID)

		r.HandleFunc("/tasks/*", g.ProxyTasks)
	})
}
