package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"smartTask/internal/auth"
	"smartTask/internal/logger"
	"smartTask/internal/models/user"
	repo "smartTask/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RegisterUser создаёт учётную запись. Уникальность логина и почты
// проверяется до записи, хеш пароля наружу не отдаётся никогда.
func (g *Gateway) RegisterUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request registerRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {

		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса:"+err.Error())
		return
	}

	if msg, ok := validateRegisterRequest(&request); !ok {

		logger.Warn("HTTP: Ошибка валидации",
			zap.String("error", msg),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, msg)
		return
	}

	if _, err := g.users.GetByUsername(r.Context(), request.Username); err == nil {
		responseWithError(w, http.StatusBadRequest, "логин уже занят")
		return
	} else if !errors.Is(err, repo.ErrNotFound) {
		logger.Error("HTTP: Ошибка хранилища пользователей", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if _, err := g.users.GetByEmail(r.Context(), request.Email); err == nil {
		responseWithError(w, http.StatusBadRequest, "почта уже занята")
		return
	} else if !errors.Is(err, repo.ErrNotFound) {
		logger.Error("HTTP: Ошибка хранилища пользователей", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	hash, err := auth.HashPassword(request.Password)
	if err != nil {
		logger.Error("HTTP: Не удалось захешировать пароль", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	account := &user.User{
		ID:           uuid.New(),
		Username:     request.Username,
		Email:        request.Email,
		PasswordHash: hash,
		FirstName:    request.FirstName,
		LastName:     request.LastName,
		IsActive:     true,
		Role:         user.RoleRegular,
	}

	if err := g.users.Create(r.Context(), account); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			responseWithError(w, http.StatusBadRequest, "логин или почта уже заняты")
			return
		}
		logger.Error("HTTP: Не удалось создать пользователя", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Пользователь зарегистрирован",
		zap.String("user_id", account.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, account)
}

func validateRegisterRequest(request *registerRequest) (string, bool) {
	if strings.TrimSpace(request.Username) == "" {
		return "логин не может быть пустым", false
	}
	if !strings.Contains(request.Email, "@") {
		return "неверный формат почты", false
	}
	if len(request.Password) < 8 {
		return "пароль должен быть не короче 8 символов", false
	}
	return "", true
}

func (g *Gateway) CurrentUser(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	account, ok := IdentityFromContext(r.Context())
	if !ok {
		responseWithError(w, http.StatusUnauthorized, "требуется bearer-токен")
		return
	}

	responseWithJSON(w, http.StatusOK, account)
}

func (g *Gateway) ListUsers(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	offset := 0
	limit := 50
	if v := r.URL.Query().Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			responseWithError(w, http.StatusBadRequest, "неверное значение offset")
			return
		}
		offset = parsed
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			responseWithError(w, http.StatusBadRequest, "неверное значение limit")
			return
		}
		limit = parsed
	}

	users, err := g.users.List(r.Context(), offset, limit)
	if err != nil {
		logger.Error("HTTP: Ошибка хранилища пользователей", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	responseWithJSON(w, http.StatusOK, users)
}

func (g *Gateway) GetUserByID(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		responseWithError(w, http.StatusBadRequest, "не удалось получить id:"+err.Error())
		return
	}

	account, err := g.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			responseWithError(w, http.StatusNotFound, "пользователь не найден")
			return
		}
		logger.Error("HTTP: Ошибка хранилища пользователей", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	responseWithJSON(w, http.StatusOK, account)
}
