package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"smartTask/internal/auth"
	"smartTask/internal/logger"
	"smartTask/internal/models/user"
	repo "smartTask/internal/repository"

	"go.uber.org/zap"
)

type contextKey string

const identityKey contextKey = "identity"

// IdentityFromContext возвращает учётную запись, положенную
// middleware'ом AuthRequired.
func IdentityFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(identityKey).(*user.User)
	return u, ok
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login принимает пару логин/пароль формой или JSON-ом и выдаёт
// bearer-токен.
func (g *Gateway) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	creds, err := readCredentials(r)
	if err != nil {

		logger.Warn("HTTP: Не удалось прочитать учётные данные",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса:"+err.Error())
		return
	}

	account, err := g.users.GetByUsername(r.Context(), creds.Username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {

			logger.Warn("HTTP: Неудачная попытка входа",
				zap.String("username", creds.Username),
				zap.String("client_ip", r.RemoteAddr))

			responseWithError(w, http.StatusUnauthorized, "неверный логин или пароль")
			return
		}

		logger.Error("HTTP: Ошибка хранилища пользователей", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if !auth.VerifyPassword(creds.Password, account.PasswordHash) {

		logger.Warn("HTTP: Неудачная попытка входа",
			zap.String("username", creds.Username),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnauthorized, "неверный логин или пароль")
		return
	}

	if !account.IsActive {

		logger.Warn("HTTP: Вход в неактивную учётную запись",
			zap.String("username", creds.Username),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "учётная запись деактивирована")
		return
	}

	token, err := g.tokens.Issue(account.ID)
	if err != nil {
		logger.Error("HTTP: Не удалось выпустить токен", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Токен выдан",
		zap.String("user_id", account.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

func readCredentials(r *http.Request) (loginRequest, error) {
	var creds loginRequest

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			return creds, err
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return creds, err
		}
		creds.Username = r.PostFormValue("username")
		creds.Password = r.PostFormValue("password")
	}

	if creds.Username == "" || creds.Password == "" {
		return creds, errors.New("логин и пароль обязательны")
	}
	return creds, nil
}

type tokenStatusResponse struct {
	ExpiresAt string `json:"expires_at"`
	IsExpired bool   `json:"is_expired"`
	TimeLeft  string `json:"time_left"`
}

// TokenStatus — диагностика токена без похода в task-service.
func (g *Gateway) TokenStatus(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	token, ok := bearerToken(r)
	if !ok {
		responseWithError(w, http.StatusUnauthorized, "требуется bearer-токен")
		return
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			responseWithJSON(w, http.StatusOK, tokenStatusResponse{
				ExpiresAt: expiryOf(token, g.tokens),
				IsExpired: true,
				TimeLeft:  "expired",
			})
			return
		}
		responseWithError(w, http.StatusUnauthorized, "неверный токен")
		return
	}

	left, err := g.tokens.Remaining(token)
	if err != nil {
		left = 0
	}

	responseWithJSON(w, http.StatusOK, tokenStatusResponse{
		ExpiresAt: claims.ExpiresAt.Time.UTC().Format(time.RFC3339),
		IsExpired: false,
		TimeLeft:  formatTimeLeft(left),
	})
}

func formatTimeLeft(d time.Duration) string {
	if d <= 0 {
		return "expired"
	}
	return fmt.Sprintf("%02d:%02d:%02d",
		int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

// expiryOf достаёт exp даже из просроченного токена, подпись при этом
// уже проверена в Verify.
func expiryOf(token string, tokens *auth.TokenService) string {
	exp, err := tokens.ExpiresAt(token)
	if err != nil {
		return ""
	}
	return exp.UTC().Format(time.RFC3339)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

// AuthRequired проверяет токен и кладёт учётную запись в контекст.
// Любая проблема с токеном — 401 без похода ниже.
func (g *Gateway) AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {

			logger.Warn("HTTP: Запрос без bearer-токена",
				zap.String("path", r.URL.Path),
				zap.String("client_ip", r.RemoteAddr))

			responseWithError(w, http.StatusUnauthorized, "требуется bearer-токен")
			return
		}

		claims, err := g.tokens.Verify(token)
		if err != nil {

			logger.Warn("HTTP: Токен не прошёл проверку",
				zap.Error(err),
				zap.String("client_ip", r.RemoteAddr))

			if errors.Is(err, auth.ErrTokenExpired) {
				responseWithError(w, http.StatusUnauthorized, "токен истёк")
				return
			}
			responseWithError(w, http.StatusUnauthorized, "неверный токен")
			return
		}

		subject, err := claims.Subject()
		if err != nil {
			responseWithError(w, http.StatusUnauthorized, "неверный токен")
			return
		}

		account, err := g.users.GetByID(r.Context(), subject)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				responseWithError(w, http.StatusNotFound, "пользователь не найден")
				return
			}
			logger.Error("HTTP: Ошибка хранилища пользователей", err)
			responseWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		if !account.IsActive {
			responseWithError(w, http.StatusNotFound, "пользователь не найден")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
