package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"smartTask/internal/auth"
	"smartTask/internal/config"
	"smartTask/internal/gateway"
	"smartTask/internal/logger"
	"smartTask/internal/models/user"
	"smartTask/internal/repository/user/inmemory"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init(false)
	os.Exit(m.Run())
}

type gatewayFixture struct {
	router http.Handler
	tokens *auth.TokenService
	users  *inmemory.UserStorage
}

func newGatewayFixture(t *testing.T, taskServiceURL string) *gatewayFixture {
	t.Helper()

	tokens := auth.NewTokenService("test-secret", 30*time.Minute)
	users := inmemory.NewUserStorage()
	gw := gateway.New(tokens, users, config.ServerConfig{URL: taskServiceURL})

	r := chi.NewRouter()
	r.Route("/api/v1", gw.Routes)

	return &gatewayFixture{router: r, tokens: tokens, users: users}
}

func (f *gatewayFixture) addUser(t *testing.T, username, password string, active bool) *user.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	account := &user.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		IsActive:     active,
		Role:         user.RoleRegular,
	}
	require.NoError(t, f.users.Create(context.Background(), account))
	return account
}

func TestGateway_Login(t *testing.T) {
	f := newGatewayFixture(t, "http://unused")
	f.addUser(t, "alice", "secret-password", true)
	f.addUser(t, "frozen", "secret-password", false)

	tests := []struct {
		name           string
		body           string
		contentType    string
		expectedStatus int
	}{
		{
			name:           "success - json credentials",
			body:           `{"username": "alice", "password": "secret-password"}`,
			contentType:    "application/json",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "success - form credentials",
			body:           url.Values{"username": {"alice"}, "password": {"secret-password"}}.Encode(),
			contentType:    "application/x-www-form-urlencoded",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - wrong password",
			body:           `{"username": "alice", "password": "wrong"}`,
			contentType:    "application/json",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "error - unknown user",
			body:           `{"username": "nobody", "password": "secret-password"}`,
			contentType:    "application/json",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "error - inactive account",
			body:           `{"username": "frozen", "password": "secret-password"}`,
			contentType:    "application/json",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - missing credentials",
			body:           `{"username": "alice"}`,
			contentType:    "application/json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)

			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, req)

			require.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.NotEmpty(t, body["access_token"])
				assert.Equal(t, "bearer", body["token_type"])
			}
		})
	}
}

func TestGateway_TokenStatus(t *testing.T) {
	f := newGatewayFixture(t, "http://unused")
	account := f.addUser(t, "alice", "secret-password", true)

	t.Run("valid token", func(t *testing.T) {
		token, err := f.tokens.Issue(account.ID)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/v1/auth/token-status", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, false, body["is_expired"])
		assert.NotEmpty(t, body["expires_at"])
		assert.NotEqual(t, "expired", body["time_left"])
	})

	t.Run("expired token", func(t *testing.T) {
		expiredIssuer := auth.NewTokenService("test-secret", -time.Minute)
		token, err := expiredIssuer.Issue(account.ID)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/v1/auth/token-status", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, true, body["is_expired"])
		assert.Equal(t, "expired", body["time_left"])
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/auth/token-status", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/auth/token-status", nil)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGateway_AuthRequired(t *testing.T) {
	f := newGatewayFixture(t, "http://unused")
	account := f.addUser(t, "alice", "secret-password", true)
	inactive := f.addUser(t, "frozen", "secret-password", false)

	t.Run("success - identity available", func(t *testing.T) {
		token, err := f.tokens.Issue(account.ID)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/v1/users/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "alice", body["username"])
		assert.NotContains(t, w.Body.String(), "password", "хеш пароля не должен сериализоваться")
	})

	t.Run("error - no token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/users/me", nil)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("error - wrong scheme", func(t *testing.T) {
		token, err := f.tokens.Issue(account.ID)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/v1/users/me", nil)
		req.Header.Set("Authorization", "Basic "+token)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("error - expired token", func(t *testing.T) {
		expiredIssuer := auth.NewTokenService("test-secret", -time.Minute)
		token, err := expiredIssuer.Issue(account.ID)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/v1/users/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("error - token for deleted account", func(t *testing.T) {
		token, err := f.tokens.Issue(uuid.New())
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/v1/users/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("error - inactive account treated as absent", func(t *testing.T) {
		token, err := f.tokens.Issue(inactive.ID)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/v1/users/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGateway_RegisterUser(t *testing.T) {
	f := newGatewayFixture(t, "http://unused")
	f.addUser(t, "taken", "secret-password", true)

	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{
			name:           "success - register",
			body:           `{"username": "newuser", "email": "new@example.com", "password": "long-enough"}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "error - username taken",
			body:           `{"username": "taken", "email": "other@example.com", "password": "long-enough"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - email taken",
			body:           `{"username": "another", "email": "taken@example.com", "password": "long-enough"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - short password",
			body:           `{"username": "shorty", "email": "shorty@example.com", "password": "short"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - bad email",
			body:           `{"username": "bademail", "email": "nope", "password": "long-enough"}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/users", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, req)

			require.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusCreated {
				assert.NotContains(t, w.Body.String(), "password")
			}
		})
	}
}
