package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"smartTask/internal/handlers"
	"smartTask/internal/logger"
	"smartTask/internal/models/task"
	"smartTask/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init(false)
	os.Exit(m.Run())
}

// MockTaskService - мок сервиса
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskService) CreateTask(ctx context.Context, owner uuid.UUID, newTask *task.Task) (*task.Task, error) {
	args := m.Called(ctx, owner, newTask)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) GetTask(ctx context.Context, owner, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, owner, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) UpdateTask(ctx context.Context, owner, id uuid.UUID, pattern *task.RulePatch, options ...task.TaskOption) (*task.Task, error) {
	args := m.Called(ctx, owner, id, pattern, options)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, owner, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, owner, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) ListTasks(ctx context.Context, owner uuid.UUID, spec task.ListSpec) ([]*task.Task, error) {
	args := m.Called(ctx, owner, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

var _ handlers.TaskService = (*MockTaskService)(nil)

func newTestRouter(mockService *MockTaskService) http.Handler {
	handler := handlers.NewTaskHandler(mockService)
	r := chi.NewRouter()
	r.Route("/api/v1", handler.Routes)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, target, owner, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if owner != "" {
		req.Header.Set("X-User-ID", owner)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestTaskHandler_CreateTask тестирует создание задачи
func TestTaskHandler_CreateTask(t *testing.T) {
	owner := uuid.New()
	taskID := uuid.New()

	tests := []struct {
		name           string
		owner          string
		requestBody    string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:        "success - create task",
			owner:       owner.String(),
			requestBody: `{"title": "Новая задача", "priority": "high"}`,
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, owner, mock.Anything).
					Return(&task.Task{
						ID:       taskID,
						UserID:   owner,
						Title:    "Новая задача",
						Status:   task.StatusPending,
						Priority: task.PriorityHigh,
					}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "error - missing user header",
			owner:          "",
			requestBody:    `{"title": "Без владельца"}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "error - malformed user header",
			owner:          "not-a-uuid",
			requestBody:    `{"title": "Кривой владелец"}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "error - invalid JSON",
			owner:          owner.String(),
			requestBody:    `{invalid json}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - missing title",
			owner:          owner.String(),
			requestBody:    `{"description": "без названия"}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - title too long",
			owner:          owner.String(),
			requestBody:    `{"title": "` + strings.Repeat("ы", 101) + `"}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - invalid status",
			owner:          owner.String(),
			requestBody:    `{"title": "Задача", "status": "paused"}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - invalid priority",
			owner:          owner.String(),
			requestBody:    `{"title": "Задача", "priority": "critical"}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - invalid recurrence type",
			owner:          owner.String(),
			requestBody:    `{"title": "Задача", "recurring_pattern": {"recurrence_type": "yearly", "start_date": "2026-09-01T00:00:00Z"}}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - service error",
			owner:       owner.String(),
			requestBody: `{"title": "Задача"}`,
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, owner, mock.Anything).
					Return(nil, errors.New("storage down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			router := newTestRouter(mockService)
			w := doRequest(t, router, "POST", "/api/v1/create-task", tt.owner, tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_CreateTask_UnsupportedMediaType(t *testing.T) {
	mockService := new(MockTaskService)
	router := newTestRouter(mockService)

	req := httptest.NewRequest("POST", "/api/v1/create-task", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-User-ID", uuid.New().String())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	mockService.AssertExpectations(t)
}

// TestTaskHandler_GetTaskByID тестирует получение задачи
func TestTaskHandler_GetTaskByID(t *testing.T) {
	owner := uuid.New()
	taskID := uuid.New()

	tests := []struct {
		name           string
		target         string
		owner          string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:   "success - get task",
			target: "/api/v1/get-task/" + taskID.String(),
			owner:  owner.String(),
			setupMock: func(m *MockTaskService) {
				m.On("GetTask", mock.Anything, owner, taskID).
					Return(&task.Task{ID: taskID, UserID: owner, Title: "Найдена"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "error - not found",
			target: "/api/v1/get-task/" + taskID.String(),
			owner:  owner.String(),
			setupMock: func(m *MockTaskService) {
				m.On("GetTask", mock.Anything, owner, taskID).
					Return(nil, service.NewNotFound("задача", taskID.String()))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "error - malformed id",
			target:         "/api/v1/get-task/not-a-uuid",
			owner:          owner.String(),
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - missing user header",
			target:         "/api/v1/get-task/" + taskID.String(),
			owner:          "",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			router := newTestRouter(mockService)
			w := doRequest(t, router, "GET", tt.target, tt.owner, "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_UpdateTaskByID тестирует частичное обновление
func TestTaskHandler_UpdateTaskByID(t *testing.T) {
	owner := uuid.New()
	taskID := uuid.New()

	t.Run("success - partial update", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("UpdateTask", mock.Anything, owner, taskID, (*task.RulePatch)(nil), mock.Anything).
			Return(&task.Task{ID: taskID, UserID: owner, Title: "Новое имя"}, nil)

		router := newTestRouter(mockService)
		w := doRequest(t, router, "PUT", "/api/v1/update-task/"+taskID.String(),
			owner.String(), `{"title": "Новое имя"}`)

		require.Equal(t, http.StatusOK, w.Code)

		var got task.Task
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "Новое имя", got.Title)

		// передано одно поле - одна опция
		options := mockService.Calls[0].Arguments.Get(4).([]task.TaskOption)
		assert.Len(t, options, 1)
		mockService.AssertExpectations(t)
	})

	t.Run("success - rule patch forwarded", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("UpdateTask", mock.Anything, owner, taskID, mock.Anything, mock.Anything).
			Return(&task.Task{ID: taskID, UserID: owner}, nil)

		router := newTestRouter(mockService)
		w := doRequest(t, router, "PUT", "/api/v1/update-task/"+taskID.String(),
			owner.String(), `{"recurring_pattern": {"friday": true}}`)

		require.Equal(t, http.StatusOK, w.Code)

		patch := mockService.Calls[0].Arguments.Get(3).(*task.RulePatch)
		require.NotNil(t, patch)
		require.NotNil(t, patch.Friday)
		assert.True(t, *patch.Friday)
		mockService.AssertExpectations(t)
	})

	t.Run("error - empty title rejected", func(t *testing.T) {
		mockService := new(MockTaskService)

		router := newTestRouter(mockService)
		w := doRequest(t, router, "PUT", "/api/v1/update-task/"+taskID.String(),
			owner.String(), `{"title": "   "}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("error - invalid status rejected", func(t *testing.T) {
		mockService := new(MockTaskService)

		router := newTestRouter(mockService)
		w := doRequest(t, router, "PUT", "/api/v1/update-task/"+taskID.String(),
			owner.String(), `{"status": "archived"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("error - not found", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("UpdateTask", mock.Anything, owner, taskID, (*task.RulePatch)(nil), mock.Anything).
			Return(nil, service.NewNotFound("задача", taskID.String()))

		router := newTestRouter(mockService)
		w := doRequest(t, router, "PUT", "/api/v1/update-task/"+taskID.String(),
			owner.String(), `{"title": "Чужая"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockService.AssertExpectations(t)
	})
}

// TestTaskHandler_DeleteTaskByID тестирует удаление
func TestTaskHandler_DeleteTaskByID(t *testing.T) {
	owner := uuid.New()
	taskID := uuid.New()

	t.Run("success - delete", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("DeleteTask", mock.Anything, owner, taskID).
			Return(&task.Task{ID: taskID, UserID: owner, Title: "Старая задача"}, nil)

		router := newTestRouter(mockService)
		w := doRequest(t, router, "DELETE", "/api/v1/delete-task/"+taskID.String(),
			owner.String(), "")

		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Task 'Старая задача' deleted successfully", body["message"])
		mockService.AssertExpectations(t)
	})

	t.Run("error - not found", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("DeleteTask", mock.Anything, owner, taskID).
			Return(nil, service.NewNotFound("задача", taskID.String()))

		router := newTestRouter(mockService)
		w := doRequest(t, router, "DELETE", "/api/v1/delete-task/"+taskID.String(),
			owner.String(), "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockService.AssertExpectations(t)
	})
}

// TestTaskHandler_ListTasks тестирует выборку с фильтрами
func TestTaskHandler_ListTasks(t *testing.T) {
	owner := uuid.New()

	t.Run("success - filters parsed", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("ListTasks", mock.Anything, owner, mock.Anything).
			Return([]*task.Task{}, nil)

		router := newTestRouter(mockService)
		w := doRequest(t, router, "GET",
			"/api/v1/list-tasks?status=pending&priority=high&search=отчёт&tags=work,urgent&limit=10&offset=5&sort_by=deadline&sort_order=asc",
			owner.String(), "")

		require.Equal(t, http.StatusOK, w.Code)

		spec := mockService.Calls[0].Arguments.Get(2).(task.ListSpec)
		require.NotNil(t, spec.Status)
		assert.Equal(t, task.StatusPending, *spec.Status)
		require.NotNil(t, spec.Priority)
		assert.Equal(t, task.PriorityHigh, *spec.Priority)
		assert.Equal(t, "отчёт", spec.Search)
		assert.Equal(t, []string{"work", "urgent"}, spec.Tags)
		assert.Equal(t, 10, spec.Limit)
		assert.Equal(t, 5, spec.Offset)
		assert.Equal(t, "deadline", spec.SortBy)
		assert.Equal(t, "asc", spec.SortOrder)
		mockService.AssertExpectations(t)
	})

	t.Run("success - unparsable deadline filter ignored", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("ListTasks", mock.Anything, owner, mock.Anything).
			Return([]*task.Task{}, nil)

		router := newTestRouter(mockService)
		w := doRequest(t, router, "GET",
			"/api/v1/list-tasks?deadline_after=not-a-date&deadline_before=2026-09-15",
			owner.String(), "")

		require.Equal(t, http.StatusOK, w.Code)

		spec := mockService.Calls[0].Arguments.Get(2).(task.ListSpec)
		assert.Nil(t, spec.DeadlineAfter, "нечитаемая граница должна игнорироваться")
		require.NotNil(t, spec.DeadlineBefore)
		assert.Equal(t, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), *spec.DeadlineBefore)
		mockService.AssertExpectations(t)
	})

	t.Run("error - invalid status rejected", func(t *testing.T) {
		mockService := new(MockTaskService)

		router := newTestRouter(mockService)
		w := doRequest(t, router, "GET", "/api/v1/list-tasks?status=unknown",
			owner.String(), "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("error - invalid limit rejected", func(t *testing.T) {
		mockService := new(MockTaskService)

		router := newTestRouter(mockService)
		w := doRequest(t, router, "GET", "/api/v1/list-tasks?limit=zero",
			owner.String(), "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertExpectations(t)
	})
}

// TestTaskHandler_HealthCheck тестирует HealthCheck
func TestTaskHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name: "success - healthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "error - unhealthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("db unavailable"))
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService)

			req := httptest.NewRequest("GET", "/health", nil)
			w := httptest.NewRecorder()

			handler.HealthCheck(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}
