package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"smartTask/internal/handlers/dto"
	"smartTask/internal/logger"
	"smartTask/internal/models/task"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxTitleLength = 100

type TaskHandler struct {
	TaskService TaskService
}

func NewTaskHandler(taskService TaskService) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
	}
}

// Routes монтирует маршруты задач. Владелец берётся из X-User-ID,
// который проставляет gateway после проверки токена.
func (s *TaskHandler) Routes(r chi.Router) {
	r.Post("/create-task", s.CreateTask)
	r.Get("/get-task/{id}", s.GetTaskByID)
	r.Put("/update-task/{id}", s.UpdateTaskByID)
	r.Delete("/delete-task/{id}", s.DeleteTaskByID)
	r.Get("/list-tasks", s.ListTasks)
}

// ownerFromRequest достаёт владельца из X-User-ID. Без валидного
// заголовка запрос не обслуживается.
func ownerFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {

		logger.Warn("HTTP: Отсутствует заголовок X-User-ID",
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnauthorized, "требуется заголовок X-User-ID")
		return uuid.Nil, false
	}

	owner, err := uuid.Parse(raw)
	if err != nil || owner == uuid.Nil {

		logger.Warn("HTTP: Неверное значение X-User-ID",
			zap.String("received", raw),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnauthorized, "неверное значение X-User-ID")
		return uuid.Nil, false
	}

	return owner, true
}

func taskIDFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.Parse(idParam)
	if err != nil {

		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "не удалось получить id:"+err.Error())
		return uuid.Nil, false
	}

	if id == uuid.Nil {

		logger.Warn("HTTP: Неверное значение id",
			zap.String("error", "nil id"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "id не может быть пустым")
		return uuid.Nil, false
	}

	return id, true
}

func (s *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	if !checkContentType(r, "application/json") {

		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {

		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса:"+err.Error())
		return
	}

	if msg, ok := validateCreateRequest(&request); !ok {

		logger.Warn("HTTP: Ошибка валидации",
			zap.String("error", msg),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, msg)
		return
	}

	logger.Info("HTTP: Вызов сервиса создания задач")

	created, err := s.TaskService.CreateTask(r.Context(), owner, request.ToTask())
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}

		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "create_task"),
			zap.String("client_ip", r.RemoteAddr),
			zap.Duration("ms", time.Since(start)))

		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", created.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithBody(w, http.StatusCreated, created)
}

func validateCreateRequest(request *dto.CreateTaskRequest) (string, bool) {
	if strings.TrimSpace(request.Title) == "" {
		return "название не может быть пустым", false
	}
	if len([]rune(request.Title)) > maxTitleLength {
		return fmt.Sprintf("название не может быть длиннее %d символов", maxTitleLength), false
	}
	if request.Status != "" && !request.Status.Valid() {
		return "неверное значение status", false
	}
	if request.Priority != "" && !request.Priority.Valid() {
		return "неверное значение priority", false
	}
	if request.RecurringPattern != nil {
		if !request.RecurringPattern.RecurrenceType.Valid() {
			return "неверное значение recurrence_type", false
		}
		if request.RecurringPattern.StartDate.IsZero() {
			return "start_date правила повторения должен быть задан", false
		}
	}
	return "", true
}

func (s *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	id, ok := taskIDFromRequest(w, r)
	if !ok {
		return
	}

	logger.Info("HTTP: Вызов сервиса для получения задачи")

	found, err := s.TaskService.GetTask(r.Context(), owner, id)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}

		logger.Error("HTTP: Ошибка в Service", err,
			zap.String("operation", "get_task"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задача получена",
		zap.String("task_id", found.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, found)
}

func (s *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	id, ok := taskIDFromRequest(w, r)
	if !ok {
		return
	}

	if !checkContentType(r, "application/json") {

		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.UpdateTaskRequest

	decoder := json.NewDecoder(r.Body)
	defer r.Body.Close()

	if err := decoder.Decode(&request); err != nil {

		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверно переданы параметры обновления:"+err.Error())
		return
	}

	if msg, ok := validateUpdateRequest(&request); !ok {

		logger.Warn("HTTP: Ошибка валидации",
			zap.String("error", msg),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, msg)
		return
	}

	logger.Info("HTTP: запрос к сервису обновления данных")

	var patch *task.RulePatch
	if request.RecurringPattern != nil {
		patch = request.RecurringPattern.ToPatch()
	}

	updated, err := s.TaskService.UpdateTask(r.Context(), owner, id, patch, request.Options()...)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}

		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "update_task"),
			zap.String("client_addr", r.RemoteAddr))

		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, updated)
}

func validateUpdateRequest(request *dto.UpdateTaskRequest) (string, bool) {
	if request.Title != nil {
		if strings.TrimSpace(*request.Title) == "" {
			return "название не может быть пустым", false
		}
		if len([]rune(*request.Title)) > maxTitleLength {
			return fmt.Sprintf("название не может быть длиннее %d символов", maxTitleLength), false
		}
	}
	if request.Status != nil && !request.Status.Valid() {
		return "неверное значение status", false
	}
	if request.Priority != nil && !request.Priority.Valid() {
		return "неверное значение priority", false
	}
	if request.RecurringPattern != nil && request.RecurringPattern.RecurrenceType != nil &&
		!request.RecurringPattern.RecurrenceType.Valid() {
		return "неверное значение recurrence_type", false
	}
	return "", true
}

func (s *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	id, ok := taskIDFromRequest(w, r)
	if !ok {
		return
	}

	logger.Info("HTTP: Обращение к сервису для удаления задачи")

	deleted, err := s.TaskService.DeleteTask(r.Context(), owner, id)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}

		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "delete_task"),
			zap.String("client_addr", r.RemoteAddr))

		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("message", fmt.Sprintf("Task '%s' deleted successfully", deleted.Title)))
}

func (s *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	spec, msg, ok := listSpecFromQuery(r)
	if !ok {

		logger.Warn("HTTP: Ошибка валидации",
			zap.String("error", msg),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, msg)
		return
	}

	logger.Info("HTTP: Вызов сервиса для получения задач")

	tasks, err := s.TaskService.ListTasks(r.Context(), owner, spec)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}

		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "list_tasks"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, tasks)
}

// listSpecFromQuery собирает спецификацию списка из query-параметров.
// Нечитаемые границы дедлайна молча игнорируются, остальное валидируется.
func listSpecFromQuery(r *http.Request) (task.ListSpec, string, bool) {
	spec := task.ListSpec{}
	query := r.URL.Query()

	if v := query.Get("status"); v != "" {
		status := task.Status(v)
		if !status.Valid() {
			return spec, "неверное значение status", false
		}
		spec.Status = &status
	}

	if v := query.Get("priority"); v != "" {
		priority := task.Priority(v)
		if !priority.Valid() {
			return spec, "неверное значение priority", false
		}
		spec.Priority = &priority
	}

	spec.Search = query.Get("search")

	if v := query.Get("tags"); v != "" {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				spec.Tags = append(spec.Tags, tag)
			}
		}
	}

	if t, ok := parseDeadlineBound(query.Get("deadline_after")); ok {
		spec.DeadlineAfter = t
	}
	if t, ok := parseDeadlineBound(query.Get("deadline_before")); ok {
		spec.DeadlineBefore = t
	}

	spec.SortBy = query.Get("sort_by")
	spec.SortOrder = query.Get("sort_order")

	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return spec, "неверное значение limit", false
		}
		spec.Limit = limit
	}

	if v := query.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return spec, "неверное значение offset", false
		}
		spec.Offset = offset
	}

	return spec, "", true
}

// parseDeadlineBound терпима к мусору: фильтр, который не удалось
// прочитать, просто не применяется.
func parseDeadlineBound(raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}

	logger.Warn("HTTP: Нечитаемая граница дедлайна, фильтр пропущен",
		zap.String("received", raw))
	return nil, false
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := s.TaskService.HealthCheck(r.Context()); err != nil {
		responseWithJSON(w, http.StatusServiceUnavailable, toPayload("status", "unhealthy"))
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("status", "ok"))
}
