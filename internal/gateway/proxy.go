package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"smartTask/internal/logger"

	"go.uber.org/zap"
)

// ProxyTasks пересылает запрос в task-service как есть: тот же метод,
// тело после нормализации дат, статус, заголовки и тело ответа без
// изменений. Единственная попытка, ретраев нет.
func (g *Gateway) ProxyTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	account, ok := IdentityFromContext(r.Context())
	if !ok {
		responseWithError(w, http.StatusUnauthorized, "требуется bearer-токен")
		return
	}

	// /api/v1/tasks/list-tasks -> <task_service_url>/api/v1/list-tasks
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/tasks")
	target, err := url.Parse(g.taskServiceURL)
	if err != nil {
		logger.Error("HTTP: Неверный адрес task-service", err)
		responseWithError(w, http.StatusInternalServerError, "неверный адрес task-service")
		return
	}
	target.Path = strings.TrimSuffix(target.Path, "/") + "/api/v1" + rest
	target.RawQuery = dropEmptyParams(r.URL.Query())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		responseWithError(w, http.StatusBadRequest, "не удалось прочитать тело запроса")
		return
	}

	if len(body) > 0 && strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if normalized, err := NormalizeBody(body); err == nil {
			body = normalized
		} else {
			logger.Warn("HTTP: Тело не разобрано как JSON, пересылается как есть",
				zap.Error(err))
		}
	}

	// Отвязанный контекст: отмена входящего запроса не должна рвать
	// уже начатую мутацию ниже.
	ctx, cancel := context.WithTimeout(context.Background(), downstreamTimeout)
	defer cancel()

	outbound, err := http.NewRequestWithContext(ctx, r.Method, target.String(), bytes.NewReader(body))
	if err != nil {
		logger.Error("HTTP: Не удалось собрать запрос к task-service", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		outbound.Header.Set("Content-Type", ct)
	}
	// Клиентское значение X-User-ID отбрасывается всегда.
	outbound.Header.Set("X-User-ID", account.ID.String())

	response, err := g.client.Do(outbound)
	if err != nil {

		logger.Error("HTTP: task-service недоступен", err,
			zap.String("target", target.String()),
			zap.Duration("ms", time.Since(start)))

		if isTransportError(err) {
			responseWithError(w, http.StatusServiceUnavailable, "task-service недоступен")
			return
		}
		responseWithError(w, http.StatusInternalServerError, "ошибка при обращении к task-service")
		return
	}
	defer response.Body.Close()

	relayed, err := io.ReadAll(response.Body)
	if err != nil {
		logger.Error("HTTP: Не удалось прочитать ответ task-service", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Ответ task-service передан",
		zap.String("target", target.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", response.StatusCode))

	relayHeaders(w.Header(), response.Header)
	w.WriteHeader(response.StatusCode)
	w.Write(relayed)
}

// hop-by-hop заголовки относятся к соединению и не пересылаются,
// Content-Length выставит сам ResponseWriter.
var hopByHopHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
	"Content-Length":      {},
}

// relayHeaders копирует заголовки ответа task-service клиенту как есть.
func relayHeaders(dst, src http.Header) {
	for key, values := range src {
		if _, skip := hopByHopHeaders[http.CanonicalHeaderKey(key)]; skip {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

// dropEmptyParams убирает параметры с пустыми значениями, чтобы
// task-service не принимал "" за заданный фильтр.
func dropEmptyParams(query url.Values) string {
	cleaned := url.Values{}
	for key, values := range query {
		for _, v := range values {
			if v != "" {
				cleaned.Add(key, v)
			}
		}
	}
	return cleaned.Encode()
}

// isTransportError отличает сетевую недоступность (503) от прочих
// ошибок клиента (500).
func isTransportError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
