// errors стандартизирует ответы об ошибках HTTP-слоя.
// На вход принимает доменную ошибку (sentinel из auth/service), на выход даёт:
//   - корректный HTTP-статус;
//   - короткий стабильный code для фронта;
//   - безопасное message без утечки деталей.
//
// Это единственное место маппинга ошибок на HTTP.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/orange-copywriter/internal/auth"
	"github.com/pribylovaa/orange-copywriter/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// Сообщения, которые видит клиент.
const (
	MsgUnauthenticated   = "could not validate credentials"
	MsgInvalidCredential = "incorrect username or password"
	MsgUpstreamFailure   = "Error generating content"
)

var (
	// ErrUnauthenticated — нет токена, токен неверный или истёк.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrRateLimited — превышен лимит запросов пользователя.
	ErrRateLimited = errors.New("rate limited")
	// ErrInvalidBody — тело запроса не разбирается.
	ErrInvalidBody = errors.New("invalid request body")
	// ErrNotFound — маршрут не найден.
	ErrNotFound = errors.New("not found")
	// ErrMethodNotAllowed — метод не поддерживается маршрутом.
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// APIError — единый формат для фронта.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку в HTTP-статус и унифицированный ответ.
//
// err == nil — программная ошибка вызова: 500/internal, чтобы не маскировать баг.
// Неизвестные ошибки — 500/internal без текста причины.
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := classify(err)

	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для хендлеров и мидлваров.
// Добавляет request_id из заголовка и WWW-Authenticate для 401.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// classify — таблица маппинга:
//   - ErrUnauthenticated и ошибки валидации токена -> 401
//   - auth.ErrInvalidCredentials -> 400 invalid_credentials
//   - service.ErrInvalidArgument, ErrInvalidBody -> 400 invalid_argument
//   - service.ErrUnknownClient -> 400 unknown_client
//   - service.ErrUpstreamFailure -> 502, ErrUpstreamTimeout -> 504
//   - ErrRateLimited -> 429
//   - ErrNotFound -> 404, ErrMethodNotAllowed -> 405
//   - context.Canceled -> 499
//   - прочее -> 500/internal
func classify(err error) (int, string, string) {
	var (
		fieldErr  *service.FieldError
		clientErr *service.UnknownClientError
	)

	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", "internal error"

	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrUnknownSubject):
		return http.StatusUnauthorized, "unauthenticated", MsgUnauthenticated

	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusBadRequest, "invalid_credentials", MsgInvalidCredential

	case errors.As(err, &fieldErr):
		return http.StatusBadRequest, "invalid_argument", fieldErr.Error()

	case errors.Is(err, service.ErrInvalidArgument), errors.Is(err, ErrInvalidBody):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"

	case errors.As(err, &clientErr):
		return http.StatusBadRequest, "unknown_client", clientErr.Error()

	case errors.Is(err, service.ErrUnknownClient):
		return http.StatusBadRequest, "unknown_client", "unknown client"

	case errors.Is(err, service.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout, "upstream_timeout", "upstream timeout"

	case errors.Is(err, service.ErrUpstreamFailure):
		return http.StatusBadGateway, "upstream_failure", MsgUpstreamFailure

	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "resource_exhausted", "too many requests"

	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"

	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed"

	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"

	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
