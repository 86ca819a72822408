package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// HeaderRequestID — заголовок корреляции запросов.
const HeaderRequestID = "X-Request-Id"

// maxRequestIDLen ограничивает длину входящего id (он попадает в логи).
const maxRequestIDLen = 128

type requestIDKey struct{}

// RequestID обеспечивает наличие X-Request-Id:
//  1. читает заголовок X-Request-Id, если он есть и не длиннее maxRequestIDLen;
//  2. иначе генерирует UUIDv4 без дефисов (32 hex-символа);
//  3. кладёт id в Response Header, Request Header (его читает errors.WriteError) и в контекст.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
			if id == "" || len(id) > maxRequestIDLen {
				id = genID()
				r.Header.Set(HeaderRequestID, id)
			}
			w.Header().Set(HeaderRequestID, id)

			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFrom возвращает id запроса из контекста.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func genID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
