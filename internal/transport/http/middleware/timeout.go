package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout ограничивает запрос суммой бюджетов. Для генерации это таймаут вызова
// бэкенда плюс дедлайн необязательных зависимостей (новости, история).
// Более ранний дедлайн родителя сохраняется. Сумма <= 0 делает мидлвар no-op.
func Timeout(budget ...time.Duration) Middleware {
	var total time.Duration
	for _, d := range budget {
		if d > 0 {
			total += d
		}
	}

	return func(next http.Handler) http.Handler {
		if total <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), total)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
