package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pribylovaa/orange-copywriter/internal/pkg/log"
	"github.com/pribylovaa/orange-copywriter/internal/pkg/redact"
	apierrors "github.com/pribylovaa/orange-copywriter/internal/transport/http/errors"
)

// TokenValidator проверяет bearer-токен и возвращает имя пользователя.
type TokenValidator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

type userKey struct{}

// Authenticate требует заголовок "Authorization: Bearer <token>".
// Любая ошибка проверки — 401 с WWW-Authenticate: Bearer; причина только в логе.
func Authenticate(v TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				log.From(r.Context()).Debug("auth_missing_bearer")
				apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
				return
			}

			username, err := v.Authenticate(r.Context(), token)
			if err != nil {
				log.From(r.Context()).Info("auth_rejected",
					slog.String("token", redact.Token()),
					slog.String("err", err.Error()),
				)
				apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
				return
			}

			ctx := context.WithValue(r.Context(), userKey{}, username)
			ctx = enrichLogger(ctx, slog.String("user", redact.Username(username)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFrom возвращает имя аутентифицированного пользователя.
func UserFrom(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(userKey{}).(string)
	return u, ok && u != ""
}

// WithUser кладёт пользователя в контекст (для тестов хендлеров без токенов).
func WithUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, userKey{}, username)
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
