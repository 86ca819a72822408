package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/orange-copywriter/internal/pkg/log"
)

// Logging кладёт request-scoped логгер (с request_id) в контекст
// и пишет одну запись "http" на запрос.
func Logging(l *slog.Logger) Middleware {
	if l == nil {
		l = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := l
			if rid := r.Header.Get(HeaderRequestID); rid != "" {
				reqLogger = reqLogger.With(slog.String("request_id", rid))
			}

			// Держатель логгера: Authenticate дополнит его пользователем,
			// и итоговая запись "http" это увидит.
			holder := &loggerHolder{l: reqLogger}
			ctx := log.Into(r.Context(), reqLogger)
			ctx = withHolder(ctx, holder)
			r = r.WithContext(ctx)

			sw := newStatusWriter(w)
			start := time.Now()
			next.ServeHTTP(sw, r)
			dur := time.Since(start)

			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Duration("dur", dur),
				slog.Int("bytes", sw.count),
			}

			lvl := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				lvl = slog.LevelWarn
			}

			holder.l.LogAttrs(r.Context(), lvl, "http", attrs...)
		})
	}
}
