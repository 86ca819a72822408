package middleware

import (
	"context"
	"log/slog"

	"github.com/pribylovaa/orange-copywriter/internal/pkg/log"
)

type holderKey struct{}

// loggerHolder — изменяемая ссылка на логгер запроса. Внутренние мидлвары
// не могут вернуть новый контекст наружу, поэтому обновляют логгер здесь.
type loggerHolder struct {
	l *slog.Logger
}

func withHolder(ctx context.Context, h *loggerHolder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

// enrichLogger добавляет атрибуты к логгеру запроса в контексте и в держателе Logging.
func enrichLogger(ctx context.Context, args ...any) context.Context {
	ctx = log.With(ctx, args...)
	if h, ok := ctx.Value(holderKey{}).(*loggerHolder); ok && h != nil {
		h.l = log.From(ctx)
	}

	return ctx
}
