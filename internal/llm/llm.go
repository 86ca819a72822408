// Package llm содержит клиентов внешних API генерации текста.
// Каждый бэкенд нормализует ответ к строке; любые сбои оборачивают ErrUpstream.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/orange-copywriter/internal/prompt"
)

// ErrUpstream — внешний API не вернул пригодный текст: ошибка транспорта,
// не-2xx статус, таймаут, некорректное или пустое тело.
var ErrUpstream = errors.New("upstream failure")

// Backend — бэкенд генерации. Реализации не делают повторных попыток.
type Backend interface {
	Name() string
	Complete(ctx context.Context, p prompt.Prompt) (string, error)
}

// upstreamErr оборачивает причину в ErrUpstream, сохраняя её для errors.Is
// (например, context.DeadlineExceeded).
func upstreamErr(op string, cause error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUpstream, cause)
}
