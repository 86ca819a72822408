package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pribylovaa/orange-copywriter/internal/models"
	"github.com/pribylovaa/orange-copywriter/internal/pkg/log"
	"github.com/pribylovaa/orange-copywriter/internal/storage"
)

// appendTimeout — дедлайн записи хода после генерации.
const appendTimeout = 5 * time.Second

// history возвращает последние ходы по ключу в хронологическом порядке (от старых к новым).
// Ошибка хранилища даёт пустую историю и предупреждение в логе.
func (s *Service) history(ctx context.Context, key models.ConversationKey) []models.Message {
	const op = "service/conversations/history"

	convs, err := s.storage.RecentConversations(ctx, key, s.historyLimit)
	if err != nil {
		s.metrics.SoftFailure("history", "recent")
		log.From(ctx).Warn("history_fetch_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil
	}

	var out []models.Message
	for i := len(convs) - 1; i >= 0; i-- {
		out = append(out, convs[i].Messages...)
	}

	return out
}

// appendTurn сохраняет ход чата. Запись не зависит от отмены запроса:
// ответ уже сгенерирован и оплачен.
func (s *Service) appendTurn(ctx context.Context, key models.ConversationKey, question, answer string) {
	const op = "service/conversations/appendTurn"

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), appendTimeout)
	defer cancel()

	conv := models.Conversation{
		Key: key,
		Messages: []models.Message{
			{Role: models.RoleUser, Content: question},
			{Role: models.RoleAssistant, Content: answer},
		},
		Timestamp: s.now().UTC(),
	}

	if err := s.storage.AppendConversation(wctx, conv); err != nil {
		s.metrics.SoftFailure("history", "append")
		log.From(ctx).Warn("history_append_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}
}

// RecentConversations — чтение истории для GET /api/conversations.
// В отличие от чата ошибки хранилища здесь возвращаются вызывающему (ErrInternal).
func (s *Service) RecentConversations(ctx context.Context, key models.ConversationKey, limit int) ([]models.Conversation, error) {
	const op = "service/conversations/RecentConversations"

	key.Industry = strings.TrimSpace(key.Industry)
	key.Client = strings.TrimSpace(key.Client)
	key.Purpose = strings.TrimSpace(key.Purpose)

	for _, f := range []field{{"industry", key.Industry}, {"client", key.Client}, {"purpose", key.Purpose}} {
		if f.value == "" {
			return nil, fmt.Errorf("%s: %w", op, &FieldError{Field: f.name, Reason: "is required"})
		}
	}

	if limit < 0 || limit > storage.MaxLimit {
		return nil, fmt.Errorf("%s: %w", op, &FieldError{Field: "limit", Reason: fmt.Sprintf("must be in [0, %d]", storage.MaxLimit)})
	}

	convs, err := s.storage.RecentConversations(ctx, key, limit)
	if err != nil {
		log.From(ctx).Error("conversations_read_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
	}

	return convs, nil
}
