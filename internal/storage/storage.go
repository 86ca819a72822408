package storage

import (
	"context"
	"errors"

	"github.com/pribylovaa/orange-copywriter/internal/models"
)

// Границы окна истории.
const (
	DefaultLimit = 5
	MaxLimit     = 50
)

// ErrInvalidConversation — запись без ключа или без сообщений.
var ErrInvalidConversation = errors.New("invalid conversation")

// ConversationStorage описывает хранилище ходов чата.
type ConversationStorage interface {
	// AppendConversation добавляет запись. Пустой Timestamp заменяется текущим временем.
	// Возможные ошибки: ErrInvalidConversation.
	AppendConversation(ctx context.Context, conv models.Conversation) error

	// RecentConversations возвращает не более limit последних записей по ключу,
	// от новых к старым (timestamp DESC, при равенстве — по порядку вставки DESC).
	// limit <= 0 -> DefaultLimit, limit > MaxLimit -> MaxLimit.
	RecentConversations(ctx context.Context, key models.ConversationKey, limit int) ([]models.Conversation, error)
}

// ClampLimit приводит запрошенный размер окна к [1, MaxLimit].
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// Validate проверяет запись перед сохранением.
func Validate(conv models.Conversation) error {
	k := conv.Key
	if k.Industry == "" || k.Client == "" || k.Purpose == "" || len(conv.Messages) == 0 {
		return ErrInvalidConversation
	}

	return nil
}
