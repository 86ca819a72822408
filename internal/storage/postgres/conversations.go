package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pribylovaa/orange-copywriter/internal/models"
	"github.com/pribylovaa/orange-copywriter/internal/storage"
)

type messageRow struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AppendConversation добавляет ход чата.
func (s *Storage) AppendConversation(ctx context.Context, conv models.Conversation) error {
	const op = "storage/postgres/conversations/AppendConversation"

	if err := storage.Validate(conv); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// TIMESTAMPTZ хранит микросекунды.
	if conv.Timestamp.IsZero() {
		conv.Timestamp = time.Now()
	}
	conv.Timestamp = conv.Timestamp.UTC().Truncate(time.Microsecond)

	msgs := make([]messageRow, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		msgs = append(msgs, messageRow{Role: m.Role, Content: m.Content})
	}

	raw, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("%s: marshal messages: %w", op, err)
	}

	query := `
		INSERT INTO conversations (id, industry, client, purpose, messages, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = s.db.Exec(ctx, query,
		uuid.NewString(),
		conv.Key.Industry,
		conv.Key.Client,
		conv.Key.Purpose,
		raw,
		conv.Timestamp,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrInvalidConversation)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RecentConversations возвращает последние ходы по ключу, от новых к старым.
// seq DESC разрешает равные created_at в порядке вставки.
func (s *Storage) RecentConversations(ctx context.Context, key models.ConversationKey, limit int) ([]models.Conversation, error) {
	const op = "storage/postgres/conversations/RecentConversations"

	query := `
		SELECT id::text, industry, client, purpose, messages, created_at
		FROM conversations
		WHERE industry = $1 AND client = $2 AND purpose = $3
		ORDER BY created_at DESC, seq DESC
		LIMIT $4
	`

	rows, err := s.db.Query(ctx, query, key.Industry, key.Client, key.Purpose, storage.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]models.Conversation, 0, storage.ClampLimit(limit))
	for rows.Next() {
		var (
			conv models.Conversation
			raw  []byte
		)

		if err := rows.Scan(&conv.ID, &conv.Key.Industry, &conv.Key.Client, &conv.Key.Purpose, &raw, &conv.Timestamp); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}

		var msgs []messageRow
		if err := json.Unmarshal(raw, &msgs); err != nil {
			return nil, fmt.Errorf("%s: decode messages: %w", op, err)
		}

		conv.Timestamp = conv.Timestamp.UTC()
		conv.Messages = make([]models.Message, 0, len(msgs))
		for _, m := range msgs {
			conv.Messages = append(conv.Messages, models.Message{Role: m.Role, Content: m.Content})
		}

		out = append(out, conv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
