// Package memory — хранилище диалогов в памяти процесса (локальный запуск без MongoDB и тесты).
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/pribylovaa/orange-copywriter/internal/models"
	"github.com/pribylovaa/orange-copywriter/internal/storage"
)

type record struct {
	seq  uint64
	conv models.Conversation
}

// Storage хранит записи по ключу. Безопасно для конкурентного использования.
type Storage struct {
	mu   sync.RWMutex
	seq  uint64
	data map[models.ConversationKey][]record
	now  func() time.Time
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{
		data: make(map[models.ConversationKey][]record),
		now:  time.Now,
	}
}

// AppendConversation реализует storage.ConversationStorage.
func (s *Storage) AppendConversation(ctx context.Context, conv models.Conversation) error {
	const op = "storage/memory/AppendConversation"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := storage.Validate(conv); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if conv.Timestamp.IsZero() {
		conv.Timestamp = s.now()
	}
	conv.Timestamp = conv.Timestamp.UTC()
	conv.Messages = append([]models.Message(nil), conv.Messages...)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	if conv.ID == "" {
		conv.ID = strconv.FormatUint(s.seq, 10)
	}

	s.data[conv.Key] = append(s.data[conv.Key], record{seq: s.seq, conv: conv})

	return nil
}

// RecentConversations реализует storage.ConversationStorage.
func (s *Storage) RecentConversations(ctx context.Context, key models.ConversationKey, limit int) ([]models.Conversation, error) {
	const op = "storage/memory/RecentConversations"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	limit = storage.ClampLimit(limit)

	s.mu.RLock()
	recs := append([]record(nil), s.data[key]...)
	s.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		ti, tj := recs[i].conv.Timestamp, recs[j].conv.Timestamp
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return recs[i].seq > recs[j].seq
	})

	if len(recs) > limit {
		recs = recs[:limit]
	}

	out := make([]models.Conversation, 0, len(recs))
	for _, r := range recs {
		c := r.conv
		c.Messages = append([]models.Message(nil), c.Messages...)
		out = append(out, c)
	}

	return out, nil
}
