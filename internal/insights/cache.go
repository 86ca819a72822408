package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pribylovaa/orange-copywriter/internal/pkg/log"
)

const defaultCachePrefix = "orange:insights:"

// Cache — кэш результатов поиска новостей в Redis поверх другого Retriever.
// Ошибки Redis не прерывают запрос: идём в next и логируем предупреждение.
type Cache struct {
	rdb    *redis.Client
	next   Retriever
	ttl    time.Duration
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0)
// и проверяет соединение.
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration, next Retriever) (*Cache, error) {
	const op = "insights.NewRedisCache"

	if next == nil {
		return nil, fmt.Errorf("%s: next retriever is nil", op)
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &Cache{rdb: rdb, next: next, ttl: ttl, prefix: defaultCachePrefix}, nil
}

// key нормализует запрос: регистр и пробелы по краям не влияют на попадание.
func (c *Cache) key(query string) string {
	return c.prefix + strings.ToLower(strings.TrimSpace(query))
}

// Insights отдаёт закэшированный список или спрашивает next и кэширует успешный ответ.
func (c *Cache) Insights(ctx context.Context, query string) ([]string, error) {
	const op = "insights.Cache.Insights"

	lg := log.From(ctx)
	key := c.key(query)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var out []string
		if jerr := json.Unmarshal(raw, &out); jerr == nil {
			lg.Debug("insights_cache_hit", slog.String("op", op))
			return out, nil
		}
		lg.Warn("insights_cache_corrupt", slog.String("op", op))

	case errors.Is(err, redis.Nil):
		// промах

	default:
		lg.Warn("insights_cache_get_failed", slog.String("op", op), slog.String("err", err.Error()))
	}

	out, err := c.next.Insights(ctx, query)
	if err != nil {
		return nil, err
	}

	if out == nil {
		out = []string{}
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return out, nil
	}

	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		lg.Warn("insights_cache_set_failed", slog.String("op", op), slog.String("err", err.Error()))
	}

	return out, nil
}

// Close закрывает клиент Redis.
func (c *Cache) Close() error { return c.rdb.Close() }
