// cache реализует кэш счётчика непрочитанных уведомлений на Redis.
//
// Счётчик — чистая оптимизация: источник истины всегда MongoDB,
// запись живёт короткий TTL и инвалидируется на каждом изменении
// уведомлений получателя. Любая ошибка Redis деградирует к пересчёту из БД.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// UnreadCache — минимальный контракт кэша счётчика непрочитанных.
type UnreadCache interface {
	// Get возвращает счётчик и признак его наличия в кэше.
	Get(ctx context.Context, userID uuid.UUID) (int64, bool, error)
	// Set сохраняет счётчик с TTL.
	Set(ctx context.Context, userID uuid.UUID, count int64, ttl time.Duration) error
	// Invalidate сбрасывает счётчик получателя.
	Invalidate(ctx context.Context, userID uuid.UUID) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "discussions:unread:".
func NewRedisCache(redisURL, prefix string) (UnreadCache, error) {
	if prefix == "" {
		prefix = "discussions:unread:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key(userID uuid.UUID) string { return c.prefix + userID.String() }

func (c *redisCache) Get(ctx context.Context, userID uuid.UUID) (int64, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}

		return 0, false, err
	}

	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, err
	}

	return count, true, nil
}

func (c *redisCache) Set(ctx context.Context, userID uuid.UUID, count int64, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.key(userID), strconv.FormatInt(count, 10), ttl).Err()
}

func (c *redisCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return c.rdb.Del(ctx, c.key(userID)).Err()
}

func (c *redisCache) Close() error {
	return c.rdb.Close()
}
