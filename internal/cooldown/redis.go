package cooldown

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares cooldowns across engine instances. Opt-in via
// REDIS_URL; the default deployment uses MemoryStore.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(redisURL string, logger *slog.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Connected to Redis for cooldown store", "url", redisURL)

	return &RedisStore{client: rdb, logger: logger}, nil
}

func cooldownKey(key Key) string {
	return fmt.Sprintf("cooldown:%s:%s:%s", key.Entity, key.Tool, key.Actor)
}

func (r *RedisStore) LastUsed(ctx context.Context, key Key) (time.Time, bool, error) {
	val, err := r.client.Get(ctx, cooldownKey(key)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read cooldown: %w", err)
	}
	millis, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("malformed cooldown value %q: %w", val, err)
	}
	return time.UnixMilli(millis), true, nil
}

func (r *RedisStore) Commit(ctx context.Context, key Key, t time.Time) error {
	k := cooldownKey(key)
	// Monotonic: keep the later of the stored and new timestamps.
	existing, ok, err := r.LastUsed(ctx, key)
	if err == nil && ok && existing.After(t) {
		return nil
	}
	if err := r.client.Set(ctx, k, strconv.FormatInt(t.UnixMilli(), 10), 0).Err(); err != nil {
		return fmt.Errorf("failed to commit cooldown: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	return nil
}
