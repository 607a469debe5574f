// Package redisstate implements StateRepository on Redis.
package redisstate

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"popup-rooms/internal/domain"
	"popup-rooms/internal/repository"
)

// RedisStateRepository caches room status and tracks live presence counters.
type RedisStateRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStateRepository creates a RedisStateRepository. keyPrefix
// namespaces all keys, defaulting to "pr:".
func NewRedisStateRepository(client *redis.Client, keyPrefix string) *RedisStateRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisStateRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "pr:"
	}
	return &RedisStateRepository{client: client, keyPrefix: keyPrefix}
}

func (r *RedisStateRepository) roomStatusKey(roomID uint) string {
	return fmt.Sprintf("%sroom:%d:status", r.keyPrefix, roomID)
}

func (r *RedisStateRepository) roomPresenceKey(roomID uint) string {
	return fmt.Sprintf("%sroom:%d:presence", r.keyPrefix, roomID)
}

func (r *RedisStateRepository) SetRoomStatus(ctx context.Context, roomID uint, status domain.RoomStatus) error {
	if err := r.client.Set(ctx, r.roomStatusKey(roomID), string(status), 0).Err(); err != nil {
		return fmt.Errorf("redis: set status of room %d: %w", roomID, err)
	}
	return nil
}

func (r *RedisStateRepository) GetRoomStatus(ctx context.Context, roomID uint) (domain.RoomStatus, error) {
	val, err := r.client.Get(ctx, r.roomStatusKey(roomID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("redis: get status of room %d: %w", roomID, err)
	}
	return domain.RoomStatus(val), nil
}

func (r *RedisStateRepository) IncrPresence(ctx context.Context, roomID uint) (int64, error) {
	count, err := r.client.Incr(ctx, r.roomPresenceKey(roomID)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: incr presence of room %d: %w", roomID, err)
	}
	return count, nil
}

func (r *RedisStateRepository) DecrPresence(ctx context.Context, roomID uint) (int64, error) {
	key := r.roomPresenceKey(roomID)
	count, err := r.client.Decr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: decr presence of room %d: %w", roomID, err)
	}
	if count < 0 {
		// Counter drift (e.g. a flushed key): clamp rather than go negative.
		if err := r.client.Set(ctx, key, 0, 0).Err(); err != nil {
			return 0, fmt.Errorf("redis: reset presence of room %d: %w", roomID, err)
		}
		count = 0
	}
	return count, nil
}

func (r *RedisStateRepository) Presence(ctx context.Context, roomID uint) (int64, error) {
	count, err := r.client.Get(ctx, r.roomPresenceKey(roomID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis: get presence of room %d: %w", roomID, err)
	}
	return count, nil
}
