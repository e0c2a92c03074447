package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"morpheus/internal/core/domain"
	"morpheus/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const lastRoomTTL = 30 * 24 * time.Hour

type RedisLastRoomRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisLastRoomRepository(client *redis.Client) ports.LastRoomRepository {
	return &RedisLastRoomRepository{
		client: client,
		prefix: "morpheus:last_room:",
	}
}

func (r *RedisLastRoomRepository) key(userID domain.UserID) string {
	return r.prefix + string(userID)
}

func (r *RedisLastRoomRepository) Save(ctx context.Context, userID domain.UserID, roomID domain.RoomID) error {
	if err := r.client.Set(ctx, r.key(userID), string(roomID), lastRoomTTL).Err(); err != nil {
		return fmt.Errorf("failed to save last room in Redis: %w", err)
	}
	return nil
}

func (r *RedisLastRoomRepository) Get(ctx context.Context, userID domain.UserID) (domain.RoomID, error) {
	roomID, err := r.client.Get(ctx, r.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrLastRoomNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get last room from Redis: %w", err)
	}
	return domain.RoomID(roomID), nil
}
