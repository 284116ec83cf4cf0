package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	redisclient "github.com/chatify/edge-server-go/internal/redis"
)

// Flash stores one-shot messages shown to the user on the next page load,
// e.g. the forced-logout explanation after an upstream 401. A message is
// deleted the moment it is read.
type Flash interface {
	Set(ctx context.Context, key, message string) error
	Consume(ctx context.Context, key string) (string, error)
}

type RedisFlash struct {
	client *redisclient.Client
	ttl    time.Duration
}

func NewRedisFlash(client *redisclient.Client, ttl time.Duration) *RedisFlash {
	return &RedisFlash{client: client, ttl: ttl}
}

func (f *RedisFlash) Set(ctx context.Context, key, message string) error {
	return f.client.Set(ctx, redisclient.FlashKey(key), message, f.ttl).Err()
}

func (f *RedisFlash) Consume(ctx context.Context, key string) (string, error) {
	msg, err := f.client.GetDel(ctx, redisclient.FlashKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return msg, nil
}
