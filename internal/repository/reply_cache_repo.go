package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReplyCacheRepo stores assistant replies in Redis under fingerprint keys.
type ReplyCacheRepo struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewReplyCacheRepo(client redis.Cmdable, ttl time.Duration) *ReplyCacheRepo {
	return &ReplyCacheRepo{client: client, ttl: ttl}
}

func (r *ReplyCacheRepo) Get(ctx context.Context, key string) (string, bool, error) {
	reply, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return reply, true, nil
}

func (r *ReplyCacheRepo) Set(ctx context.Context, key, reply string) error {
	return r.client.Set(ctx, key, reply, r.ttl).Err()
}
