package kvstore

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/darasahq/darasa/core"
)

type redisStore struct {
	client *redis.Client
}

var _ core.KVStore = (*redisStore)(nil) // interface compliance check

// NewRedis returns a Redis-backed KVStore.
func NewRedis(conf *core.Config) core.KVStore {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	return &redisStore{client: client}
}

func (s *redisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", core.ErrKeyNotFound
	}
	return val, err
}

func (s *redisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
