package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each record as a plain string value under tb:<ns>:<key>.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func NewRedisStoreFromClient(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func redisKey(ns, key string) string { return "tb:" + ns + ":" + key }

func (s *RedisStore) Get(ctx context.Context, ns, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, redisKey(ns, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *RedisStore) Put(ctx context.Context, ns, key string, val []byte) error {
	return s.rdb.Set(ctx, redisKey(ns, key), val, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, ns, key string) error {
	return s.rdb.Del(ctx, redisKey(ns, key)).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error { return s.rdb.Ping(ctx).Err() }

func (s *RedisStore) Close() error { return s.rdb.Close() }
