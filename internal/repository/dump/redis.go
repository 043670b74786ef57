package dump

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	codec  *codec
	ttl    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newRedisStore(client, cfg.TTL)
}

func newRedisStore(client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	c, err := newCodec()
	if err != nil {
		return nil, err
	}
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{
		client: client,
		codec:  c,
		ttl:    ttl,
	}, nil
}

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) keyFor(k Key) string {
	return fmt.Sprintf("dump:%s:%d:%d:%d:%d", k.Layer, k.Tree, k.LOD, k.X, k.Y)
}

func (s *RedisStore) Get(k Key) (v Value, exists bool, err error) {
	defer func(start time.Time) { observe("redis", "get", start, err) }(time.Now())
	ctx := context.Background()

	blob, err := s.client.Get(ctx, s.keyFor(k)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get error: %w", err)
	}

	v, err = s.codec.decompress(blob)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *RedisStore) Set(k Key, v Value) (err error) {
	defer func(start time.Time) { observe("redis", "set", start, err) }(time.Now())
	ctx := context.Background()

	if err := s.client.Set(ctx, s.keyFor(k), s.codec.compress(v), s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	s.codec.close()
	return s.client.Close()
}
