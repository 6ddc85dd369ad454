package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisFlagStore persists flags as plain Redis strings without expiry.
type RedisFlagStore struct {
	client *redis.Client
	prefix string
}

// NewRedisFlagStore constructs a RedisFlagStore using keys of the form
// regform:flags:<namespace>:<key>.
func NewRedisFlagStore(client *redis.Client) *RedisFlagStore {
	return &RedisFlagStore{client: client, prefix: "regform:flags:"}
}

func (s *RedisFlagStore) redisKey(namespace, key string) string {
	return s.prefix + namespace + ":" + key
}

// Get returns the flag value or ErrNotFound.
func (s *RedisFlagStore) Get(ctx context.Context, namespace, key string) (string, error) {
	v, err := s.client.Get(ctx, s.redisKey(namespace, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get flag: %w", err)
	}
	return v, nil
}

// Set stores the flag value.
func (s *RedisFlagStore) Set(ctx context.Context, namespace, key, value string) error {
	if err := s.client.Set(ctx, s.redisKey(namespace, key), value, 0).Err(); err != nil {
		return fmt.Errorf("set flag: %w", err)
	}
	return nil
}
