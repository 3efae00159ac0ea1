// Package redis implements the cart storage port on Redis. Carts are small
// blobs with no TTL; eviction is handled by cart expiry jobs, not by Redis.
package redis

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/leafmart/cartd/internal/domain/cart"
)

var _ cart.Storage = (*Store)(nil)

// Store persists cart blobs in Redis under a shared key prefix.
type Store struct {
	client *redis.Client
	prefix string
}

// New connects to Redis using a connection URL (redis://...) and verifies
// the connection with a ping.
func New(ctx context.Context, url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "connect to redis")
	}
	return &Store{client: client, prefix: "cartd:"}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping reports connection health, used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Get returns the blob stored under key, or cart.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	blob, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, cart.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %q", key)
	}
	return blob, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return errors.Wrapf(err, "set %q", key)
	}
	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Wrapf(err, "delete %q", key)
	}
	return nil
}
