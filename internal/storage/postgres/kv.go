package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leafmart/cartd/internal/domain/cart"
)

var _ cart.Storage = (*BlobStore)(nil)

// BlobStore implements the cart storage port on a PostgreSQL key-value table,
// for deployments that run without Redis.
type BlobStore struct {
	pool *pgxpool.Pool
}

// NewBlobStore returns a BlobStore that uses the given pool.
func NewBlobStore(pool *pgxpool.Pool) *BlobStore {
	return &BlobStore{pool: pool}
}

// Get returns the blob stored under key, or cart.ErrNotFound.
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM cart_blobs WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get blob %q", key)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (s *BlobStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO cart_blobs (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		return errors.Wrapf(err, "set blob %q", key)
	}
	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *BlobStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM cart_blobs WHERE key = $1`, key); err != nil {
		return errors.Wrapf(err, "delete blob %q", key)
	}
	return nil
}
