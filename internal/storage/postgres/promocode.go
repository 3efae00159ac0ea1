package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leafmart/cartd/internal/domain/promotion"
)

var _ promotion.CodeSource = (*PromoCodeRepository)(nil)

// PromoCodeRepository stores the promotion codes known to exist, written by
// promo-ingest and read to seed the validation prefilter.
type PromoCodeRepository struct {
	pool *pgxpool.Pool
}

// NewPromoCodeRepository returns a PromoCodeRepository that uses the given pool.
func NewPromoCodeRepository(pool *pgxpool.Pool) *PromoCodeRepository {
	return &PromoCodeRepository{pool: pool}
}

// ListCodes returns every known promotion code.
func (r *PromoCodeRepository) ListCodes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT code FROM promo_codes`)
	if err != nil {
		return nil, errors.Wrap(err, "query promo codes")
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, errors.Wrap(err, "scan promo code")
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate promo codes")
	}
	return codes, nil
}

// UpsertCodes writes a batch of codes, ignoring duplicates. Used by
// promo-ingest after a dump pass.
func (r *PromoCodeRepository) UpsertCodes(ctx context.Context, codes []string) error {
	if len(codes) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, code := range codes {
		batch.Queue(`INSERT INTO promo_codes (code) VALUES ($1) ON CONFLICT (code) DO NOTHING`, code)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()

	for range codes {
		if _, err := br.Exec(); err != nil {
			return errors.Wrap(err, "upsert promo code")
		}
	}
	return nil
}
