package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/leafmart/cartd/internal/domain/catalog"
	"github.com/leafmart/cartd/internal/domain/pricing"
)

var _ catalog.Repository = (*ProductRepository)(nil)

// ProductRepository implements catalog.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `id, name, vendor_id, vendor_name, category, base_price, rule, deal_token`

// GetByID fetches a single product. Returns catalog.ErrNotFound when the
// product does not exist.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	return p, nil
}

// GetByIDs fetches all requested products in a single query. Missing IDs are
// simply absent from the result; callers decide whether that is an error.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "query products")
	}
	defer rows.Close()

	return collectProducts(rows)
}

// ListByVendor fetches all products of one vendor.
func (r *ProductRepository) ListByVendor(ctx context.Context, vendorID string) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE vendor_id = $1 ORDER BY name`, vendorID)
	if err != nil {
		return nil, errors.Wrapf(err, "query products for vendor %q", vendorID)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// Upsert inserts or replaces a catalog product. Used by seeding tools; the
// API server itself never writes the catalog.
func (r *ProductRepository) Upsert(ctx context.Context, p catalog.Product) error {
	var ruleJSON []byte
	if p.Rule != nil {
		var err error
		ruleJSON, err = marshalRule(p.Rule)
		if err != nil {
			return errors.Wrapf(err, "encode rule for product %q", p.ID)
		}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (id, name, vendor_id, vendor_name, category, base_price, rule, deal_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			vendor_id = EXCLUDED.vendor_id,
			vendor_name = EXCLUDED.vendor_name,
			category = EXCLUDED.category,
			base_price = EXCLUDED.base_price,
			rule = EXCLUDED.rule,
			deal_token = EXCLUDED.deal_token,
			updated_at = now()`,
		p.ID, p.Name, p.VendorID, p.VendorName, p.Category, p.BasePrice, ruleJSON, p.DealToken)
	if err != nil {
		return errors.Wrapf(err, "upsert product %q", p.ID)
	}
	return nil
}

func collectProducts(rows pgx.Rows) ([]catalog.Product, error) {
	var out []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan product")
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate products")
	}
	return out, nil
}

func scanProduct(row pgx.Row) (*catalog.Product, error) {
	var (
		p        catalog.Product
		ruleJSON []byte
	)
	err := row.Scan(&p.ID, &p.Name, &p.VendorID, &p.VendorName, &p.Category,
		&p.BasePrice, &ruleJSON, &p.DealToken)
	if err != nil {
		return nil, err
	}

	if len(ruleJSON) > 0 {
		rule, err := unmarshalRule(ruleJSON)
		if err != nil {
			return nil, errors.Wrapf(err, "decode rule for product %q", p.ID)
		}
		p.Rule = rule
	}
	return &p, nil
}

// ruleRow is the JSONB shape of a discount rule in the products table.
type ruleRow struct {
	AmountOff   decimal.Decimal `json:"amountOff"`
	PercentOff  decimal.Decimal `json:"percentOff"`
	MinQuantity int             `json:"minQuantity"`
	MinSpend    decimal.Decimal `json:"minSpend"`
	ValidFrom   *time.Time      `json:"validFrom"`
	ValidUntil  *time.Time      `json:"validUntil"`
	Weekdays    []int           `json:"weekdays"`
}

func marshalRule(rule *pricing.DiscountRule) ([]byte, error) {
	row := ruleRow{
		AmountOff:   rule.AmountOff,
		PercentOff:  rule.PercentOff,
		MinQuantity: rule.MinQuantity,
		MinSpend:    rule.MinSpend,
		ValidFrom:   rule.ValidFrom,
		ValidUntil:  rule.ValidUntil,
	}
	for _, wd := range rule.Weekdays {
		row.Weekdays = append(row.Weekdays, int(wd))
	}
	return json.Marshal(row)
}

func unmarshalRule(blob []byte) (*pricing.DiscountRule, error) {
	var row ruleRow
	if err := json.Unmarshal(blob, &row); err != nil {
		return nil, err
	}

	rule := &pricing.DiscountRule{
		AmountOff:   row.AmountOff,
		PercentOff:  row.PercentOff,
		MinQuantity: row.MinQuantity,
		MinSpend:    row.MinSpend,
		ValidFrom:   row.ValidFrom,
		ValidUntil:  row.ValidUntil,
	}
	for _, wd := range row.Weekdays {
		rule.Weekdays = append(rule.Weekdays, time.Weekday(wd))
	}
	return rule, nil
}
