// Command seed-db loads a catalog file into the products table, creating the
// schema first if needed. Used for development and demo environments.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/leafmart/cartd/internal/domain/catalog"
	"github.com/leafmart/cartd/internal/domain/pricing"
	"github.com/leafmart/cartd/internal/storage/postgres"
)

type ruleJSON struct {
	AmountOff   decimal.Decimal `json:"amountOff"`
	PercentOff  decimal.Decimal `json:"percentOff"`
	MinQuantity int             `json:"minQuantity"`
	MinSpend    decimal.Decimal `json:"minSpend"`
	ValidFrom   *time.Time      `json:"validFrom"`
	ValidUntil  *time.Time      `json:"validUntil"`
	Weekdays    []int           `json:"weekdays"`
}

type productJSON struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	VendorID   string          `json:"vendorId"`
	VendorName string          `json:"vendorName"`
	Category   string          `json:"category"`
	BasePrice  decimal.Decimal `json:"basePrice"`
	Rule       *ruleJSON       `json:"rule"`
	DealToken  string          `json:"dealToken"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, postgres.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	return nil
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	for _, pj := range products {
		p := catalog.Product{
			ID:         pj.ID,
			Name:       pj.Name,
			VendorID:   pj.VendorID,
			VendorName: pj.VendorName,
			Category:   pj.Category,
			BasePrice:  pj.BasePrice,
			DealToken:  pj.DealToken,
		}
		if pj.DealToken != "" {
			// Reject unparseable deal tokens at seed time rather than at
			// checkout.
			if _, err := pricing.ParseDeal(pj.DealToken); err != nil {
				return errors.Wrapf(err, "product %q deal token", pj.ID)
			}
		}
		if pj.Rule != nil {
			rule := &pricing.DiscountRule{
				AmountOff:   pj.Rule.AmountOff,
				PercentOff:  pj.Rule.PercentOff,
				MinQuantity: pj.Rule.MinQuantity,
				MinSpend:    pj.Rule.MinSpend,
				ValidFrom:   pj.Rule.ValidFrom,
				ValidUntil:  pj.Rule.ValidUntil,
			}
			for _, wd := range pj.Rule.Weekdays {
				rule.Weekdays = append(rule.Weekdays, time.Weekday(wd))
			}
			p.Rule = rule
		}

		if err := repo.Upsert(ctx, p); err != nil {
			return err
		}
	}

	slog.Info("products seeded", slog.Int("count", len(products)))
	return nil
}
