// Command seed-db loads the perfume catalog and the starter coupon set into
// the database. Products come from a JSON file; existing rows are updated in
// place so the seeder is safe to re-run.
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
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/parfum-storefront/internal/domain/product"
	"github.com/xenking/parfum-storefront/internal/storage/postgres"
)

const upsertProductSQL = `INSERT INTO products (id, name, brand, category, description, notes, price, stock, image_thumbnail, image_full)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name, brand = EXCLUDED.brand, category = EXCLUDED.category,
		description = EXCLUDED.description, notes = EXCLUDED.notes,
		price = EXCLUDED.price, stock = EXCLUDED.stock,
		image_thumbnail = EXCLUDED.image_thumbnail, image_full = EXCLUDED.image_full`

const upsertCouponSQL = `INSERT INTO coupons (code, discount, expires_at, active)
	VALUES ($1, $2, $3, TRUE)
	ON CONFLICT (code) DO UPDATE SET discount = EXCLUDED.discount, expires_at = EXCLUDED.expires_at, active = TRUE`

type productJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Brand       string          `json:"brand"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Notes       product.Notes   `json:"notes"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Image       struct {
		Thumbnail string `json:"thumbnail"`
		Full      string `json:"full"`
	} `json:"image"`
}

type couponSeed struct {
	code     string
	discount string
	validFor time.Duration // zero means no expiry
}

var couponSeeds = []couponSeed{
	{code: "SAVE10", discount: "0.10"},
	{code: "WELCOME15", discount: "0.15"},
	{code: "PARFUM20", discount: "0.20", validFor: 90 * 24 * time.Hour},
	{code: "VIP25", discount: "0.25", validFor: 30 * 24 * time.Hour},
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

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	for _, p := range products {
		notes, err := json.Marshal(p.Notes)
		if err != nil {
			return errors.Wrapf(err, "marshal notes for %s", p.ID)
		}
		_, err = pool.Exec(ctx, upsertProductSQL,
			p.ID, p.Name, p.Brand, p.Category, p.Description, notes,
			p.Price, p.Stock, p.Image.Thumbnail, p.Image.Full,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
	}

	slog.Info("products seeded", slog.Int("count", len(products)))
	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	now := time.Now()
	for _, c := range couponSeeds {
		var expiresAt *time.Time
		if c.validFor > 0 {
			t := now.Add(c.validFor)
			expiresAt = &t
		}
		discount, err := decimal.NewFromString(c.discount)
		if err != nil {
			return errors.Wrapf(err, "parse discount for %s", c.code)
		}
		if _, err := pool.Exec(ctx, upsertCouponSQL, c.code, discount, expiresAt); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}
	}

	slog.Info("coupons seeded", slog.Int("count", len(couponSeeds)))
	return nil
}
