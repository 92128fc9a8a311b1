package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/parfum-storefront/internal/domain/catalog"
	"github.com/xenking/parfum-storefront/internal/domain/product"
)

const productColumns = `id, name, brand, category, description, notes, price, stock, rating, reviews, image_thumbnail, image_full`

const (
	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	updateReviewsSQL = `UPDATE products SET reviews = $2, rating = $3 WHERE id = $1`
)

var (
	_ product.Repository = (*ProductRepository)(nil)
	_ catalog.Store      = (*ProductRepository)(nil)
)

// ProductRepository implements the product repository and the catalog page
// store backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products by ids")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// UpdateReviews replaces the review list and aggregate rating of a product
// in a single partial update.
func (r *ProductRepository) UpdateReviews(ctx context.Context, id string, reviews []product.Review, rating decimal.Decimal) error {
	blob, err := json.Marshal(reviews)
	if err != nil {
		return errors.Wrap(err, "marshal reviews")
	}

	tag, err := r.pool.Exec(ctx, updateReviewsSQL, id, blob, rating)
	if err != nil {
		return errors.Wrapf(err, "update reviews for product %q", id)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// ListPage executes one keyset-paginated catalog page query. The filter set
// becomes WHERE clauses, the sort becomes a (column, id) ordering, and the
// page edge key becomes a row-tuple comparison. Prev pages are fetched in
// reversed order and flipped before returning.
func (r *ProductRepository) ListPage(ctx context.Context, q catalog.Query, dir catalog.Direction, from catalog.PageKey, limit int) ([]product.Product, error) {
	col, desc := sortSpec(q.Sort)

	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(q.Categories) > 0 {
		conds = append(conds, "category = ANY("+arg(q.Categories)+")")
	}
	if q.PriceMin != nil {
		conds = append(conds, "price >= "+arg(*q.PriceMin))
	}
	if q.PriceMax != nil {
		conds = append(conds, "price <= "+arg(*q.PriceMax))
	}

	// The fetch order matches the listing order for next, and is reversed
	// for prev so LIMIT picks the rows adjacent to the page edge.
	fetchDesc := desc
	if dir == catalog.DirPrev {
		fetchDesc = !desc
	}

	if dir != catalog.DirFirst && !from.Zero() {
		op := ">"
		if fetchDesc {
			op = "<"
		}
		conds = append(conds, fmt.Sprintf("(%s, id) %s (%s::%s, %s)",
			col, op, arg(from.Value), colType(col), arg(from.ID)))
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + productColumns + " FROM products")
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	ord := "ASC"
	if fetchDesc {
		ord = "DESC"
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s, id %s LIMIT %s", col, ord, ord, arg(limit))

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, errors.Wrap(err, "list products page")
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, errors.Wrap(err, "list products page")
	}

	if dir == catalog.DirPrev {
		for i, j := 0, len(products)-1; i < j; i, j = i+1, j-1 {
			products[i], products[j] = products[j], products[i]
		}
	}
	return products, nil
}

// sortSpec maps a catalog sort to its ordering column and direction.
func sortSpec(s catalog.Sort) (col string, desc bool) {
	switch s {
	case catalog.SortPriceAsc:
		return "price", false
	case catalog.SortPriceDesc:
		return "price", true
	case catalog.SortNameDesc:
		return "name", true
	case catalog.SortRatingDesc:
		return "rating", true
	default:
		return "name", false
	}
}

// colType is the cast applied to page-key values, which travel as strings.
func colType(col string) string {
	if col == "name" {
		return "text"
	}
	return "numeric"
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p       product.Product
		notes   []byte
		reviews []byte
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Brand, &p.Category, &p.Description, &notes,
		&p.Price, &p.Stock, &p.Rating, &reviews,
		&p.Image.Thumbnail, &p.Image.Full,
	)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(notes, &p.Notes); err != nil {
		return p, errors.Wrap(err, "decode notes")
	}
	if err := json.Unmarshal(reviews, &p.Reviews); err != nil {
		return p, errors.Wrap(err, "decode reviews")
	}
	return p, nil
}
