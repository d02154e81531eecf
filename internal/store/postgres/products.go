package postgres

import (
	"context"
	"database/sql"

	"github.com/example/ec-shop-api/internal/domain/product"
	"github.com/example/ec-shop-api/internal/pagination"
	"github.com/lib/pq"
)

type productRepo struct{ s *Store }

const productColumns = `id, name, description, price, discount_price, discount_starts_at, discount_ends_at,
	stock, sold, status, category_id, images, rating_average, rating_count, rating_distribution,
	created_at, updated_at`

var productOrder = map[product.Sort]string{
	product.SortNewest:    "created_at DESC, id",
	product.SortPriceAsc:  "price ASC, id",
	product.SortPriceDesc: "price DESC, id",
	product.SortRating:    "rating_average DESC, rating_count DESC, id",
	product.SortPopular:   "sold DESC, id",
}

func scanProduct(row scanner) (*product.Product, error) {
	var (
		p            product.Product
		categoryID   sql.NullString
		images       pq.StringArray
		distribution pq.Int64Array
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.DiscountPrice,
		&p.DiscountStartsAt, &p.DiscountEndsAt, &p.Stock, &p.Sold, &p.Status,
		&categoryID, &images, &p.Rating.Average, &p.Rating.Count, &distribution,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.CategoryID = categoryID.String
	p.Images = []string(images)
	if p.Images == nil {
		p.Images = []string{}
	}
	for i := 0; i < len(distribution) && i < len(p.Rating.Distribution); i++ {
		p.Rating.Distribution[i] = int(distribution[i])
	}
	return &p, nil
}

func distributionArray(r product.Rating) pq.Int64Array {
	out := make(pq.Int64Array, len(r.Distribution))
	for i, n := range r.Distribution {
		out[i] = int64(n)
	}
	return out
}

func (r productRepo) Create(ctx context.Context, p *product.Product) error {
	_, err := r.s.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, p.ID, p.Name, p.Description, p.Price, p.DiscountPrice, p.DiscountStartsAt, p.DiscountEndsAt,
		p.Stock, p.Sold, p.Status, nullString(p.CategoryID), stringArray(p.Images),
		p.Rating.Average, p.Rating.Count, distributionArray(p.Rating), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return dbError("insert product", err)
	}
	return nil
}

func (r productRepo) GetByID(ctx context.Context, id string) (*product.Product, error) {
	p, err := scanProduct(r.s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return nil, notFound("get product", err, product.ErrProductNotFound)
	}
	return p, nil
}

func (r productRepo) FindByIDs(ctx context.Context, ids []string) ([]*product.Product, error) {
	if len(ids) == 0 {
		return []*product.Product{}, nil
	}
	rows, err := r.s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, dbError("find products", err)
	}
	return collectProducts(rows)
}

// Update writes the editable fields; stock, sold and rating are left alone.
func (r productRepo) Update(ctx context.Context, p *product.Product) error {
	res, err := r.s.db.ExecContext(ctx, `
		UPDATE products SET
			name = $2,
			description = $3,
			price = $4,
			discount_price = $5,
			discount_starts_at = $6,
			discount_ends_at = $7,
			status = $8,
			category_id = $9,
			images = $10,
			updated_at = $11
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.Price, p.DiscountPrice, p.DiscountStartsAt, p.DiscountEndsAt,
		p.Status, nullString(p.CategoryID), stringArray(p.Images), p.UpdatedAt)
	return affectedOne(res, err, "update product", product.ErrProductNotFound)
}

func (r productRepo) SetStock(ctx context.Context, id string, stock int) error {
	res, err := r.s.db.ExecContext(ctx,
		`UPDATE products SET stock = $2, updated_at = NOW() WHERE id = $1`, id, stock)
	return affectedOne(res, err, "set stock", product.ErrProductNotFound)
}

func (r productRepo) UpdateRating(ctx context.Context, id string, rating product.Rating) error {
	res, err := r.s.db.ExecContext(ctx, `
		UPDATE products SET rating_average = $2, rating_count = $3, rating_distribution = $4
		WHERE id = $1
	`, id, rating.Average, rating.Count, distributionArray(rating))
	return affectedOne(res, err, "update rating", product.ErrProductNotFound)
}

func (r productRepo) Delete(ctx context.Context, id string) error {
	res, err := r.s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	return affectedOne(res, err, "delete product", product.ErrProductNotFound)
}

func (r productRepo) List(ctx context.Context, filter product.Filter) ([]*product.Product, int, error) {
	var w where
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	if filter.CategoryID != "" {
		w.add("category_id = ?", filter.CategoryID)
	}
	if filter.InStock {
		w.clauses = append(w.clauses, "stock > 0")
	}
	if filter.MinPrice != nil {
		w.add("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		w.add("price <= ?", *filter.MaxPrice)
	}
	if filter.Query != "" {
		w.add("(name ILIKE ? OR description ILIKE ?)", likePattern(filter.Query))
	}

	var total int
	if err := r.s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, dbError("count products", err)
	}

	orderBy, ok := productOrder[filter.Sort]
	if !ok {
		orderBy = productOrder[product.SortNewest]
	}
	p := pagination.New(filter.Page, filter.Limit)
	query := `SELECT ` + productColumns + ` FROM products` + w.String() + ` ORDER BY ` + orderBy + w.page(p.Limit, p.Offset())

	rows, err := r.s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, dbError("list products", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r productRepo) LowStock(ctx context.Context, threshold, limit int) ([]*product.Product, error) {
	rows, err := r.s.db.QueryContext(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE stock <= $1
		ORDER BY stock, id
		LIMIT NULLIF($2, 0)
	`, threshold, limit)
	if err != nil {
		return nil, dbError("low stock", err)
	}
	return collectProducts(rows)
}

func (r productRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, dbError("count products", err)
	}
	return n, nil
}

func collectProducts(rows *sql.Rows) ([]*product.Product, error) {
	defer rows.Close()

	products := []*product.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, dbError("scan product", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("read products", err)
	}
	return products, nil
}

// affectedOne turns an Exec result into nil, the not-found sentinel or an
// upstream error.
func affectedOne(res sql.Result, err error, op string, sentinel error) error {
	if err != nil {
		return dbError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbError(op, err)
	}
	if n == 0 {
		return sentinel
	}
	return nil
}
