package postgres

import (
	"context"
	"database/sql"

	"github.com/example/ec-shop-api/internal/domain/category"
)

type categoryRepo struct{ s *Store }

const categoryColumns = `id, name, slug, description, parent_id, sort_order, is_active, created_at, updated_at`

func scanCategory(row scanner) (*category.Category, error) {
	var (
		c        category.Category
		parentID sql.NullString
	)
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &parentID, &c.SortOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.ParentID = parentID.String
	return &c, nil
}

func (r categoryRepo) Create(ctx context.Context, c *category.Category) error {
	_, err := r.s.db.ExecContext(ctx, `
		INSERT INTO categories (`+categoryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ID, c.Name, c.Slug, c.Description, nullString(c.ParentID), c.SortOrder, c.IsActive, c.CreatedAt, c.UpdatedAt)
	if isUniqueViolation(err) {
		return category.ErrSlugTaken
	}
	if err != nil {
		return dbError("insert category", err)
	}
	return nil
}

func (r categoryRepo) GetByID(ctx context.Context, id string) (*category.Category, error) {
	c, err := scanCategory(r.s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		return nil, notFound("get category", err, category.ErrCategoryNotFound)
	}
	return c, nil
}

func (r categoryRepo) GetBySlug(ctx context.Context, slug string) (*category.Category, error) {
	c, err := scanCategory(r.s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug))
	if err != nil {
		return nil, notFound("get category by slug", err, category.ErrCategoryNotFound)
	}
	return c, nil
}

func (r categoryRepo) Update(ctx context.Context, c *category.Category) error {
	res, err := r.s.db.ExecContext(ctx, `
		UPDATE categories SET
			name = $2,
			slug = $3,
			description = $4,
			parent_id = $5,
			sort_order = $6,
			is_active = $7,
			updated_at = $8
		WHERE id = $1
	`, c.ID, c.Name, c.Slug, c.Description, nullString(c.ParentID), c.SortOrder, c.IsActive, c.UpdatedAt)
	if isUniqueViolation(err) {
		return category.ErrSlugTaken
	}
	return affectedOne(res, err, "update category", category.ErrCategoryNotFound)
}

func (r categoryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	return affectedOne(res, err, "delete category", category.ErrCategoryNotFound)
}

func (r categoryRepo) List(ctx context.Context) ([]*category.Category, error) {
	rows, err := r.s.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY sort_order, name, id`)
	if err != nil {
		return nil, dbError("list categories", err)
	}
	defer rows.Close()

	categories := []*category.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, dbError("scan category", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list categories", err)
	}
	return categories, nil
}
