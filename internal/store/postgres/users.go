package postgres

import (
	"context"

	"github.com/example/ec-shop-api/internal/domain/user"
	"github.com/example/ec-shop-api/internal/pagination"
)

type userRepo struct{ s *Store }

const userColumns = `id, email, password_hash, name, role, is_active, password_changed_at, last_login_at, created_at, updated_at`

func scanUser(row scanner) (*user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.IsActive,
		&u.PasswordChangedAt, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r userRepo) Create(ctx context.Context, u *user.User) error {
	_, err := r.s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.IsActive,
		u.PasswordChangedAt, u.LastLoginAt, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return user.ErrEmailTaken
	}
	if err != nil {
		return dbError("insert user", err)
	}
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	u, err := scanUser(r.s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFound("get user", err, user.ErrUserNotFound)
	}
	return u, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	u, err := scanUser(r.s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, notFound("get user by email", err, user.ErrUserNotFound)
	}
	return u, nil
}

func (r userRepo) Update(ctx context.Context, u *user.User) error {
	res, err := r.s.db.ExecContext(ctx, `
		UPDATE users SET
			email = $2,
			password_hash = $3,
			name = $4,
			role = $5,
			is_active = $6,
			password_changed_at = $7,
			last_login_at = $8,
			updated_at = $9
		WHERE id = $1
	`, u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.IsActive,
		u.PasswordChangedAt, u.LastLoginAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return user.ErrEmailTaken
	}
	if err != nil {
		return dbError("update user", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func (r userRepo) List(ctx context.Context, filter user.ListFilter) ([]*user.User, int, error) {
	var w where
	if filter.Role != "" {
		w.add("role = ?", filter.Role)
	}

	var total int
	if err := r.s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, dbError("count users", err)
	}

	p := pagination.New(filter.Page, filter.Limit)
	query := `SELECT ` + userColumns + ` FROM users` + w.String() + ` ORDER BY created_at DESC, id` + w.page(p.Limit, p.Offset())
	rows, err := r.s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, dbError("list users", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, dbError("scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dbError("list users", err)
	}
	return users, total, nil
}

func (r userRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, dbError("count users", err)
	}
	return n, nil
}
