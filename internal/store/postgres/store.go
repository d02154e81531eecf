// Package postgres implements the repositories on PostgreSQL. Money is
// NUMERIC, order lines and addresses are JSONB.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/ec-shop-api/internal/apperr"
	"github.com/example/ec-shop-api/internal/domain/cart"
	"github.com/example/ec-shop-api/internal/domain/category"
	"github.com/example/ec-shop-api/internal/domain/order"
	"github.com/example/ec-shop-api/internal/domain/product"
	"github.com/example/ec-shop-api/internal/domain/review"
	"github.com/example/ec-shop-api/internal/domain/user"
	"github.com/example/ec-shop-api/internal/domain/wishlist"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaSQL string

const uniqueViolation = "23505"

type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open connects and verifies the connection. It does not create the schema;
// call Migrate for that.
func Open(ctx context.Context, connStr string, maxOpenConns int, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(max(maxOpenConns/5, 1))
	db.SetConnMaxLifetime(5 * time.Minute)

	return New(db, logger), nil
}

// New wraps an existing connection pool.
func New(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger.Named("postgres")}
}

func (s *Store) Users() user.Repository          { return userRepo{s} }
func (s *Store) Products() product.Repository    { return productRepo{s} }
func (s *Store) Categories() category.Repository { return categoryRepo{s} }
func (s *Store) Carts() cart.Repository          { return cartRepo{s} }
func (s *Store) Wishlists() wishlist.Repository  { return wishlistRepo{s} }
func (s *Store) Orders() order.Repository        { return orderRepo{s} }
func (s *Store) Reviews() review.Repository      { return reviewRepo{s} }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return dbError("ping", err)
	}
	return nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	s.logger.Info("schema applied")
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn in a transaction, committing only if fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError("begin", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return dbError("commit", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// dbError classifies a driver failure as upstream.
func dbError(op string, err error) error {
	return apperr.Upstream("database error", fmt.Errorf("%s: %w", op, err))
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// notFound maps sql.ErrNoRows to the domain sentinel and anything else to
// an upstream failure.
func notFound(op string, err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return dbError(op, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// where accumulates AND-ed conditions with numbered placeholders.
type where struct {
	clauses []string
	args    []any
}

// add appends cond, replacing each ? with the next placeholder bound to arg.
func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// page appends LIMIT and OFFSET placeholders and returns the clause.
func (w *where) page(limit, offset int) string {
	w.args = append(w.args, limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(w.args)-1, len(w.args))
}

// likePattern escapes LIKE metacharacters for a substring match.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

// stringArray never binds NULL, which the TEXT[] columns reject.
func stringArray(s []string) pq.StringArray {
	if s == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(s)
}
