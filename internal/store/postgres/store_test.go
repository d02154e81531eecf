package postgres

import (
	"errors"
	"net/http"
	"testing"

	"github.com/example/ec-shop-api/internal/apperr"
	"github.com/example/ec-shop-api/internal/domain/order"
	"github.com/example/ec-shop-api/internal/domain/product"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestWhere(t *testing.T) {
	var w where
	assert.Equal(t, "", w.String())

	w.add("status = ?", "active")
	w.clauses = append(w.clauses, "stock > 0")
	w.add("(name ILIKE ? OR description ILIKE ?)", "%mug%")
	limit := w.page(20, 40)

	assert.Equal(t, " WHERE status = $1 AND stock > 0 AND (name ILIKE $2 OR description ILIKE $2)", w.String())
	assert.Equal(t, " LIMIT $3 OFFSET $4", limit)
	assert.Equal(t, []any{"active", "%mug%", 20, 40}, w.args)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%mug%", likePattern("mug"))
	assert.Equal(t, `%50\%\_off%`, likePattern("50%_off"))
}

func TestDistributionArray(t *testing.T) {
	r := product.NewRating([]int{5, 5, 1})
	assert.Equal(t, pq.Int64Array{1, 0, 0, 0, 2}, distributionArray(r))
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: uniqueViolation}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))

	err := dbError("insert user", errors.New("connection reset"))
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.False(t, apperr.IsOperational(err))
	assert.Contains(t, err.Error(), "insert user: connection reset")
}

func TestInsertOrderError(t *testing.T) {
	err := insertOrderError(&pq.Error{Code: uniqueViolation, Constraint: "orders_order_number_key"})
	assert.ErrorIs(t, err, order.ErrDuplicateOrderNumber)
	assert.Equal(t, http.StatusBadRequest, apperr.HTTPStatus(apperr.KindOf(err)))

	err = insertOrderError(errors.New("connection reset"))
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
}

func TestStringArray_NeverNil(t *testing.T) {
	v, err := stringArray(nil).Value()
	assert.NoError(t, err)
	assert.Equal(t, "{}", v)
}
