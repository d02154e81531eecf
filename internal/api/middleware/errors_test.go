package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/ec-shop-api/internal/apperr"
)

func TestTranslate(t *testing.T) {
	notFound := apperr.NotFound("product not found")

	tests := []struct {
		name       string
		err        error
		production bool
		wantStatus int
		wantMsg    string
		wantDetail any
	}{
		{"not found", notFound, true, http.StatusNotFound, "product not found", nil},
		{"wrapped sentinel", fmt.Errorf("%w: order is already shipped", apperr.Validation("invalid transition")), true, http.StatusBadRequest, "invalid transition: order is already shipped", nil},
		{"conflict", apperr.Conflict("email is already registered"), true, http.StatusBadRequest, "email is already registered", nil},
		{"forbidden", apperr.Forbidden("nope"), true, http.StatusForbidden, "nope", nil},
		{"upstream in production", apperr.Upstream("database error", errors.New("conn refused")), true, http.StatusInternalServerError, internalMessage, nil},
		{"upstream in development", apperr.Upstream("database error", errors.New("conn refused")), false, http.StatusInternalServerError, internalMessage, "database error: conn refused"},
		{"plain error in production", errors.New("boom"), true, http.StatusInternalServerError, internalMessage, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := Translate(tt.err, tt.production)

			assert.Equal(t, tt.wantStatus, status)
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantMsg, body.Message)
			assert.Equal(t, tt.wantDetail, body.Error)
		})
	}
}

type signupRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Age     int    `json:"age" binding:"min=18"`
	Address struct {
		City string `json:"city" binding:"required"`
	} `json:"address"`
}

func TestErrors_ValidationFieldNames(t *testing.T) {
	UseJSONFieldNames()

	r := gin.New()
	r.Use(Errors(zap.NewNop(), true))
	r.POST("/signup", func(c *gin.Context) {
		var req signupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/signup", jsonBody(`{"email":"nope","age":3}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Error   map[string]string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "validation failed", body.Message)
	assert.Equal(t, map[string]string{
		"email":        "must be a valid email address",
		"age":          "must be at least 18",
		"address.city": "is required",
	}, body.Error)
}

func TestErrors_LeavesWrittenResponsesAlone(t *testing.T) {
	r := gin.New()
	r.Use(Errors(zap.NewNop(), true))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusAccepted, "done")
		_ = c.Error(errors.New("late"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "done", rec.Body.String())
}
