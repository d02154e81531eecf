package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errWidgetMissing = NotFound("widget not found")

func TestKindOf_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("load widget w-1: %w", errWidgetMissing)

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, errors.Is(err, errWidgetMissing))
	assert.True(t, IsOperational(err))
}

func TestKindOf_PlainError(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, KindInternal, KindOf(err))
	assert.False(t, IsOperational(err))
}

func TestUpstream_NotOperational(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("query products", cause)

	assert.Equal(t, KindUpstream, KindOf(err))
	assert.False(t, IsOperational(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "query products: connection refused", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindConflict, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindUnauthenticated, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindUpstream, http.StatusInternalServerError},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.kind))
		})
	}
}

func TestWrap_KeepsMessageAndChain(t *testing.T) {
	cause := errors.New("password must be at least 8 characters")
	err := Wrap(KindValidation, cause)

	assert.Equal(t, cause.Error(), err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindValidation, KindOf(err))
}
