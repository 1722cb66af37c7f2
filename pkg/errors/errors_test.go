package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeUnsupportedResolution, "target resolution 12 exceeds cell resolution 9")

	assert.Equal(t, ErrCodeUnsupportedResolution, err.Code)
	assert.Equal(t, "[CELL_003] target resolution 12 exceeds cell resolution 9", err.Error())
	assert.NotEmpty(t, err.Stack)
	assert.Nil(t, err.Unwrap())
}

func TestNewf(t *testing.T) {
	err := Newf(ErrCodeInvalidResolution, "resolution %d out of range", 42)
	assert.Equal(t, "[CELL_002] resolution 42 out of range", err.Error())
}

func TestWrap(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, ErrCodeStoreQuery, "should not happen"))
	})

	t.Run("wraps cause and keeps chain traversable", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		err := Wrap(cause, ErrCodeStoreConnection, "feature store unreachable")

		require.NotNil(t, err)
		assert.Equal(t, ErrCodeStoreConnection, err.Code)
		assert.True(t, stderrors.Is(err, cause))
	})

	t.Run("CodeUnknown preserves inner classification", func(t *testing.T) {
		inner := New(ErrCodeAncestorNotFound, "no ancestor row")
		err := Wrap(inner, CodeUnknown, "lookup failed")
		assert.Equal(t, ErrCodeAncestorNotFound, err.Code)
	})
}

func TestWithDetail(t *testing.T) {
	base := New(ErrCodePredicateFailed, "predicate rejected")
	detailed := base.WithDetail(`category = 'forest`)

	assert.Empty(t, base.Detail, "receiver must not be mutated")
	assert.Contains(t, detailed.Error(), "predicate rejected: category = 'forest")

	var nilErr *AppError
	assert.Nil(t, nilErr.WithDetail("ignored"))
}

func TestIsCode(t *testing.T) {
	inner := New(ErrCodeUnsupportedResolution, "finer than cell")
	outer := fmt.Errorf("evaluate: %w", Wrap(inner, ErrCodeInternal, "normalizer failed"))

	assert.True(t, IsCode(outer, ErrCodeUnsupportedResolution))
	assert.True(t, IsCode(outer, ErrCodeInternal))
	assert.False(t, IsCode(outer, ErrCodeCacheError))
	assert.False(t, IsCode(nil, ErrCodeInternal))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeCacheError, GetCode(New(ErrCodeCacheError, "boom")))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("feature 9")))
	assert.True(t, IsNotFound(New(ErrCodeAncestorNotFound, "missing row")))
	assert.False(t, IsNotFound(New(ErrCodeStoreQuery, "bad sql")))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{CodeOK, http.StatusOK},
		{ErrCodeEmptyPredicate, http.StatusBadRequest},
		{ErrCodeInvalidCellID, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeTimeout, http.StatusGatewayTimeout},
		{ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
		{ErrCodeStoreConnection, http.StatusServiceUnavailable},
		{ErrCodeStoreQuery, http.StatusInternalServerError},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.code), string(tt.code))
	}
}
