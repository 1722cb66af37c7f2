package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/HexaTopo/pkg/errors"
)

func newHealthRouter(checkers ...HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHealthHandler("0.3.0", checkers...).RegisterRoutes(r)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLivenessAlwaysOK(t *testing.T) {
	failing := CheckerFunc{ComponentName: "postgres", Fn: func(context.Context) error {
		return errors.New(errors.ErrCodeStoreConnection, "down")
	}}
	r := newHealthRouter(failing)

	rec := get(r, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "0.3.0", resp.Version)
}

func TestReadinessAllUp(t *testing.T) {
	ok := func(context.Context) error { return nil }
	r := newHealthRouter(
		CheckerFunc{ComponentName: "postgres", Fn: ok},
		CheckerFunc{ComponentName: "redis", Fn: ok},
	)

	rec := get(r, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "up", resp.Components["postgres"].Status)
	assert.Equal(t, "up", resp.Components["redis"].Status)
}

func TestReadinessOneDown(t *testing.T) {
	r := newHealthRouter(
		CheckerFunc{ComponentName: "postgres", Fn: func(context.Context) error { return nil }},
		CheckerFunc{ComponentName: "redis", Fn: func(context.Context) error {
			return errors.New(errors.ErrCodeCacheError, "connection refused")
		}},
	)

	rec := get(r, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not ready", resp.Status)
	assert.Equal(t, "up", resp.Components["postgres"].Status)
	assert.Equal(t, "down", resp.Components["redis"].Status)
	assert.Contains(t, resp.Components["redis"].Error, "connection refused")
}

func TestReadinessNoCheckers(t *testing.T) {
	rec := get(newHealthRouter(), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}
