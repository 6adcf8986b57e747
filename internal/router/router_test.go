package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"triostack/internal/config"
	"triostack/internal/infra"
)

// newTestEngine wires the full engine against lazy clients. The driver does
// not dial until an operation runs, and routing is decided before any
// request could reach Mongo or Redis.
func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	client, err := mongo.Connect(context.Background(),
		options.Client().ApplyURI("mongodb://localhost:27017"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	m := &infra.Mongo{Client: client, DB: client.Database("triostack-router-test")}
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})

	cfg := &config.Config{
		Env:                "test",
		JWTSecret:          "test-secret",
		JWTExpirationHours: 1,
		JWTRefreshHours:    1,
	}
	return New(cfg, m, rdb)
}

// An unauthenticated request to a mounted protected route stops at the JWT
// middleware with 401; only an unmounted path falls through to 404.
func TestProtectedRoutesResolve(t *testing.T) {
	r := newTestEngine(t)
	const id = "665f1f77bcf86cd799439011"

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/allocations/user/" + id + "/active"},
		{http.MethodGet, "/api/allocations/user/" + id + "/history"},
		{http.MethodGet, "/api/allocations/asset/" + id + "/active"},
		{http.MethodGet, "/api/allocations/asset/" + id + "/history"},
		{http.MethodPut, "/api/users/" + id + "/change-password"},
		{http.MethodPut, "/api/users/" + id + "/toggle-status"},
		{http.MethodPut, "/api/users/" + id + "/reset-password"},
		{http.MethodGet, "/api/assets/report/pdf"},
		{http.MethodPost, "/api/assets/" + id + "/assign"},
		{http.MethodPost, "/api/allocations/" + id + "/return"},
	}
	for _, tc := range routes {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRetiredPathsDoNotResolve(t *testing.T) {
	r := newTestEngine(t)
	const id = "665f1f77bcf86cd799439011"

	// The active-allocation lookups live under the /active suffix; the bare
	// two-segment paths must not resolve.
	for _, path := range []string{
		"/api/allocations/user/" + id,
		"/api/allocations/asset/" + id,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}
