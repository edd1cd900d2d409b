package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edirooss/seqcrdt/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestPingDoesNotTouchRedis(t *testing.T) {
	// rdb points at an address nothing is listening on; this route must
	// never dial it.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	reg := NewRegistry(zap.NewNop(), rdb, "test:", 1, config.Config{AllocLimit: 1024})
	router := NewRouter(config.Config{Env: "dev"}, zap.NewNop(), reg)

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rec.Body.String())
}

func TestUnknownRouteIs404(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	reg := NewRegistry(zap.NewNop(), rdb, "test:", 1, config.Config{AllocLimit: 1024})
	router := NewRouter(config.Config{}, zap.NewNop(), reg)

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
