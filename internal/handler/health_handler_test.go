package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHealthRouter(t *testing.T, redisClient *redis.Client) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gin.SetMode(gin.TestMode)
	h := NewHealthHandler(sqlx.NewDb(db, "sqlmock"), redisClient)
	r := gin.New()
	r.GET("/ready", h.Ready)
	return r, mock
}

func TestHealthReady(t *testing.T) {
	r, mock := newHealthRouter(t, nil)
	mock.ExpectPing()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ready")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthReadyDatabaseDown(t *testing.T) {
	r, mock := newHealthRouter(t, nil)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "database")
}

func TestHealthReadyRedisDown(t *testing.T) {
	// Nothing listens on port 1, so the redis ping must fail fast.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { client.Close() })
	r, mock := newHealthRouter(t, client)
	mock.ExpectPing()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis")
}
