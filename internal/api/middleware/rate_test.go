package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitRejectsOverBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestLimiterPoolReusesEntryPerIP(t *testing.T) {
	pool := newLimiterPool(RateLimitConfig{RequestsPerSecond: 10, Burst: 10})
	now := time.Now()

	first := pool.get("10.0.0.1", now)
	second := pool.get("10.0.0.1", now.Add(time.Second))
	other := pool.get("10.0.0.2", now)

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, pool.len())
}

func TestLimiterPoolEvictsIdleClients(t *testing.T) {
	pool := newLimiterPool(RateLimitConfig{RequestsPerSecond: 10, Burst: 10})
	start := time.Now()

	pool.get("10.0.0.1", start)
	pool.get("10.0.0.2", start)
	require.Equal(t, 2, pool.len())

	// Only the second IP stays in use; after the TTL the first is swept
	// on the next request.
	active := start.Add(clientTTL)
	pool.get("10.0.0.2", active)

	later := active.Add(sweepInterval + time.Second)
	pool.get("10.0.0.3", later)

	assert.Equal(t, 2, pool.len())
	_, stale := pool.clients["10.0.0.1"]
	assert.False(t, stale)
	_, kept := pool.clients["10.0.0.2"]
	assert.True(t, kept)
}
