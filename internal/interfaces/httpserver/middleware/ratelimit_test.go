package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(limit int, window time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	limiter := NewLimiter(limit, window, func(c *gin.Context) string {
		return c.Param("session_id")
	})

	engine := gin.New()
	group := engine.Group("/v1/sessions/:session_id")
	group.Use(limiter.Handler())
	group.GET("/messages", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return engine
}

func hit(router *gin.Engine, sessionID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+sessionID+"/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLimiterAllowsWithinCeiling(t *testing.T) {
	router := newLimitedRouter(20, time.Minute)

	for i := 0; i < 20; i++ {
		rec := hit(router, "sess-1")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}
}

func TestLimiterRejectsBeyondCeiling(t *testing.T) {
	router := newLimitedRouter(20, time.Minute)

	for i := 0; i < 20; i++ {
		hit(router, "sess-1")
	}

	rec := hit(router, "sess-1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body struct {
		Error      string `json:"error"`
		RetryAfter int64  `json:"retry_after"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rate limit exceeded", body.Error)
	assert.Equal(t, time.Minute.Milliseconds(), body.RetryAfter)
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	router := newLimitedRouter(20, time.Minute)

	for i := 0; i < 20; i++ {
		hit(router, "sess-1")
	}
	require.Equal(t, http.StatusTooManyRequests, hit(router, "sess-1").Code)

	assert.Equal(t, http.StatusOK, hit(router, "sess-2").Code, "a hot key must not starve others")
}

func TestLimiterMissingKeyPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewLimiter(1, time.Minute, func(c *gin.Context) string { return "" })

	engine := gin.New()
	engine.Use(limiter.Handler())
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
