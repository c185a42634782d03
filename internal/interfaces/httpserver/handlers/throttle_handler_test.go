package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatcart/session-api/internal/domain/throttle"
)

type mockThrottleService struct {
	ConsumeFunc func(ctx context.Context, domain string, n int) (throttle.Decision, error)
	CheckFunc   func(ctx context.Context, domain string) (throttle.Status, error)
	ResetFunc   func(ctx context.Context, domain string) (int, error)
}

func (m *mockThrottleService) Consume(ctx context.Context, domain string, n int) (throttle.Decision, error) {
	return m.ConsumeFunc(ctx, domain, n)
}

func (m *mockThrottleService) Check(ctx context.Context, domain string) (throttle.Status, error) {
	return m.CheckFunc(ctx, domain)
}

func (m *mockThrottleService) Reset(ctx context.Context, domain string) (int, error) {
	return m.ResetFunc(ctx, domain)
}

func newThrottleTestRouter(service ThrottleService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewThrottleHandler(service, zerolog.Nop())

	engine := gin.New()
	group := engine.Group("/v1/throttle/:domain")
	group.POST("/consume", handler.Consume)
	group.GET("", handler.Check)
	group.POST("/reset", handler.Reset)
	return engine
}

func TestThrottleHandlerConsumeAllowed(t *testing.T) {
	var gotDomain string
	var gotTokens int
	service := &mockThrottleService{
		ConsumeFunc: func(ctx context.Context, domain string, n int) (throttle.Decision, error) {
			gotDomain = domain
			gotTokens = n
			return throttle.Decision{Allowed: true, Tokens: 39, MaxTokens: 40}, nil
		},
	}
	router := newThrottleTestRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/v1/throttle/shoes.example.com/consume", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "shoes.example.com", gotDomain)
	assert.Equal(t, 0, gotTokens, "empty body defaults the token count")
	assert.JSONEq(t, `{"allowed":true,"tokens":39,"max_tokens":40}`, rec.Body.String())
}

func TestThrottleHandlerConsumeWithBody(t *testing.T) {
	var gotTokens int
	service := &mockThrottleService{
		ConsumeFunc: func(ctx context.Context, domain string, n int) (throttle.Decision, error) {
			gotTokens = n
			return throttle.Decision{Allowed: true, Tokens: 35, MaxTokens: 40}, nil
		},
	}
	router := newThrottleTestRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/v1/throttle/shoes.example.com/consume", strings.NewReader(`{"tokens":5}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, gotTokens)
}

func TestThrottleHandlerConsumeDenied(t *testing.T) {
	service := &mockThrottleService{
		ConsumeFunc: func(ctx context.Context, domain string, n int) (throttle.Decision, error) {
			return throttle.Decision{
				Allowed:    false,
				Tokens:     0,
				MaxTokens:  40,
				RetryAfter: 50 * time.Millisecond,
			}, nil
		},
	}
	router := newThrottleTestRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/v1/throttle/shoes.example.com/consume", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"allowed":false,"tokens":0,"max_tokens":40,"retry_after":50}`, rec.Body.String())
}

func TestThrottleHandlerConsumeMalformedBody(t *testing.T) {
	service := &mockThrottleService{
		ConsumeFunc: func(ctx context.Context, domain string, n int) (throttle.Decision, error) {
			t.Error("service must not be called for a malformed body")
			return throttle.Decision{}, nil
		},
	}
	router := newThrottleTestRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/v1/throttle/shoes.example.com/consume", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestThrottleHandlerCheck(t *testing.T) {
	refill := time.UnixMilli(1700000000000)
	service := &mockThrottleService{
		CheckFunc: func(ctx context.Context, domain string) (throttle.Status, error) {
			return throttle.Status{Tokens: 12, MaxTokens: 40, LastRefill: refill}, nil
		},
	}
	router := newThrottleTestRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/v1/throttle/shoes.example.com", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tokens":12,"max_tokens":40,"last_refill":1700000000000}`, rec.Body.String())
}

func TestThrottleHandlerReset(t *testing.T) {
	service := &mockThrottleService{
		ResetFunc: func(ctx context.Context, domain string) (int, error) {
			return 40, nil
		},
	}
	router := newThrottleTestRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/v1/throttle/shoes.example.com/reset", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reset":true,"tokens":40}`, rec.Body.String())
}
