package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/ticketprice/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type allowerMock struct {
	mock.Mock
}

func (m *allowerMock) Allow(ctx context.Context, key string, rate float64, burst int) (*Decision, error) {
	args := m.Called(ctx, key, rate, burst)
	res, _ := args.Get(0).(*Decision)
	return res, args.Error(1)
}

func newRouter(l *QuoteLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/events/:id/price", l.Middleware("price"), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func doRequest(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events/42/price", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	r.ServeHTTP(w, req)
	return w
}

func TestQuoteLimiterDeniesWithRetryAfter(t *testing.T) {
	bucket := &allowerMock{}
	bucket.On("Allow", mock.Anything, "ratelimit:quote:10.0.0.1:42", 20.0, 40).
		Return(&Decision{Allowed: false, Limit: 40, Remaining: 0, RetryAfter: 1500 * time.Millisecond}, nil)

	holder := config.NewStaticPricingConfigHolder(config.DefaultPricingConfig())
	w := doRequest(newRouter(NewQuoteLimiter(bucket, holder, zap.NewNop(), nil)))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.Equal(t, "40", w.Header().Get("X-RateLimit-Limit"))
	assert.Contains(t, w.Body.String(), "rate_limited")
}

func TestQuoteLimiterAllows(t *testing.T) {
	bucket := &allowerMock{}
	bucket.On("Allow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&Decision{Allowed: true, Limit: 40, Remaining: 39}, nil)

	holder := config.NewStaticPricingConfigHolder(config.DefaultPricingConfig())
	w := doRequest(newRouter(NewQuoteLimiter(bucket, holder, zap.NewNop(), nil)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "39", w.Header().Get("X-RateLimit-Remaining"))
}

func TestQuoteLimiterFailsOpen(t *testing.T) {
	bucket := &allowerMock{}
	bucket.On("Allow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("redis down"))

	holder := config.NewStaticPricingConfigHolder(config.DefaultPricingConfig())
	assert.Equal(t, http.StatusOK, doRequest(newRouter(NewQuoteLimiter(bucket, holder, zap.NewNop(), nil))).Code)

	// No redis at all.
	assert.Equal(t, http.StatusOK, doRequest(newRouter(NewQuoteLimiter(nil, holder, zap.NewNop(), nil))).Code)
}

func TestQuoteLimiterDisabledByConfig(t *testing.T) {
	cfg := config.DefaultPricingConfig()
	cfg.RateLimit.Enabled = false
	bucket := &allowerMock{}

	w := doRequest(newRouter(NewQuoteLimiter(bucket, config.NewStaticPricingConfigHolder(cfg), zap.NewNop(), nil)))
	assert.Equal(t, http.StatusOK, w.Code)
	bucket.AssertNotCalled(t, "Allow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBucketHelpers(t *testing.T) {
	assert.Equal(t, 4*time.Second, bucketTTL(20, 40))
	assert.Equal(t, time.Second, bucketTTL(0, 10))
	assert.Equal(t, time.Second, bucketTTL(100, 1))

	denied := decide(false, 500, 1000, 2, 10)
	assert.False(t, denied.Allowed)
	assert.Equal(t, 250*time.Millisecond, denied.RetryAfter)
	assert.Equal(t, 10, denied.Limit)
	assert.Equal(t, 0, denied.Remaining)
	assert.Equal(t, time.UnixMilli(1250), denied.ResetTime)

	allowed := decide(true, 3999, 1000, 2, 10)
	assert.Equal(t, 3, allowed.Remaining)
	assert.Zero(t, allowed.RetryAfter)

	_, err := (*TokenBucket)(nil).Allow(context.Background(), "k", 1, 1)
	assert.ErrorIs(t, err, errBucketUnconfigured)
}
