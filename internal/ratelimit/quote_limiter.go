package ratelimit

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/ticketprice/internal/config"
	"github.com/smallbiznis/ticketprice/internal/observability/metrics"
	"go.uber.org/zap"
)

const keyQuoteClient = "ratelimit:quote:%s:%s"

// Allower is the bucket operation the limiter needs.
type Allower interface {
	Allow(ctx context.Context, key string, rate float64, burst int) (*Decision, error)
}

// QuoteLimiter throttles the public price endpoints per client and event.
// It fails open: without redis, or when redis errors, requests pass.
type QuoteLimiter struct {
	bucket  Allower
	config  *config.PricingConfigHolder
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewQuoteLimiter(bucket Allower, cfg *config.PricingConfigHolder, log *zap.Logger, m *metrics.Metrics) *QuoteLimiter {
	return &QuoteLimiter{
		bucket:  bucket,
		config:  cfg,
		log:     log.Named("ratelimit"),
		metrics: m,
	}
}

// Middleware limits requests to the named endpoint.
func (l *QuoteLimiter) Middleware(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.bucket == nil || l.config == nil {
			c.Next()
			return
		}
		cfg := l.config.Get().RateLimit
		if !cfg.Enabled {
			c.Next()
			return
		}

		key := fmt.Sprintf(keyQuoteClient, c.ClientIP(), c.Param("id"))
		result, err := l.bucket.Allow(c.Request.Context(), key, cfg.Rate, cfg.Burst)
		if err != nil {
			l.log.Warn("rate limiter unavailable, allowing request",
				zap.String("endpoint", endpoint),
				zap.Error(err),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if result.Allowed {
			c.Next()
			return
		}

		l.metrics.RecordRateLimitDenied(c.Request.Context(), endpoint)
		retry := int(math.Ceil(result.RetryAfter.Seconds()))
		if retry < 1 {
			retry = 1
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": gin.H{
				"type":    "rate_limited",
				"message": "too many requests",
			},
		})
	}
}
