package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Token counts are kept in thousandths so the script only ever replies with
// integers; redis truncates Lua floats.
const refillScript = `
local capacity = tonumber(ARGV[1]) * 1000
local perMilli = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local t = redis.call("TIME")
local now = t[1] * 1000 + math.floor(t[2] / 1000)

local level = tonumber(redis.call("HGET", KEYS[1], "level"))
local last = tonumber(redis.call("HGET", KEYS[1], "last"))
if level == nil or last == nil then
  level = capacity
else
  local elapsed = math.max(0, now - last)
  level = math.min(capacity, level + math.floor(elapsed * perMilli))
end

local granted = 0
if level >= 1000 then
  granted = 1
  level = level - 1000
end

redis.call("HSET", KEYS[1], "level", level, "last", now)
redis.call("PEXPIRE", KEYS[1], ttl)
return {granted, level, now}
`

var errBucketUnconfigured = errors.New("ratelimit: bucket not configured")

// Decision is the outcome of one bucket take.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// TokenBucket is a redis-backed token bucket shared by every replica.
type TokenBucket struct {
	client *redis.Client
	script *redis.Script
}

func NewTokenBucket(client *redis.Client) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{client: client, script: redis.NewScript(refillScript)}
}

// Allow takes one token from the bucket at key, refilling at rate tokens per
// second up to burst.
func (b *TokenBucket) Allow(ctx context.Context, key string, rate float64, burst int) (*Decision, error) {
	if b == nil || b.client == nil {
		return nil, errBucketUnconfigured
	}
	if key == "" || rate <= 0 || burst <= 0 {
		return nil, fmt.Errorf("ratelimit: invalid bucket key=%q rate=%v burst=%d", key, rate, burst)
	}

	// rate tokens/s is rate milli-tokens per millisecond.
	reply, err := b.script.Run(ctx, b.client, []string{key}, burst, rate, bucketTTL(rate, burst).Milliseconds()).Int64Slice()
	if err != nil {
		return nil, err
	}
	if len(reply) != 3 {
		return nil, fmt.Errorf("ratelimit: unexpected script reply of length %d", len(reply))
	}
	return decide(reply[0] == 1, reply[1], reply[2], rate, burst), nil
}

func decide(allowed bool, levelMilli, nowMillis int64, rate float64, burst int) *Decision {
	d := &Decision{
		Allowed:   allowed,
		Limit:     burst,
		Remaining: int(levelMilli / 1000),
		ResetTime: time.UnixMilli(nowMillis),
	}
	if !allowed {
		missing := float64(1000-levelMilli) / 1000
		d.RetryAfter = time.Duration(missing / rate * float64(time.Second))
		d.ResetTime = d.ResetTime.Add(d.RetryAfter)
	}
	return d
}

// bucketTTL keeps an idle bucket around for twice its full refill time.
func bucketTTL(rate float64, burst int) time.Duration {
	if rate <= 0 || burst <= 0 {
		return time.Second
	}
	return time.Duration(math.Max(1, math.Ceil(2*float64(burst)/rate))) * time.Second
}
