package ratelimit

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Key patterns:
// - ratelimit:{user_id}:writes - per-minute mutating requests
// - ratelimit:{user_id}:joins  - per-minute join attempts

type Config struct {
	WriteLimit  int
	WriteWindow time.Duration
	JoinLimit   int
	JoinWindow  time.Duration
}

func DefaultConfig() Config {
	return Config{
		WriteLimit:  120,
		WriteWindow: 60 * time.Second,
		JoinLimit:   10,
		JoinWindow:  60 * time.Second,
	}
}

// Limiter enforces fixed-window counters in Redis.
type Limiter struct {
	client *goredis.Client
	config Config
}

type Result struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
	Limit     int
}

func NewLimiter(client *goredis.Client, config Config) *Limiter {
	return &Limiter{client: client, config: config}
}

// AllowWrite checks whether a user may perform another mutating request.
func (r *Limiter) AllowWrite(ctx context.Context, userID string) (*Result, error) {
	key := fmt.Sprintf("ratelimit:%s:writes", userID)
	return r.checkLimit(ctx, key, r.config.WriteLimit, r.config.WriteWindow)
}

// AllowJoin checks whether a user may attempt another session join.
func (r *Limiter) AllowJoin(ctx context.Context, userID string) (*Result, error) {
	key := fmt.Sprintf("ratelimit:%s:joins", userID)
	return r.checkLimit(ctx, key, r.config.JoinLimit, r.config.JoinWindow)
}

// checkLimit increments and checks the window counter atomically.
func (r *Limiter) checkLimit(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	script := goredis.NewScript(`
		local key = KEYS[1]
		local limit = tonumber(ARGV[1])
		local window = tonumber(ARGV[2])

		local current = redis.call('GET', key)
		if current == false then
			current = 0
		else
			current = tonumber(current)
		end

		local ttl = redis.call('TTL', key)
		if ttl < 0 then
			ttl = window
		end

		if current < limit then
			redis.call('INCR', key)
			if ttl == window then
				redis.call('EXPIRE', key, window)
			end
			return {1, limit - current - 1, ttl}
		else
			return {0, 0, ttl}
		end
	`)

	result, err := script.Run(ctx, r.client, []string{key}, limit, int(window.Seconds())).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	resultSlice, ok := result.([]interface{})
	if !ok || len(resultSlice) < 3 {
		return nil, fmt.Errorf("unexpected rate limit result format")
	}

	return &Result{
		Allowed:   resultSlice[0].(int64) == 1,
		Remaining: int(resultSlice[1].(int64)),
		ResetIn:   time.Duration(resultSlice[2].(int64)) * time.Second,
		Limit:     limit,
	}, nil
}
