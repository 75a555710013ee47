package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/alokemajumder/rrweb-server/internal/logger"
	"github.com/alokemajumder/rrweb-server/internal/transport/http/response"
)

// MsgTooManyRequests is returned with 429.
const MsgTooManyRequests = "too many requests, please try again later"

// slidingWindow trims entries older than the window, then admits and records
// the request if the remaining count is under the limit.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, ttl)
		return 1
	end

	return 0
`)

// RedisRateLimiter is a sliding window limiter shared by every replica
// pointing at the same Redis.
type RedisRateLimiter struct {
	rdb    redis.Scripter
	prefix string
	now    func() time.Time
}

func NewRedisRateLimiter(rdb redis.Scripter) *RedisRateLimiter {
	return &RedisRateLimiter{
		rdb:    rdb,
		prefix: "rl:rrweb:",
		now:    time.Now,
	}
}

type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	KeyFn  func(r *http.Request) string
}

// Middleware enforces cfg. Redis errors fail open.
func (l *RedisRateLimiter) Middleware(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFn := cfg.KeyFn
	if keyFn == nil {
		keyFn = KeyByIP
	}
	retryAfter := strconv.Itoa(int((cfg.Window + time.Second - 1) / time.Second))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := l.isAllowed(r.Context(), l.prefix+keyFn(r), cfg.Limit, cfg.Window)
			if err != nil {
				logger.Ctx(r.Context()).Warn().Err(err).Msg("rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				w.Header().Set("Retry-After", retryAfter)
				response.Fail(w, http.StatusTooManyRequests, MsgTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (l *RedisRateLimiter) isAllowed(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := l.now().UnixMilli()
	windowStart := now - window.Milliseconds()

	result, err := slidingWindow.Run(ctx, l.rdb, []string{key},
		now, windowStart, limit, window.Milliseconds(), uuid.NewString(),
	).Int()
	if err != nil {
		return false, err
	}

	return result == 1, nil
}

// KeyByIP keys on the client address. Run chi's RealIP first so proxied
// requests resolve to the original client.
func KeyByIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
