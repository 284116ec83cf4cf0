package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/chatify/edge-server-go/internal/audit"
)

const (
	loginLimitKeyPrefix = "loginlimit:"
	loginLimitWindow    = 60 * time.Second
)

// Sliding window counter: prune entries older than the window, reject when
// the window is full, otherwise record this attempt.
var loginLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

if redis.call('ZCARD', key) >= limit then
    return 0
end

redis.call('ZADD', key, now, now .. '-' .. math.random())
redis.call('EXPIRE', key, window + 10)
return 1
`)

// LoginRateLimiter bounds login attempts per client IP. Credential guessing
// goes through the gateway, so the gateway throttles it before the backend
// sees it.
type LoginRateLimiter struct {
	client *redis.Client
	limit  int
}

func NewLoginRateLimiter(client *redis.Client, limit int) *LoginRateLimiter {
	return &LoginRateLimiter{client: client, limit: limit}
}

func (rl *LoginRateLimiter) allow(ctx context.Context, ip string) bool {
	result, err := loginLimitScript.Run(ctx, rl.client,
		[]string{loginLimitKeyPrefix + ip},
		time.Now().Unix(), int64(loginLimitWindow.Seconds()), rl.limit,
	).Int64()
	if err != nil {
		log.Warn().Err(err).Str("ip", ip).Msg("redis login limit check failed, allowing request")
		return true
	}
	return result == 1
}

func (rl *LoginRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		if !rl.allow(r.Context(), ip) {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventRateLimitExceed})
			w.Header().Set("Retry-After", strconv.Itoa(int(loginLimitWindow.Seconds())))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Too many login attempts, try again later",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
