package websocket

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultAdmissionKeyPrefix = "threadfit:ws:sessions:"
	// Counters expire so a crashed replica cannot pin a principal at the
	// ceiling forever. Every admit refreshes the TTL.
	defaultAdmissionTTL = 12 * time.Hour
)

// KEYS[1] counter, ARGV[1] ceiling, ARGV[2] ttl in ms. Returns 1 when admitted.
var admitScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
  return 0
end
redis.call('INCR', KEYS[1])
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

// KEYS[1] counter. Deletes the key instead of leaving a zero behind.
var releaseScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current <= 1 then
  redis.call('DEL', KEYS[1])
  return 0
end
return redis.call('DECR', KEYS[1])
`)

// RedisAdmission shares the admission table across server replicas. Each
// decision runs as one Lua script, so check-and-increment is atomic.
type RedisAdmission struct {
	client  redis.Scripter
	ceiling int
	prefix  string
	ttl     time.Duration
}

var _ Admitter = (*RedisAdmission)(nil)

func NewRedisAdmission(client redis.Scripter, ceiling int) *RedisAdmission {
	if ceiling < 1 {
		ceiling = DefaultMaxSessionsPerUser
	}
	return &RedisAdmission{
		client:  client,
		ceiling: ceiling,
		prefix:  defaultAdmissionKeyPrefix,
		ttl:     defaultAdmissionTTL,
	}
}

// WithKeyPrefix namespaces the counters, e.g. per environment or per test.
func (a *RedisAdmission) WithKeyPrefix(prefix string) *RedisAdmission {
	a.prefix = prefix
	return a
}

func (a *RedisAdmission) TryAdmit(ctx context.Context, principal string) error {
	admitted, err := admitScript.Run(ctx, a.client, []string{a.key(principal)}, a.ceiling, a.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("admission check failed: %w", err)
	}
	if admitted == 0 {
		return ErrTooManySessions
	}
	return nil
}

func (a *RedisAdmission) Release(ctx context.Context, principal string) error {
	if err := releaseScript.Run(ctx, a.client, []string{a.key(principal)}).Err(); err != nil {
		return fmt.Errorf("admission release failed: %w", err)
	}
	return nil
}

func (a *RedisAdmission) key(principal string) string {
	return a.prefix + principal
}
