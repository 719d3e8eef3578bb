package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig describes the optional Redis used for token revocation and
// per-tenant import slots. Only URL is required.
type RedisConfig struct {
	// URL is a redis:// or rediss:// URL. It may carry credentials; never log it.
	URL string

	PoolSize    int
	IOTimeout   time.Duration
	PingTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	out := c
	if out.PoolSize <= 0 {
		out.PoolSize = 10
	}
	if out.IOTimeout <= 0 {
		out.IOTimeout = 2 * time.Second
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 2 * time.Second
	}
	return out
}

// RedisOptions resolves cfg into client options without dialing.
func RedisOptions(cfg RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis url is required")
	}
	cfg = cfg.withDefaults()

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.ReadTimeout = cfg.IOTimeout
	opts.WriteTimeout = cfg.IOTimeout
	opts.ConnMaxIdleTime = 5 * time.Minute
	return opts, nil
}

// OpenRedis connects and verifies the server answers PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	opts, err := RedisOptions(cfg)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.withDefaults().PingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// takeSlot increments KEYS[1] unless it would pass ARGV[1]; the counter
// always carries a TTL of ARGV[2] ms so a crashed holder cannot leak a slot.
var takeSlot = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 or redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
if n > tonumber(ARGV[1]) then
  redis.call('DECR', KEYS[1])
  return 0
end
return 1
`)

var giveSlot = redis.NewScript(`
if redis.call('DECR', KEYS[1]) <= 0 then
  redis.call('DEL', KEYS[1])
end
return 1
`)

// AcquireSlot takes one of limit slots under key. It reports false, with no
// error, when every slot is held.
func AcquireSlot(ctx context.Context, rdb *redis.Client, key string, limit int, ttl time.Duration) (bool, error) {
	switch {
	case rdb == nil:
		return false, errors.New("redis client is nil")
	case key == "":
		return false, errors.New("slot key is required")
	case limit <= 0 || ttl <= 0:
		return false, fmt.Errorf("invalid slot limit %d or ttl %v", limit, ttl)
	}
	got, err := takeSlot.Run(ctx, rdb, []string{key}, limit, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return got == 1, nil
}

// ReleaseSlot returns a slot taken with AcquireSlot.
func ReleaseSlot(ctx context.Context, rdb *redis.Client, key string) error {
	if rdb == nil {
		return errors.New("redis client is nil")
	}
	if key == "" {
		return errors.New("slot key is required")
	}
	return giveSlot.Run(ctx, rdb, []string{key}).Err()
}
