package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisValuePrefix = "showcase:page:"
	redisTagPrefix   = "showcase:tag:"
)

// Redis is a Cache shared between several showcase instances. Values live
// under showcase:page:<key>; each tag is a set of page keys.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to redisURL, which may be a redis:// URL or host:port,
// and pings it.
func NewRedis(ctx context.Context, redisURL string) (*Redis, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, redisValuePrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// setScript stores the value and records it under each tag (KEYS[2:]). A
// tag set expires no earlier than its longest-lived member: a new set takes
// the entry's TTL, an existing one is only ever extended, and an entry
// without TTL makes the set persistent.
var setScript = redis.NewScript(`
local ttl = tonumber(ARGV[2])
if ttl > 0 then
  redis.call('SET', KEYS[1], ARGV[1], 'PX', ttl)
else
  redis.call('SET', KEYS[1], ARGV[1])
end
for i = 2, #KEYS do
  local existed = redis.call('EXISTS', KEYS[i])
  redis.call('SADD', KEYS[i], KEYS[1])
  if ttl <= 0 then
    redis.call('PERSIST', KEYS[i])
  else
    local cur = redis.call('PTTL', KEYS[i])
    if existed == 0 or (cur >= 0 and cur < ttl) then
      redis.call('PEXPIRE', KEYS[i], ttl)
    end
  end
end
return 1
`)

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	keys := make([]string, 0, len(tags)+1)
	keys = append(keys, redisValuePrefix+key)
	for _, t := range tags {
		keys = append(keys, redisTagPrefix+t)
	}
	ms := ttl.Milliseconds()
	if ttl > 0 && ms == 0 {
		ms = 1
	}
	if err := setScript.Run(ctx, r.client, keys, value, ms).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) InvalidateTag(ctx context.Context, tag string) error {
	tagKey := redisTagPrefix + tag
	members, err := r.client.SMembers(ctx, tagKey).Result()
	if err != nil {
		return fmt.Errorf("redis tag members %s: %w", tag, err)
	}
	keys := append(members, tagKey)
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis invalidate %s: %w", tag, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
