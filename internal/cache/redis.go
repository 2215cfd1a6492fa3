package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a go-redis backed Cache. Used when multiple API instances should
// share one read cache.
type Redis struct {
	client *redis.Client
}

// NewRedis connects and pings the Redis at url (redis:// URL form).
func NewRedis(url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil and transport errors both read as a miss.
		return nil, false
	}
	return data, true
}

func (r *Redis) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	_ = r.client.Set(ctx, key, data, ttl).Err()
}

func (r *Redis) Stats() map[string]any {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	size, err := r.client.DBSize(ctx).Result()
	stats := map[string]any{"backend": "redis", "enabled": true}
	if err == nil {
		stats["keys"] = size
	}
	return stats
}
