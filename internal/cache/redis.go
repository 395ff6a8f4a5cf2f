package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisCache implements Cache on Redis. Keys are "<prefix>:<scope>:<key>".
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(opts RedisOptions, scope string) (*RedisCache, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return newRedisWithClient(client, opts.Prefix, scope), nil
}

func newRedisWithClient(client *redis.Client, prefix, scope string) *RedisCache {
	if prefix == "" {
		prefix = "planner"
	}
	return &RedisCache{client: client, prefix: prefix + ":" + scope}
}

func (c *RedisCache) key(name string) string {
	return c.prefix + ":" + name
}

// Save writes both keys inside MULTI/EXEC.
func (c *RedisCache) Save(ctx context.Context, snap Snapshot) error {
	draft, turns, err := encode(snap)
	if err != nil {
		return err
	}
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.key(KeyDraft), draft, 0)
		pipe.Set(ctx, c.key(KeyTurns), turns, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save to redis: %w", err)
	}
	return nil
}

// Load reads both keys in one round trip.
func (c *RedisCache) Load(ctx context.Context) (Snapshot, error) {
	vals, err := c.client.MGet(ctx, c.key(KeyDraft), c.key(KeyTurns)).Result()
	if err != nil {
		return Snapshot{}, fmt.Errorf("load from redis: %w", err)
	}
	return decode(bytesOf(vals[0]), bytesOf(vals[1])), nil
}

// Clear deletes both keys.
func (c *RedisCache) Clear(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key(KeyDraft), c.key(KeyTurns)).Err(); err != nil {
		return fmt.Errorf("clear redis: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func bytesOf(v any) []byte {
	switch s := v.(type) {
	case string:
		return []byte(s)
	case []byte:
		return s
	default:
		return nil
	}
}
