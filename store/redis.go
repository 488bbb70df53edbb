package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces session areas in a shared Redis.
const redisKeyPrefix = "tubescope:session:"

// Redis stores each area as a list of JSON batches plus an "open" marker.
// Both keys carry the ttl so a crashed process cannot leak them forever.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis connects to redisURL and verifies the connection with a PING.
func NewRedis(ctx context.Context, redisURL string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("store: invalid redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("store: redis unreachable: %w", err)
	}
	slog.Info("store: redis connected", "addr", opts.Addr, "db", opts.DB)

	return &Redis{rdb: rdb, ttl: ttl}, nil
}

func (r *Redis) Name() string { return "redis" }

func listKey(key string) string   { return redisKeyPrefix + key }
func markerKey(key string) string { return redisKeyPrefix + key + ":open" }

func (r *Redis) Open(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	ok, err := r.rdb.SetNX(ctx, markerKey(key), time.Now().Unix(), r.ttl).Result()
	if err != nil {
		return fmt.Errorf("store: redis open %s: %w", key, err)
	}
	if !ok {
		return ErrAreaExists
	}
	return nil
}

func (r *Redis) Append(ctx context.Context, key string, batch Batch) error {
	n, err := r.rdb.Exists(ctx, markerKey(key)).Result()
	if err != nil {
		return fmt.Errorf("store: redis append %s: %w", key, err)
	}
	if n == 0 {
		return ErrNotOpen
	}

	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("store: encode batch: %w", err)
	}

	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, listKey(key), data)
	if r.ttl > 0 {
		pipe.Expire(ctx, listKey(key), r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store: redis append %s: %w", key, err)
	}
	return nil
}

func (r *Redis) ReadAll(ctx context.Context, key string) ([]Batch, error) {
	vals, err := r.rdb.LRange(ctx, listKey(key), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("store: redis read %s: %w", key, err)
	}
	out := make([]Batch, 0, len(vals))
	for i, v := range vals {
		var b Batch
		if err := json.Unmarshal([]byte(v), &b); err != nil {
			return nil, fmt.Errorf("store: decode batch %d of %s: %w", i, key, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, listKey(key), markerKey(key)).Err(); err != nil {
		return fmt.Errorf("store: redis delete %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
