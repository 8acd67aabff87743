// Package ratelimit provides fixed-window request limiters keyed by caller.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more request for key fits in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type bucket struct {
	count   int
	resetAt time.Time
}

// Memory is an in-process fixed-window limiter.
type Memory struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewMemory creates an in-process limiter allowing max requests per window.
func NewMemory(max int, window time.Duration) *Memory {
	return &Memory{
		max:     max,
		window:  window,
		now:     time.Now,
		buckets: map[string]*bucket{},
	}
}

// Allow never fails.
func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]
	if !ok || now.After(b.resetAt) {
		b = &bucket{resetAt: now.Add(m.window)}
		m.buckets[key] = b
	}
	if b.count >= m.max {
		return false, nil
	}
	b.count++

	if len(m.buckets) > 4096 {
		m.sweep(now)
	}
	return true, nil
}

func (m *Memory) sweep(now time.Time) {
	for k, b := range m.buckets {
		if now.After(b.resetAt) {
			delete(m.buckets, k)
		}
	}
}

// Redis is a fixed-window limiter shared by every replica talking to the
// same Redis instance.
type Redis struct {
	client *redis.Client
	prefix string
	max    int
	window time.Duration
}

// NewRedis connects to redisURL and verifies it with a ping.
func NewRedis(redisURL string, max int, window time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisWithClient(client, max, window), nil
}

// NewRedisWithClient creates a limiter from an existing Redis client.
func NewRedisWithClient(client *redis.Client, max int, window time.Duration) *Redis {
	return &Redis{client: client, prefix: "ratelimit:", max: max, window: window}
}

// Allow increments the counter for key. The key is created with its expiry
// in the same transaction, so a counter never outlives its window.
func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	k := r.prefix + key

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, r.window)
		incr = pipe.Incr(ctx, k)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return incr.Val() <= int64(r.max), nil
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
