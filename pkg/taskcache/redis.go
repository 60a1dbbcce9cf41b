// Package taskcache keeps terminal task results in Redis so repeated status
// queries for a finished task do not reach the provider.
package taskcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vyvo/animate/pkg/generation"
	"github.com/vyvo/animate/pkg/metrics"
)

// Checker resolves the current state of a task.
type Checker interface {
	Check(ctx context.Context, taskID string) (generation.Task, error)
}

// Cache wraps a Checker and remembers FAIL results and SUCCESS results that
// carry a video URL.
type Cache struct {
	redis  *redis.Client
	next   Checker
	ttl    time.Duration
	logger zerolog.Logger
}

// Dial connects to redisURL and returns a Cache in front of next.
func Dial(redisURL string, next Checker, ttl time.Duration, logger zerolog.Logger) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return New(client, next, ttl, logger), nil
}

// New returns a Cache using an existing client.
func New(client *redis.Client, next Checker, ttl time.Duration, logger zerolog.Logger) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{redis: client, next: next, ttl: ttl, logger: logger}
}

func taskKey(taskID string) string {
	return fmt.Sprintf("animate:task:%s", taskID)
}

// Check serves terminal results from Redis and delegates everything else.
// Redis failures never fail the query; the wrapped Checker is used instead.
func (c *Cache) Check(ctx context.Context, taskID string) (generation.Task, error) {
	id := strings.TrimSpace(taskID)
	if id == "" {
		return c.next.Check(ctx, taskID)
	}

	if task, ok := c.lookup(ctx, id); ok {
		return task, nil
	}

	task, err := c.next.Check(ctx, id)
	if err != nil {
		return task, err
	}
	if cacheable(task) {
		c.store(ctx, task)
	}
	return task, nil
}

// cacheable reports whether task is final. A SUCCESS without a video URL is
// still polled, so it must reach the provider again.
func cacheable(task generation.Task) bool {
	switch task.Status {
	case generation.StatusFail:
		return true
	case generation.StatusSuccess:
		return task.VideoURL != ""
	default:
		return false
	}
}

func (c *Cache) lookup(ctx context.Context, taskID string) (generation.Task, bool) {
	data, err := c.redis.Get(ctx, taskKey(taskID)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheLookup("miss")
		return generation.Task{}, false
	}
	if err != nil {
		metrics.RecordCacheLookup("error")
		c.logger.Warn().Err(err).Str("task_id", taskID).Msg("task cache read failed")
		return generation.Task{}, false
	}

	var task generation.Task
	if err := json.Unmarshal(data, &task); err != nil {
		metrics.RecordCacheLookup("error")
		c.logger.Warn().Err(err).Str("task_id", taskID).Msg("task cache entry is corrupt")
		return generation.Task{}, false
	}
	metrics.RecordCacheLookup("hit")
	return task, true
}

func (c *Cache) store(ctx context.Context, task generation.Task) {
	data, err := json.Marshal(task)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, taskKey(task.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("task_id", task.ID).Msg("task cache write failed")
	}
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	return c.redis.Close()
}
