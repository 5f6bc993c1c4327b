package workerpool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ragnar-no-sleep/cynic/judgment"
)

// RedisOptions configures a RedisBackend's connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379").
	URL string

	// ConnectTimeout bounds the initial ping.
	ConnectTimeout time.Duration

	// TTL is how long a persisted task survives in Redis; 0 means no
	// expiry. Tasks are saved on submit and again when they reach a
	// terminal state, so a bounded TTL just caps how long a crashed pool
	// can recover history.
	TTL time.Duration
}

// RedisBackend persists task state to Redis so a task submitted to the
// pool can be recovered after a process restart, mirroring the teacher's
// queue.RedisClient key-per-entity convention.
type RedisBackend struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBackend connects to Redis and returns a Backend that saves tasks
// under the "cynic:task:<id>" key.
func NewRedisBackend(opts RedisOptions) (*RedisBackend, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisBackend{client: client, ttl: opts.TTL}, nil
}

func taskKey(id string) string {
	return fmt.Sprintf("cynic:task:%s", id)
}

// Save writes task state, overwriting any previous snapshot.
func (b *RedisBackend) Save(ctx context.Context, task judgment.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	if err := b.client.Set(ctx, taskKey(task.ID), data, b.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID, err)
	}
	return nil
}

// Load fetches a previously-saved task snapshot by ID.
func (b *RedisBackend) Load(ctx context.Context, id string) (judgment.Task, bool, error) {
	data, err := b.client.Get(ctx, taskKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return judgment.Task{}, false, nil
		}
		return judgment.Task{}, false, fmt.Errorf("failed to load task %s: %w", id, err)
	}
	var task judgment.Task
	if err := json.Unmarshal([]byte(data), &task); err != nil {
		return judgment.Task{}, false, fmt.Errorf("failed to unmarshal task %s: %w", id, err)
	}
	return task, true, nil
}

// Close closes the underlying Redis connection.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
