package jobcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vietddude/runrgateway/pkg/gateway/domain"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	JobTTL   time.Duration `yaml:"job_ttl"`
}

// Redis is a Cache shared between processes using the same gateway.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisFromClient(rdb, cfg.JobTTL), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(rdb *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Redis{rdb: rdb, ttl: ttl}
}

func jobKey(jobID string) string {
	return fmt.Sprintf("runrgateway:job:%s", jobID)
}

func (c *Redis) Get(ctx context.Context, jobID string) (*domain.Job, bool, error) {
	data, err := c.rdb.Get(ctx, jobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get job %s: %w", jobID, err)
	}

	var job domain.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, false, fmt.Errorf("decode cached job %s: %w", jobID, err)
	}
	job.ID = jobID
	return &job, true, nil
}

func (c *Redis) Put(ctx context.Context, job *domain.Job) error {
	if job == nil || !job.Status.IsTerminal() {
		return nil
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	if err := c.rdb.Set(ctx, jobKey(job.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set job %s: %w", job.ID, err)
	}
	return nil
}

func (c *Redis) Close() error {
	return c.rdb.Close()
}
