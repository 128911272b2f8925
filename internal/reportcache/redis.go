package reportcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultKeyPrefix namespaces report keys.
	DefaultKeyPrefix  = "news_xlsx:"
	connectionTimeout = 5 * time.Second
)

// ErrEmptyAddress is returned when the Redis address is not configured.
var ErrEmptyAddress = errors.New("redis address is required")

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address  string
	Password string //nolint:gosec // Redis connection config
	DB       int
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// RedisStore keeps reports in Redis with a TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(jobID string) string {
	return s.prefix + jobID
}

// Put stores r under the job id for ttl.
func (s *RedisStore) Put(ctx context.Context, jobID string, r Report, ttl time.Duration) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := s.client.Set(ctx, s.key(jobID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("store report %s: %w", jobID, err)
	}
	return nil
}

// Get loads a report or returns ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, jobID string) (Report, error) {
	payload, err := s.client.Get(ctx, s.key(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Report{}, ErrNotFound
	}
	if err != nil {
		return Report{}, fmt.Errorf("load report %s: %w", jobID, err)
	}

	var r Report
	if err := json.Unmarshal(payload, &r); err != nil {
		return Report{}, fmt.Errorf("decode report %s: %w", jobID, err)
	}
	return r, nil
}
