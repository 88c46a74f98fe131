package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	appfinancing "github.com/loanbook/backend/internal/application/financing"
	"github.com/redis/go-redis/v9"
)

// RedisIndexSource implements IndexSource using Redis.
// This is suitable for distributed deployments where the correction run and
// the HTTP surface that receives index values run in different instances.
type RedisIndexSource struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisIndexSource creates a new Redis-based index source
func NewRedisIndexSource(cfg RedisConfig) (*RedisIndexSource, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisIndexSource{
		client:    client,
		keyPrefix: "index:latest:",
	}, nil
}

// NewRedisIndexSourceWithClient creates a source with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisIndexSourceWithClient(client *redis.Client, keyPrefix string) *RedisIndexSource {
	if keyPrefix == "" {
		keyPrefix = "index:latest:"
	}
	return &RedisIndexSource{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Latest returns the most recent stored value for an index code,
// or nil when no value has been stored yet
func (s *RedisIndexSource) Latest(ctx context.Context, code string) (*appfinancing.IndexValue, error) {
	key := s.keyPrefix + code

	payload, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read index value: %w", err)
	}

	var value appfinancing.IndexValue
	if err := json.Unmarshal(payload, &value); err != nil {
		return nil, fmt.Errorf("failed to decode index value: %w", err)
	}
	return &value, nil
}

// Store records an externally supplied index value. Only the most recent
// value per code is kept; the correction run decides whether it is newer
// than what a financing already absorbed.
func (s *RedisIndexSource) Store(ctx context.Context, value appfinancing.IndexValue) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode index value: %w", err)
	}

	key := s.keyPrefix + value.Code
	if err := s.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to store index value: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisIndexSource) Close() error {
	return s.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (s *RedisIndexSource) GetClient() *redis.Client {
	return s.client
}

// Ensure RedisIndexSource implements IndexSource
var _ appfinancing.IndexSource = (*RedisIndexSource)(nil)
