package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aescanero/dagsys/pkg/ports"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// KeyPrefix prefixes every key written by the store.
const KeyPrefix = "dagsys:kv:"

// Store implements KeyValueStore using Redis. Records are stored as JSON.
type Store struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewStore creates a new Redis store. A zero ttl keeps keys forever.
func NewStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// Ping checks the connection to Redis
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

// Put stores rec under rec.Key with the configured TTL
func (s *Store) Put(ctx context.Context, rec ports.Record) error {
	if rec.Key == "" {
		return fmt.Errorf("key is required")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := s.client.Set(ctx, getKey(rec.Key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	s.logger.Debug("record saved", zap.String("key", rec.Key))
	return nil
}

// Get retrieves the record stored under key
func (s *Store) Get(ctx context.Context, key string) (ports.Record, error) {
	data, err := s.client.Get(ctx, getKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ports.Record{}, fmt.Errorf("%w: %s", ports.ErrNotFound, key)
		}
		return ports.Record{}, fmt.Errorf("failed to get record: %w", err)
	}

	var rec ports.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return ports.Record{}, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return rec, nil
}

// Delete removes key
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, getKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	s.logger.Debug("record deleted", zap.String("key", key))
	return nil
}

// List returns all stored keys in lexical order
func (s *Store) List(ctx context.Context) ([]string, error) {
	var cursor uint64
	var keys []string

	for {
		var batch []string
		var err error

		batch, cursor, err = s.client.Scan(ctx, cursor, KeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}

		for _, k := range batch {
			if len(k) > len(KeyPrefix) {
				keys = append(keys, k[len(KeyPrefix):])
			}
		}

		if cursor == 0 {
			break
		}
	}

	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op; the Redis client is owned by the caller
func (s *Store) Close() error {
	return nil
}

// getKey returns the Redis key for a record key
func getKey(key string) string {
	return KeyPrefix + key
}
