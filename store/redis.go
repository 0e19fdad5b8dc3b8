package store

import (
	"context"
	"errors"
	"time"

	"github.com/ZaguanLabs/vertrans"
	"github.com/redis/go-redis/v9"
)

// Redis is a Redis-backed translation store. Each key is one hash mapping
// field names to translated text.
type Redis struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// RedisConfig holds configuration for the Redis store.
type RedisConfig struct {
	URL       string // Redis connection URL (e.g., "redis://localhost:6379")
	TTL       int    // TTL in seconds (0 = keep forever)
	KeyPrefix string // Prefix for all keys (default: "vertrans:")
}

const defaultKeyPrefix = "vertrans:"

// NewRedis creates a new Redis store with the given configuration.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewRedisFromClient(client, cfg.TTL, cfg.KeyPrefix), nil
}

// NewRedisFromClient creates a Redis store from an existing Redis client.
func NewRedisFromClient(client *redis.Client, ttlSeconds int, keyPrefix string) *Redis {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	if ttlSeconds <= 0 {
		ttl = 0
	}

	return &Redis{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
	}
}

func (r *Redis) fieldsKey(key vertrans.StoreKey) string {
	return r.keyPrefix + "t:" + key.String()
}

func (r *Redis) statusKey(key vertrans.StoreKey) string {
	return r.keyPrefix + "s:" + key.String()
}

// Upsert stores text for fieldName under key.
func (r *Redis) Upsert(ctx context.Context, key vertrans.StoreKey, fieldName, text string) error {
	key = key.Normalize()
	if err := vertrans.ValidateUpsert(key, fieldName); err != nil {
		return err
	}

	hkey := r.fieldsKey(key)
	if err := r.client.HSet(ctx, hkey, fieldName, text).Err(); err != nil {
		return storeError("upsert", err)
	}
	if r.ttl > 0 {
		if err := r.client.Expire(ctx, hkey, r.ttl).Err(); err != nil {
			return storeError("expire", err)
		}
	}
	return nil
}

// Get returns all fields stored under key. A missing key yields an empty map.
func (r *Redis) Get(ctx context.Context, key vertrans.StoreKey) (map[string]string, error) {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return nil, err
	}

	fields, err := r.client.HGetAll(ctx, r.fieldsKey(key)).Result()
	if err != nil {
		return nil, storeError("get", err)
	}
	if fields == nil {
		fields = map[string]string{}
	}
	return fields, nil
}

// SetStatus records the translation outcome for key.
func (r *Redis) SetStatus(ctx context.Context, key vertrans.StoreKey, status vertrans.TranslationStatus) error {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.statusKey(key), string(status), r.ttl).Err(); err != nil {
		return storeError("set status", err)
	}
	return nil
}

// Status returns the recorded outcome for key.
func (r *Redis) Status(ctx context.Context, key vertrans.StoreKey) (vertrans.TranslationStatus, error) {
	key = key.Normalize()
	val, err := r.client.Get(ctx, r.statusKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", &vertrans.NotFoundError{Kind: "translation status", Name: key.String()}
	}
	if err != nil {
		return "", storeError("status", err)
	}
	return vertrans.TranslationStatus(val), nil
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Ping tests the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Verify Redis implements Store
var _ Store = (*Redis)(nil)
