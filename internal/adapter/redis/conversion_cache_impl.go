package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/article-mirror/pkg/utils"
)

const conversionKeyPrefix = "conversion:"

// ConversionCacheImpl provides a concrete implementation for the ConversionCache interface using Redis.
type ConversionCacheImpl struct {
	client *redis.Client
}

// NewConversionCache creates a new instance of ConversionCacheImpl.
func NewConversionCache(client *redis.Client) *ConversionCacheImpl {
	return &ConversionCacheImpl{client: client}
}

// generateKey creates a consistent Redis key for a given URL by hashing it.
func (r *ConversionCacheImpl) generateKey(url string) string {
	return fmt.Sprintf("%s%s", conversionKeyPrefix, utils.HashURL(url))
}

// Get returns the cached conversion payload for url.
func (r *ConversionCacheImpl) Get(ctx context.Context, url string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.generateKey(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores payload under url. SETEX sets the value and its expiry atomically.
func (r *ConversionCacheImpl) Set(ctx context.Context, url string, payload []byte, expiry time.Duration) error {
	return r.client.SetEx(ctx, r.generateKey(url), payload, expiry).Err()
}

// Remove drops the cached payload, used for forced conversions.
func (r *ConversionCacheImpl) Remove(ctx context.Context, url string) error {
	return r.client.Del(ctx, r.generateKey(url)).Err()
}

// Ping checks the connection to Redis.
func (r *ConversionCacheImpl) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
