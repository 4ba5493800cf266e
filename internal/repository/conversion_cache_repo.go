package repository

import (
	"context"
	"time"
)

// ConversionCache stores finished conversions so repeated requests skip the pipeline.
type ConversionCache interface {
	// Get returns the cached payload for url, and false when nothing is cached.
	Get(ctx context.Context, url string) ([]byte, bool, error)
	// Set stores the payload for url with a specific expiry time.
	Set(ctx context.Context, url string, payload []byte, expiry time.Duration) error
	// Remove drops the cached payload, used for forced conversions.
	Remove(ctx context.Context, url string) error
}
