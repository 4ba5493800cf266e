package repository

import (
	"context"

	"github.com/user/article-mirror/internal/entity"
)

// FailedAssetRepository defines the interface for recording assets that could not be mirrored.
type FailedAssetRepository interface {
	// SaveOrUpdate creates or updates a record for a failed asset.
	SaveOrUpdate(ctx context.Context, failed *entity.FailedAsset) error
	// ListRecent retrieves the most recently failed assets.
	ListRecent(ctx context.Context, limit int) ([]*entity.FailedAsset, error)
	// Delete removes a failed asset record, typically after a successful download.
	Delete(ctx context.Context, url string) error
}
