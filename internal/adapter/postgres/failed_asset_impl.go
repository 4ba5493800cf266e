package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/article-mirror/internal/entity"
)

// FailedAssetRepoImpl provides a concrete implementation for the FailedAssetRepository interface using PostgreSQL.
type FailedAssetRepoImpl struct {
	db *pgxpool.Pool
}

// NewFailedAssetRepo creates a new instance of FailedAssetRepoImpl.
func NewFailedAssetRepo(db *pgxpool.Pool) *FailedAssetRepoImpl {
	return &FailedAssetRepoImpl{db: db}
}

// SaveOrUpdate creates or updates a record for a failed asset.
// It increments the attempt_count on conflict.
func (r *FailedAssetRepoImpl) SaveOrUpdate(ctx context.Context, failed *entity.FailedAsset) error {
	query := `
		INSERT INTO failed_assets (url, kind, failure_reason, last_attempt_timestamp, attempt_count)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (url) DO UPDATE SET
			kind = EXCLUDED.kind,
			failure_reason = EXCLUDED.failure_reason,
			last_attempt_timestamp = EXCLUDED.last_attempt_timestamp,
			attempt_count = failed_assets.attempt_count + 1;
	`
	_, err := r.db.Exec(ctx, query,
		failed.URL,
		failed.Kind,
		failed.FailureReason,
		failed.LastAttemptTimestamp,
	)
	return err
}

// ListRecent retrieves the most recently failed assets.
func (r *FailedAssetRepoImpl) ListRecent(ctx context.Context, limit int) ([]*entity.FailedAsset, error) {
	query := `
		SELECT id, url, kind, failure_reason, last_attempt_timestamp, attempt_count
		FROM failed_assets
		ORDER BY last_attempt_timestamp DESC
		LIMIT $1;
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	failed := make([]*entity.FailedAsset, 0, limit)
	for rows.Next() {
		var fa entity.FailedAsset
		if err := rows.Scan(
			&fa.ID,
			&fa.URL,
			&fa.Kind,
			&fa.FailureReason,
			&fa.LastAttemptTimestamp,
			&fa.AttemptCount,
		); err != nil {
			return nil, err
		}
		failed = append(failed, &fa)
	}

	return failed, rows.Err()
}

// Delete removes a failed asset record, typically after a successful download.
func (r *FailedAssetRepoImpl) Delete(ctx context.Context, url string) error {
	query := `DELETE FROM failed_assets WHERE url = $1;`
	_, err := r.db.Exec(ctx, query, url)
	return err
}
