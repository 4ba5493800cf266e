package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/article-mirror/internal/entity"
	"github.com/user/article-mirror/internal/repository"
)

// ConversionRepoImpl provides a concrete implementation for the ConversionRepository interface using PostgreSQL.
type ConversionRepoImpl struct {
	db *pgxpool.Pool
}

// NewConversionRepo creates a new instance of ConversionRepoImpl.
func NewConversionRepo(db *pgxpool.Pool) *ConversionRepoImpl {
	return &ConversionRepoImpl{db: db}
}

// Save stores or updates the conversion record for a URL.
func (r *ConversionRepoImpl) Save(ctx context.Context, record *entity.ConversionRecord) error {
	query := `
		INSERT INTO conversions (url, title, assets_total, assets_localized, assets_failed, duration_ms, converted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (url) DO UPDATE SET
			title = EXCLUDED.title,
			assets_total = EXCLUDED.assets_total,
			assets_localized = EXCLUDED.assets_localized,
			assets_failed = EXCLUDED.assets_failed,
			duration_ms = EXCLUDED.duration_ms,
			converted_at = EXCLUDED.converted_at
		RETURNING id;
	`
	return r.db.QueryRow(ctx, query,
		record.URL,
		record.Title,
		record.AssetsTotal,
		record.AssetsLocalized,
		record.AssetsFailed,
		record.DurationMS,
		record.ConvertedAt,
	).Scan(&record.ID)
}

// FindByURL retrieves the conversion record for a specific URL.
// repository.ErrNotFound is returned if the URL was never converted.
func (r *ConversionRepoImpl) FindByURL(ctx context.Context, url string) (*entity.ConversionRecord, error) {
	query := `
		SELECT id, url, title, assets_total, assets_localized, assets_failed, duration_ms, converted_at
		FROM conversions
		WHERE url = $1;
	`
	var rec entity.ConversionRecord
	err := r.db.QueryRow(ctx, query, url).Scan(
		&rec.ID,
		&rec.URL,
		&rec.Title,
		&rec.AssetsTotal,
		&rec.AssetsLocalized,
		&rec.AssetsFailed,
		&rec.DurationMS,
		&rec.ConvertedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
