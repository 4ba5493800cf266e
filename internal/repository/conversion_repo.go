package repository

import (
	"context"
	"errors"

	"github.com/user/article-mirror/internal/entity"
)

// ErrNotFound is returned when a ledger has no record for the requested key.
var ErrNotFound = errors.New("record not found")

// ConversionRepository defines the interface for the conversion ledger.
type ConversionRepository interface {
	// Save stores the record for a URL. If the URL already exists, it should be updated.
	Save(ctx context.Context, record *entity.ConversionRecord) error
	// FindByURL retrieves the latest record for a specific URL, or ErrNotFound.
	FindByURL(ctx context.Context, url string) (*entity.ConversionRecord, error)
}
