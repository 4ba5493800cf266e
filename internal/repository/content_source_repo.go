package repository

import (
	"context"

	"github.com/user/article-mirror/internal/entity"
)

// ContentSource defines the contract for obtaining raw article HTML for a URL.
type ContentSource interface {
	// Fetch returns the article payload for url. A non-success answer from the
	// provider is reported as *entity.UpstreamError.
	Fetch(ctx context.Context, url string) (entity.ArticlePayload, error)
}
