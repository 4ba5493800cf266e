package repository

import (
	"context"
	"encoding/json"

	"github.com/user/article-mirror/internal/entity"
)

// CredentialExchanger trades application credentials for an access token.
type CredentialExchanger interface {
	Exchange(ctx context.Context) (*entity.CredentialGrant, error)
}

// PlatformRepository is the content platform's listing and detail API.
// Responses are passed through unchanged once the platform reports success.
type PlatformRepository interface {
	ListPublished(ctx context.Context, token string, offset, count int) (json.RawMessage, error)
	GetPublished(ctx context.Context, token string, articleID string) (json.RawMessage, error)
	ListDrafts(ctx context.Context, token string, offset, count int) (json.RawMessage, error)
}
