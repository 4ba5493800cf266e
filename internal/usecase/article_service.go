package usecase

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/user/article-mirror/internal/entity"
	"github.com/user/article-mirror/internal/repository"
)

// ArticleService lists and reads articles from the content platform.
type ArticleService interface {
	ListPublished(ctx context.Context, offset, count int) (json.RawMessage, error)
	GetPublished(ctx context.Context, articleID string) (json.RawMessage, error)
	ListDrafts(ctx context.Context, offset, count int) (json.RawMessage, error)
}

type articleService struct {
	tokens   TokenProvider
	platform repository.PlatformRepository
	logger   *zap.Logger
}

// NewArticleService creates an ArticleService authorized through tokens.
func NewArticleService(tokens TokenProvider, platform repository.PlatformRepository, logger *zap.Logger) ArticleService {
	return &articleService{
		tokens:   tokens,
		platform: platform,
		logger:   logger.With(zap.String("component", "article_service")),
	}
}

func (s *articleService) ListPublished(ctx context.Context, offset, count int) (json.RawMessage, error) {
	return s.withToken(ctx, func(token string) (json.RawMessage, error) {
		return s.platform.ListPublished(ctx, token, offset, count)
	})
}

func (s *articleService) GetPublished(ctx context.Context, articleID string) (json.RawMessage, error) {
	return s.withToken(ctx, func(token string) (json.RawMessage, error) {
		return s.platform.GetPublished(ctx, token, articleID)
	})
}

func (s *articleService) ListDrafts(ctx context.Context, offset, count int) (json.RawMessage, error) {
	return s.withToken(ctx, func(token string) (json.RawMessage, error) {
		return s.platform.ListDrafts(ctx, token, offset, count)
	})
}

// withToken runs call with the cached token. If the platform rejects the token, it is
// dropped and the call is retried once with a fresh one.
func (s *articleService) withToken(ctx context.Context, call func(token string) (json.RawMessage, error)) (json.RawMessage, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := call(token)
	if !errors.Is(err, entity.ErrTokenRejected) {
		return resp, err
	}

	s.logger.Warn("access token rejected by platform, refreshing", zap.Error(err))
	s.tokens.Invalidate()
	token, err = s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	return call(token)
}
