package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/user/article-mirror/internal/entity"
	"github.com/user/article-mirror/internal/repository"
	"github.com/user/article-mirror/pkg/metrics"
)

const (
	defaultSafetyMargin = 60 * time.Second
	exchangeTimeout     = 15 * time.Second
	refreshKey          = "token"
)

// TokenProvider hands out a valid platform access token.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// TokenCache holds the current access token and refreshes it on demand.
// Concurrent callers that find it expired share a single credential exchange.
type TokenCache struct {
	exchanger repository.CredentialExchanger
	margin    time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.RWMutex
	current entity.AccessToken
	group   singleflight.Group
}

// NewTokenCache creates a token cache. margin is subtracted from every advertised lifetime.
func NewTokenCache(exchanger repository.CredentialExchanger, margin time.Duration, logger *zap.Logger) *TokenCache {
	if margin < 0 {
		margin = defaultSafetyMargin
	}
	return &TokenCache{
		exchanger: exchanger,
		margin:    margin,
		logger:    logger.With(zap.String("component", "token_cache")),
		now:       time.Now,
	}
}

// Token returns the cached token while it is valid and exchanges credentials otherwise.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	if tok, ok := c.cached(); ok {
		return tok, nil
	}

	ch := c.group.DoChan(refreshKey, func() (interface{}, error) {
		// A caller that lost the race may arrive after the refresh finished.
		if tok, ok := c.cached(); ok {
			return tok, nil
		}
		return c.refresh(ctx)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate drops the cached token so the next call exchanges credentials again.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.current = entity.AccessToken{}
	c.mu.Unlock()
	c.logger.Info("access token invalidated")
}

func (c *TokenCache) cached() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current.ValidAt(c.now()) {
		return c.current.Value, true
	}
	return "", false
}

// refresh runs detached from the caller that started it, bounded by its own deadline.
func (c *TokenCache) refresh(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), exchangeTimeout)
	defer cancel()

	grant, err := c.exchanger.Exchange(ctx)
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		c.logger.Error("credential exchange failed", zap.Error(err))
		return "", err
	}

	token := entity.AccessToken{
		Value:     grant.AccessToken,
		ExpiresAt: c.now().Add(time.Duration(grant.ExpiresInSeconds)*time.Second - c.margin),
	}
	c.mu.Lock()
	c.current = token
	c.mu.Unlock()

	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
	c.logger.Info("access token refreshed", zap.Time("expires_at", token.ExpiresAt))
	return token.Value, nil
}
