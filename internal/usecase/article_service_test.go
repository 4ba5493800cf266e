package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/article-mirror/internal/entity"
)

type fakeTokens struct {
	tokens      []string
	served      int
	invalidated int
	err         error
}

func (f *fakeTokens) Token(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	tok := f.tokens[f.served]
	if f.served < len(f.tokens)-1 {
		f.served++
	}
	return tok, nil
}

func (f *fakeTokens) Invalidate() { f.invalidated++ }

// fakePlatform accepts only the "fresh" token.
type fakePlatform struct {
	seen []string
}

func (p *fakePlatform) answer(token string) (json.RawMessage, error) {
	p.seen = append(p.seen, token)
	if token != "fresh" {
		return nil, &entity.UpstreamError{Op: "draft/batchget", Code: 42001, Message: "access_token expired", TokenRejected: true}
	}
	return json.RawMessage(`{"item":[],"total_count":0}`), nil
}

func (p *fakePlatform) ListPublished(_ context.Context, token string, _, _ int) (json.RawMessage, error) {
	return p.answer(token)
}

func (p *fakePlatform) GetPublished(_ context.Context, token string, _ string) (json.RawMessage, error) {
	return p.answer(token)
}

func (p *fakePlatform) ListDrafts(_ context.Context, token string, _, _ int) (json.RawMessage, error) {
	return p.answer(token)
}

func TestArticleService_PassesThrough(t *testing.T) {
	platform := &fakePlatform{}
	svc := NewArticleService(&fakeTokens{tokens: []string{"fresh"}}, platform, zap.NewNop())

	resp, err := svc.ListPublished(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.JSONEq(t, `{"item":[],"total_count":0}`, string(resp))
	assert.Equal(t, []string{"fresh"}, platform.seen)
}

func TestArticleService_RetriesOnceAfterTokenRejected(t *testing.T) {
	platform := &fakePlatform{}
	tokens := &fakeTokens{tokens: []string{"stale", "fresh"}}
	svc := NewArticleService(tokens, platform, zap.NewNop())

	_, err := svc.ListDrafts(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale", "fresh"}, platform.seen)
	assert.Equal(t, 1, tokens.invalidated)
}

func TestArticleService_GivesUpAfterSecondRejection(t *testing.T) {
	platform := &fakePlatform{}
	tokens := &fakeTokens{tokens: []string{"stale"}}
	svc := NewArticleService(tokens, platform, zap.NewNop())

	_, err := svc.GetPublished(context.Background(), "id-1")
	assert.ErrorIs(t, err, entity.ErrTokenRejected)
	assert.Len(t, platform.seen, 2)
}

func TestArticleService_AuthFailure(t *testing.T) {
	platform := &fakePlatform{}
	svc := NewArticleService(&fakeTokens{err: &entity.AuthError{Message: "invalid appid"}}, platform, zap.NewNop())

	_, err := svc.ListPublished(context.Background(), 0, 10)
	assert.ErrorIs(t, err, entity.ErrAuth)
	assert.Empty(t, platform.seen)
}
