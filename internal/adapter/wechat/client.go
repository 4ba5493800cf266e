package wechat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/user/article-mirror/internal/entity"
	"github.com/user/article-mirror/internal/repository"
)

// Error codes the platform returns for an access token it no longer accepts.
const (
	codeInvalidCredential = 40001
	codeInvalidToken      = 40014
	codeTokenExpired      = 42001
)

// Client talks to the content platform's credential, publish and draft APIs.
type Client struct {
	fetcher   repository.Fetcher
	baseURL   string
	appID     string
	appSecret string
}

// NewClient creates a platform client rooted at baseURL (e.g. https://api.weixin.qq.com).
func NewClient(fetcher repository.Fetcher, baseURL, appID, appSecret string) *Client {
	return &Client{
		fetcher:   fetcher,
		baseURL:   strings.TrimRight(baseURL, "/"),
		appID:     appID,
		appSecret: appSecret,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	ErrCode     int    `json:"errcode"`
	ErrMsg      string `json:"errmsg"`
}

// Exchange trades the application id and secret for an access token.
func (c *Client) Exchange(ctx context.Context) (*entity.CredentialGrant, error) {
	q := url.Values{}
	q.Set("grant_type", "client_credential")
	q.Set("appid", c.appID)
	q.Set("secret", c.appSecret)

	var resp tokenResponse
	if err := c.fetcher.GetJSON(ctx, c.baseURL+"/cgi-bin/token?"+q.Encode(), &resp); err != nil {
		return nil, &entity.AuthError{Message: "credential exchange failed", Err: err}
	}
	if resp.AccessToken == "" {
		msg := resp.ErrMsg
		if msg == "" {
			msg = "response has no access_token"
		}
		return nil, &entity.AuthError{Message: msg}
	}
	return &entity.CredentialGrant{
		AccessToken:      resp.AccessToken,
		ExpiresInSeconds: resp.ExpiresIn,
	}, nil
}

// envelope is the discriminator every platform response carries: errcode absent or 0
// means success.
type envelope struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

type listRequest struct {
	Offset    int `json:"offset"`
	Count     int `json:"count"`
	NoContent int `json:"no_content"`
}

// ListPublished returns a page of published articles.
func (c *Client) ListPublished(ctx context.Context, token string, offset, count int) (json.RawMessage, error) {
	return c.post(ctx, "freepublish/batchget", token, listRequest{Offset: offset, Count: count})
}

// GetPublished returns one published article.
func (c *Client) GetPublished(ctx context.Context, token string, articleID string) (json.RawMessage, error) {
	return c.post(ctx, "freepublish/getarticle", token, map[string]string{"article_id": articleID})
}

// ListDrafts returns a page of drafts.
func (c *Client) ListDrafts(ctx context.Context, token string, offset, count int) (json.RawMessage, error) {
	return c.post(ctx, "draft/batchget", token, listRequest{Offset: offset, Count: count})
}

func (c *Client) post(ctx context.Context, op, token string, body any) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/cgi-bin/%s?access_token=%s", c.baseURL, op, url.QueryEscape(token))

	var raw json.RawMessage
	if err := c.fetcher.PostJSON(ctx, endpoint, body, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	if env.ErrCode != 0 {
		return nil, &entity.UpstreamError{
			Op:            op,
			Code:          env.ErrCode,
			Message:       env.ErrMsg,
			TokenRejected: tokenRejected(env.ErrCode),
		}
	}
	return raw, nil
}

func tokenRejected(code int) bool {
	switch code {
	case codeInvalidCredential, codeInvalidToken, codeTokenExpired:
		return true
	}
	return false
}
