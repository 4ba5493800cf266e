package contentsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/user/article-mirror/internal/adapter/httpfetch"
	"github.com/user/article-mirror/internal/entity"
	"github.com/user/article-mirror/internal/repository"
)

const opFetchArticle = "fetch_article"

// APISource fetches article HTML from the third-party conversion API.
type APISource struct {
	fetcher  repository.Fetcher
	endpoint string
}

// NewAPISource creates a source posting to endpoint.
func NewAPISource(fetcher repository.Fetcher, endpoint string) *APISource {
	return &APISource{fetcher: fetcher, endpoint: endpoint}
}

type convertRequest struct {
	URL string `json:"url"`
}

// convertResponse is discriminated by status_code: 200 carries data, anything else
// carries status_message.
type convertResponse struct {
	StatusCode    int             `json:"status_code"`
	StatusMessage string          `json:"status_message"`
	Data          json.RawMessage `json:"data"`
}

// Outcome is either Success or Failure.
type Outcome interface {
	outcome()
}

// Success carries the article payload of a status_code 200 answer.
type Success struct {
	Data entity.ArticlePayload
}

// Failure carries the provider's code and message of any other answer.
type Failure struct {
	Code    int
	Message string
}

func (Success) outcome() {}
func (Failure) outcome() {}

// Decode turns a raw response into its tagged outcome.
func Decode(raw []byte) (Outcome, error) {
	var resp convertResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode conversion response: %w", err)
	}
	if resp.StatusCode != 200 {
		return Failure{Code: resp.StatusCode, Message: resp.StatusMessage}, nil
	}
	var data entity.ArticlePayload
	if err := json.Unmarshal(resp.Data, &data); err != nil || data == nil {
		return nil, fmt.Errorf("decode conversion data: missing or malformed object")
	}
	return Success{Data: data}, nil
}

// Fetch asks the conversion API for the article at url. Every failure other than the
// caller's own cancellation or deadline is reported as an *entity.UpstreamError.
func (s *APISource) Fetch(ctx context.Context, url string) (entity.ArticlePayload, error) {
	var raw json.RawMessage
	if err := s.fetcher.PostJSON(ctx, s.endpoint, convertRequest{URL: url}, &raw); err != nil {
		return nil, fetchError(ctx, err)
	}
	out, err := Decode(raw)
	if err != nil {
		return nil, &entity.UpstreamError{Op: opFetchArticle, Message: err.Error()}
	}
	return outcomePayload(out)
}

func outcomePayload(out Outcome) (entity.ArticlePayload, error) {
	switch o := out.(type) {
	case Success:
		if _, err := o.Data.Content(); err != nil {
			return nil, &entity.UpstreamError{Op: opFetchArticle, Code: 200, Message: err.Error()}
		}
		return o.Data, nil
	case Failure:
		msg := o.Message
		if msg == "" {
			msg = fmt.Sprintf("status code %d", o.Code)
		}
		return nil, &entity.UpstreamError{Op: opFetchArticle, Code: o.Code, Message: msg}
	default:
		return nil, &entity.UpstreamError{Op: opFetchArticle, Message: fmt.Sprintf("unexpected outcome %T", out)}
	}
}

// fetchError maps a failed call onto an UpstreamError, keeping the provider's message
// when a non-2xx answer carried a decodable body.
func fetchError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", opFetchArticle, ctxErr)
	}
	var statusErr *httpfetch.StatusError
	if !errors.As(err, &statusErr) {
		return &entity.UpstreamError{Op: opFetchArticle, Message: err.Error()}
	}
	if out, decodeErr := Decode(statusErr.Body); decodeErr == nil {
		if f, ok := out.(Failure); ok && f.Message != "" {
			return &entity.UpstreamError{Op: opFetchArticle, Code: statusErr.Code, Message: f.Message}
		}
	}
	return &entity.UpstreamError{Op: opFetchArticle, Code: statusErr.Code, Message: statusErr.Error()}
}
