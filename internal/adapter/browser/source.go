package browser

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/article-mirror/internal/entity"
)

const opRenderArticle = "render_article"

// Source renders article pages in headless Chrome instead of calling the conversion API.
type Source struct {
	allocatorPool *sync.Pool
	timeout       time.Duration
	userAgent     string
	logger        *zap.Logger
}

// NewSource creates a browser-backed content source.
func NewSource(pageLoadTimeout time.Duration, userAgent string, logger *zap.Logger) *Source {
	s := &Source{
		timeout:   pageLoadTimeout,
		userAgent: userAgent,
		logger:    logger.With(zap.String("component", "browser_source")),
	}
	s.allocatorPool = &sync.Pool{
		New: func() interface{} {
			opts := append(chromedp.DefaultExecAllocatorOptions[:],
				chromedp.Flag("headless", true),
				chromedp.Flag("disable-gpu", true),
				chromedp.Flag("no-sandbox", true),
				chromedp.Flag("disable-dev-shm-usage", true),
				chromedp.UserAgent(s.userAgent),
			)
			allocCtx, _ := chromedp.NewExecAllocator(context.Background(), opts...)
			return allocCtx
		},
	}
	return s
}

// Fetch navigates to url and extracts the article from the rendered DOM.
func (s *Source) Fetch(ctx context.Context, url string) (entity.ArticlePayload, error) {
	allocCtx := s.allocatorPool.Get().(context.Context)
	defer s.allocatorPool.Put(allocCtx)

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	taskCtx, cancel = context.WithTimeout(taskCtx, s.timeout)
	defer cancel()

	// Stop the browser task when the caller gives up.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	// The first document response carries the page's HTTP status.
	var status atomic.Int64
	chromedp.ListenTarget(taskCtx, func(ev interface{}) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			status.CompareAndSwap(0, e.Response.Status)
		}
	})

	start := time.Now()
	var htmlContent string
	err := chromedp.Run(taskCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &htmlContent, chromedp.ByQuery),
	)
	if err != nil {
		s.logger.Warn("failed to render article", zap.String("url", url), zap.Error(err))
		return nil, &entity.UpstreamError{Op: opRenderArticle, Message: err.Error()}
	}
	if code := int(status.Load()); code >= 400 {
		return nil, &entity.UpstreamError{Op: opRenderArticle, Code: code, Message: fmt.Sprintf("page returned status %d", code)}
	}

	payload, err := ExtractArticle(url, htmlContent)
	if err != nil {
		return nil, &entity.UpstreamError{Op: opRenderArticle, Message: fmt.Sprintf("extract article: %v", err)}
	}
	s.logger.Info("rendered article",
		zap.String("url", url),
		zap.String("title", payload.Title()),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return payload, nil
}
