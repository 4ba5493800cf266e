package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/user/article-mirror/internal/entity"
	"github.com/user/article-mirror/internal/repository"
	"github.com/user/article-mirror/pkg/metrics"
)

var (
	// ErrLedgerUnavailable is returned by ledger queries when no database is configured.
	ErrLedgerUnavailable = errors.New("conversion ledger is not configured")
)

const (
	defaultConvertTimeout = 120 * time.Second
	defaultCacheTTL       = 48 * time.Hour
	maxFailedAssetsLimit  = 200
)

// Converter turns an article URL into its payload with every asset mirrored locally.
type Converter interface {
	Convert(ctx context.Context, url string, force bool) (entity.ArticlePayload, error)
	Status(ctx context.Context, url string) (*entity.ConversionRecord, error)
	FailedAssets(ctx context.Context, limit int) ([]*entity.FailedAsset, error)
}

// ConverterConfig tunes the conversion pipeline.
type ConverterConfig struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

type converter struct {
	source         repository.ContentSource
	rewriter       Rewriter
	cache          repository.ConversionCache
	conversionRepo repository.ConversionRepository
	failedRepo     repository.FailedAssetRepository
	config         ConverterConfig
	logger         *zap.Logger
}

// NewConverter creates a Converter. cache, conversionRepo and failedRepo are optional.
func NewConverter(
	source repository.ContentSource,
	rewriter Rewriter,
	cache repository.ConversionCache,
	conversionRepo repository.ConversionRepository,
	failedRepo repository.FailedAssetRepository,
	config ConverterConfig,
	logger *zap.Logger,
) Converter {
	if config.Timeout <= 0 {
		config.Timeout = defaultConvertTimeout
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = defaultCacheTTL
	}
	return &converter{
		source:         source,
		rewriter:       rewriter,
		cache:          cache,
		conversionRepo: conversionRepo,
		failedRepo:     failedRepo,
		config:         config,
		logger:         logger.With(zap.String("component", "converter")),
	}
}

// Convert fetches the article at url, mirrors its assets and returns the payload with
// the content field rewritten. A cached result is returned unless force is set.
func (c *converter) Convert(ctx context.Context, url string, force bool) (entity.ArticlePayload, error) {
	if payload, ok := c.cached(ctx, url, force); ok {
		metrics.ConversionsTotal.WithLabelValues("success", "cache").Inc()
		return payload, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	start := time.Now()
	payload, report, err := c.convert(ctx, url)
	duration := time.Since(start)
	metrics.ConversionDuration.Observe(duration.Seconds())
	if err != nil {
		metrics.ConversionsTotal.WithLabelValues("failure", "upstream").Inc()
		c.logger.Error("conversion failed", zap.String("url", url), zap.Error(err))
		return nil, err
	}
	metrics.ConversionsTotal.WithLabelValues("success", "upstream").Inc()

	c.store(ctx, url, payload)
	c.record(ctx, &entity.ConversionRecord{
		URL:             url,
		Title:           payload.Title(),
		AssetsTotal:     report.Total,
		AssetsLocalized: report.Localized,
		AssetsFailed:    report.Failed,
		DurationMS:      int(duration.Milliseconds()),
		ConvertedAt:     time.Now(),
	})

	c.logger.Info("article converted",
		zap.String("url", url),
		zap.String("title", payload.Title()),
		zap.Int("assets_total", report.Total),
		zap.Int("assets_failed", report.Failed),
		zap.Int64("duration_ms", duration.Milliseconds()),
	)
	return payload, nil
}

func (c *converter) convert(ctx context.Context, url string) (entity.ArticlePayload, entity.RewriteReport, error) {
	article, err := c.source.Fetch(ctx, url)
	if err != nil {
		return nil, entity.RewriteReport{}, err
	}
	content, err := article.Content()
	if err != nil {
		return nil, entity.RewriteReport{}, &entity.UpstreamError{Op: "fetch_article", Message: err.Error()}
	}
	rewritten, report, err := c.rewriter.Rewrite(ctx, content)
	if err != nil {
		return nil, report, err
	}
	payload, err := article.WithContent(rewritten)
	if err != nil {
		return nil, report, fmt.Errorf("failed to encode rewritten content: %w", err)
	}
	return payload, report, nil
}

// cached looks the url up in the conversion cache. Cache problems never fail a conversion.
func (c *converter) cached(ctx context.Context, url string, force bool) (entity.ArticlePayload, bool) {
	if c.cache == nil {
		return nil, false
	}
	if force {
		if err := c.cache.Remove(ctx, url); err != nil {
			c.logger.Warn("failed to drop cached conversion", zap.String("url", url), zap.Error(err))
		}
		return nil, false
	}
	raw, ok, err := c.cache.Get(ctx, url)
	if err != nil {
		c.logger.Warn("failed to read conversion cache", zap.String("url", url), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var payload entity.ArticlePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.logger.Warn("discarding malformed cached conversion", zap.String("url", url), zap.Error(err))
		return nil, false
	}
	c.logger.Debug("conversion served from cache", zap.String("url", url))
	return payload, true
}

func (c *converter) store(ctx context.Context, url string, payload entity.ArticlePayload) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		c.logger.Warn("failed to encode conversion for cache", zap.String("url", url), zap.Error(err))
		return
	}
	if err := c.cache.Set(context.WithoutCancel(ctx), url, raw, c.config.CacheTTL); err != nil {
		c.logger.Warn("failed to cache conversion", zap.String("url", url), zap.Error(err))
	}
}

func (c *converter) record(ctx context.Context, rec *entity.ConversionRecord) {
	if c.conversionRepo == nil {
		return
	}
	if err := c.conversionRepo.Save(context.WithoutCancel(ctx), rec); err != nil {
		c.logger.Warn("failed to record conversion", zap.String("url", rec.URL), zap.Error(err))
	}
}

// Status returns the ledger entry of the last conversion of url.
func (c *converter) Status(ctx context.Context, url string) (*entity.ConversionRecord, error) {
	if c.conversionRepo == nil {
		return nil, ErrLedgerUnavailable
	}
	return c.conversionRepo.FindByURL(ctx, url)
}

// FailedAssets lists the most recent assets that could not be mirrored.
func (c *converter) FailedAssets(ctx context.Context, limit int) ([]*entity.FailedAsset, error) {
	if c.failedRepo == nil {
		return nil, ErrLedgerUnavailable
	}
	if limit <= 0 || limit > maxFailedAssetsLimit {
		limit = maxFailedAssetsLimit
	}
	return c.failedRepo.ListRecent(ctx, limit)
}
