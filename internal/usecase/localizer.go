package usecase

import (
	"context"
	"errors"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/article-mirror/internal/entity"
	"github.com/user/article-mirror/internal/repository"
	"github.com/user/article-mirror/pkg/metrics"
)

const defaultExtension = ".jpg"

// AssetLocalizer mirrors one remote asset and reports the outcome. It never fails:
// problems are reported through the returned asset's status.
type AssetLocalizer interface {
	Localize(ctx context.Context, ref entity.AssetReference) entity.LocalizedAsset
}

type localizer struct {
	fetcher    repository.Fetcher
	storage    repository.AssetStorage
	failedRepo repository.FailedAssetRepository
	domain     string
	logger     *zap.Logger
}

// NewLocalizer creates an AssetLocalizer publishing files under {domain}/images/.
// failedRepo may be nil, in which case failures are only logged and counted.
func NewLocalizer(
	fetcher repository.Fetcher,
	storage repository.AssetStorage,
	domain string,
	failedRepo repository.FailedAssetRepository,
	logger *zap.Logger,
) AssetLocalizer {
	return &localizer{
		fetcher:    fetcher,
		storage:    storage,
		failedRepo: failedRepo,
		domain:     strings.TrimRight(domain, "/"),
		logger:     logger.With(zap.String("component", "localizer")),
	}
}

func (l *localizer) Localize(ctx context.Context, ref entity.AssetReference) entity.LocalizedAsset {
	asset := entity.LocalizedAsset{
		ID:        uuid.NewString(),
		Extension: Extension(ref.SourceURL, ref.TypeHint),
	}
	filename := asset.ID + asset.Extension

	if err := l.mirror(ctx, ref.Kind, ref.SourceURL, filename); err != nil {
		asset.Status = entity.AssetFailed
		asset.FailureReason = err.Error()
		l.recordFailure(ctx, ref, err)
		return asset
	}

	asset.Status = entity.AssetLocalized
	asset.PublicURL = l.domain + "/images/" + filename
	metrics.AssetsLocalizedTotal.WithLabelValues(ref.Kind.String(), "success").Inc()
	l.forgetFailure(ctx, ref.SourceURL)
	return asset
}

func (l *localizer) mirror(ctx context.Context, kind entity.AssetKind, src, filename string) error {
	start := time.Now()
	data, err := l.fetcher.GetBytes(ctx, src)
	metrics.AssetFetchDuration.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		return &entity.AssetFetchError{URL: src, Err: err}
	}
	if _, err := l.storage.Write(ctx, filename, data); err != nil {
		return &entity.StorageError{Filename: filename, Err: err}
	}
	return nil
}

func (l *localizer) recordFailure(ctx context.Context, ref entity.AssetReference, err error) {
	metrics.AssetsLocalizedTotal.WithLabelValues(ref.Kind.String(), "failure").Inc()
	l.logger.Warn("failed to localize asset",
		zap.String("url", ref.SourceURL),
		zap.Stringer("kind", ref.Kind),
		zap.Bool("storage", errors.Is(err, entity.ErrStorage)),
		zap.Error(err),
	)
	if l.failedRepo == nil {
		return
	}
	failed := &entity.FailedAsset{
		URL:                  ref.SourceURL,
		Kind:                 ref.Kind.String(),
		FailureReason:        err.Error(),
		LastAttemptTimestamp: time.Now(),
	}
	// Ledger writes outlive the conversion deadline.
	ledgerCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := l.failedRepo.SaveOrUpdate(ledgerCtx, failed); err != nil {
		l.logger.Warn("failed to record failed asset", zap.String("url", ref.SourceURL), zap.Error(err))
	}
}

func (l *localizer) forgetFailure(ctx context.Context, src string) {
	if l.failedRepo == nil {
		return
	}
	if err := l.failedRepo.Delete(ctx, src); err != nil {
		l.logger.Warn("failed to delete failed asset record", zap.String("url", src), zap.Error(err))
	}
}

// wxFormats are the wx_fmt values accepted as a file extension.
var wxFormats = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "webp": true, "bmp": true, "svg": true,
}

// Extension picks the file extension for a mirrored asset: an svg type hint wins,
// then the URL path extension, then a known image format in wx_fmt, then .jpg.
func Extension(rawURL, typeHint string) string {
	if strings.EqualFold(typeHint, "svg") {
		return ".svg"
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultExtension
	}
	if ext := path.Ext(u.Path); isPlainExtension(ext) {
		return strings.ToLower(ext)
	}
	if format := strings.ToLower(u.Query().Get("wx_fmt")); wxFormats[format] {
		return "." + format
	}
	return defaultExtension
}

// isPlainExtension accepts ".png"-like suffixes: a dot followed by 1-5 alphanumerics.
func isPlainExtension(ext string) bool {
	if len(ext) < 2 || len(ext) > 6 || ext[0] != '.' {
		return false
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
