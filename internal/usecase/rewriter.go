package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/article-mirror/internal/document"
	"github.com/user/article-mirror/internal/entity"
)

// Rewriter localizes every remote asset of an article and returns the rewritten HTML.
type Rewriter interface {
	Rewrite(ctx context.Context, html string) (string, entity.RewriteReport, error)
}

type rewriter struct {
	localizer AssetLocalizer
	logger    *zap.Logger
}

// NewRewriter creates a Rewriter backed by localizer.
func NewRewriter(localizer AssetLocalizer, logger *zap.Logger) Rewriter {
	return &rewriter{
		localizer: localizer,
		logger:    logger.With(zap.String("component", "rewriter")),
	}
}

// Rewrite parses html, mirrors every discovered asset concurrently, and applies the
// successful results once all of them have finished. Failed assets keep their original
// references. Video snippet tags and unconverted video embeds are always removed.
func (r *rewriter) Rewrite(ctx context.Context, html string) (string, entity.RewriteReport, error) {
	start := time.Now()
	doc, err := document.ParseString(html)
	if err != nil {
		return "", entity.RewriteReport{}, fmt.Errorf("failed to parse article html: %w", err)
	}

	refs := document.Discover(doc)
	results := make([]entity.LocalizedAsset, len(refs))

	var wg sync.WaitGroup
	for i, ref := range refs {
		wg.Add(1)
		go func(i int, ref entity.AssetReference) {
			defer wg.Done()
			results[i] = r.localizer.Localize(ctx, ref)
		}(i, ref)
	}
	wg.Wait()

	report := entity.RewriteReport{Total: len(refs)}
	reps := make([]document.Replacement, 0, len(refs))
	for i, res := range results {
		if !res.OK() {
			report.Failed++
			continue
		}
		report.Localized++
		reps = append(reps, document.Replacement{Ref: refs[i], PublicURL: res.PublicURL})
	}

	if err := document.Apply(doc, reps); err != nil {
		return "", report, fmt.Errorf("failed to apply localized assets: %w", err)
	}
	stripped := document.StripDisallowed(doc)

	out, err := doc.BodyHTML()
	if err != nil {
		return "", report, fmt.Errorf("failed to render article html: %w", err)
	}

	r.logger.Info("article rewritten",
		zap.Int("assets_total", report.Total),
		zap.Int("assets_localized", report.Localized),
		zap.Int("assets_failed", report.Failed),
		zap.Int("elements_stripped", stripped),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return out, report, nil
}
