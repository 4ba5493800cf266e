package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/article-mirror/internal/entity"
	"github.com/user/article-mirror/pkg/metrics"
)

const testDomain = "https://mp.kloud.cn"

func TestExtension(t *testing.T) {
	tests := []struct {
		name string
		url  string
		hint string
		want string
	}{
		{"path extension", "https://a.com/x/pic.png", "", ".png"},
		{"query ignored", "https://a.com/pic.gif?w=100", "", ".gif"},
		{"wx_fmt fallback", "https://mmbiz.qpic.cn/mmbiz_png/abc/640?wx_fmt=png&from=appmsg", "", ".png"},
		{"wx_fmt uppercase", "https://mmbiz.qpic.cn/abc/640?wx_fmt=WEBP", "", ".webp"},
		{"unknown wx_fmt", "https://mmbiz.qpic.cn/abc/640?wx_fmt=other", "", ".jpg"},
		{"wx_fmt html", "https://mmbiz.qpic.cn/abc/640?wx_fmt=html", "", ".jpg"},
		{"wx_fmt exe", "https://x/y/640?wx_fmt=exe", "", ".jpg"},
		{"default", "https://mmbiz.qpic.cn/abc/0", "", ".jpg"},
		{"svg hint wins", "https://mmbiz.qpic.cn/abc/640?wx_fmt=png", "svg", ".svg"},
		{"uppercase normalised", "https://a.com/PIC.JPEG", "", ".jpeg"},
		{"bogus extension", "https://a.com/file.tar-gz", "", ".jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extension(tt.url, tt.hint))
		})
	}
}

func TestLocalize_Success(t *testing.T) {
	src := "https://mmbiz.qpic.cn/a/640?wx_fmt=png"
	fetcher := newFakeFetcher(map[string][]byte{src: []byte("png-bytes")})
	storage := newMemStorage()
	ledger := newMemFailedRepo()
	l := NewLocalizer(fetcher, storage, testDomain+"/", ledger, zap.NewNop())

	asset := l.Localize(context.Background(), entity.AssetReference{Kind: entity.AssetImage, SourceURL: src})

	require.True(t, asset.OK())
	assert.Equal(t, ".png", asset.Extension)
	assert.Equal(t, testDomain+"/images/"+asset.ID+".png", asset.PublicURL)
	assert.Equal(t, []byte("png-bytes"), storage.files[asset.ID+".png"])
	assert.Equal(t, []string{src}, ledger.deleted)
}

func TestLocalize_FetchDurationLabelledByKind(t *testing.T) {
	assets := make(map[string][]byte)
	for i := 0; i < 10; i++ {
		assets[fmt.Sprintf("https://cdn%d.example.com/a.png", i)] = []byte("x")
	}
	l := NewLocalizer(newFakeFetcher(assets), newMemStorage(), testDomain, nil, zap.NewNop())
	for src := range assets {
		l.Localize(context.Background(), entity.AssetReference{Kind: entity.AssetImage, SourceURL: src})
	}

	// One series per asset kind, however many hosts were fetched.
	assert.LessOrEqual(t, testutil.CollectAndCount(metrics.AssetFetchDuration), 3)
}

func TestLocalize_FetchFailureIsRecovered(t *testing.T) {
	src := "https://mmbiz.qpic.cn/missing.jpg"
	storage := newMemStorage()
	ledger := newMemFailedRepo()
	l := NewLocalizer(newFakeFetcher(nil), storage, testDomain, ledger, zap.NewNop())

	ref := entity.AssetReference{Kind: entity.AssetStyleBackground, SourceURL: src}
	asset := l.Localize(context.Background(), ref)
	asset = l.Localize(context.Background(), ref)

	assert.False(t, asset.OK())
	assert.Empty(t, asset.PublicURL)
	assert.Contains(t, asset.FailureReason, "404")
	assert.Zero(t, storage.count())

	require.Contains(t, ledger.records, src)
	assert.Equal(t, "style_background", ledger.records[src].Kind)
	assert.Equal(t, 2, ledger.records[src].AttemptCount)
}

func TestLocalize_StorageFailureIsRecovered(t *testing.T) {
	src := "https://a.com/pic.png"
	storage := newMemStorage()
	storage.err = errors.New("disk full")
	l := NewLocalizer(newFakeFetcher(map[string][]byte{src: []byte("x")}), storage, testDomain, nil, zap.NewNop())

	asset := l.Localize(context.Background(), entity.AssetReference{Kind: entity.AssetImage, SourceURL: src})

	assert.Equal(t, entity.AssetFailed, asset.Status)
	assert.Contains(t, asset.FailureReason, "disk full")
	assert.True(t, strings.HasPrefix(asset.FailureReason, entity.ErrStorage.Error()))
}

func TestLocalize_UniqueIDs(t *testing.T) {
	src := "https://a.com/pic.png"
	storage := newMemStorage()
	l := NewLocalizer(newFakeFetcher(map[string][]byte{src: []byte("x")}), storage, testDomain, nil, zap.NewNop())

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		asset := l.Localize(context.Background(), entity.AssetReference{Kind: entity.AssetImage, SourceURL: src})
		require.True(t, asset.OK())
		assert.False(t, seen[asset.ID])
		seen[asset.ID] = true
	}
	assert.Equal(t, 50, storage.count())
}
