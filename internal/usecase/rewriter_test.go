package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	okImage   = "https://mmbiz.qpic.cn/ok/640?wx_fmt=png"
	badImage  = "https://mmbiz.qpic.cn/bad.jpg"
	okBg      = "https://mmbiz.qpic.cn/bg.gif"
	badBg     = "https://mmbiz.qpic.cn/bg-missing.png"
	okCover   = "https://mmbiz.qpic.cn/cover.jpg"
	badCover  = "https://mmbiz.qpic.cn/cover-missing.jpg"
	playURL   = "https://v.qq.com/x/play?vid=1"
	mirrorDir = testDomain + "/images/"
)

const articleHTML = `<section>
<img src="` + okImage + `" data-type="png">
<img src="` + badImage + `">
<img src="/relative.png">
<p style="color:red; background:url(` + okBg + `) no-repeat; background-image:url('` + badBg + `')">text</p>
<iframe class="video_iframe" data-cover="https%3A%2F%2Fmmbiz.qpic.cn%2Fcover.jpg" data-src="` + playURL + `"></iframe>
<iframe class="video_iframe" data-cover="https%3A%2F%2Fmmbiz.qpic.cn%2Fcover-missing.jpg" data-src="` + playURL + `"></iframe>
<mp-common-videosnap data-id="x"></mp-common-videosnap>
</section>`

func newTestRewriter(fetcher *fakeFetcher) (Rewriter, *memStorage) {
	storage := newMemStorage()
	l := NewLocalizer(fetcher, storage, testDomain, nil, zap.NewNop())
	return NewRewriter(l, zap.NewNop()), storage
}

func TestRewrite_MixedOutcomes(t *testing.T) {
	fetcher := newFakeFetcher(map[string][]byte{
		okImage: []byte("img"),
		okBg:    []byte("bg"),
		okCover: []byte("cover"),
	})
	rw, storage := newTestRewriter(fetcher)

	out, report, err := rw.Rewrite(context.Background(), articleHTML)
	require.NoError(t, err)

	assert.Equal(t, 6, report.Total)
	assert.Equal(t, 3, report.Localized)
	assert.Equal(t, 3, report.Failed)
	assert.Equal(t, 3, storage.count())

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)

	imgs := doc.Find("section > img")
	require.Equal(t, 3, imgs.Length())
	first, _ := imgs.Eq(0).Attr("src")
	assert.True(t, strings.HasPrefix(first, mirrorDir))
	assert.True(t, strings.HasSuffix(first, ".png"))
	second, _ := imgs.Eq(1).Attr("src")
	assert.Equal(t, badImage, second)
	third, _ := imgs.Eq(2).Attr("src")
	assert.Equal(t, "/relative.png", third)

	style, _ := doc.Find("p").Attr("style")
	assert.True(t, strings.HasPrefix(style, "color:red; background:url("+mirrorDir))
	assert.Contains(t, style, ".gif) no-repeat; background-image:url('"+badBg+"')")

	link := doc.Find("a")
	require.Equal(t, 1, link.Length())
	href, _ := link.Attr("href")
	assert.Equal(t, playURL, href)
	cover, _ := link.Find("img").Attr("src")
	assert.True(t, strings.HasPrefix(cover, mirrorDir))
	assert.True(t, strings.HasSuffix(cover, ".jpg"))

	assert.Zero(t, doc.Find("iframe").Length())
	assert.Zero(t, doc.Find("mp-common-videosnap").Length())
}

func TestRewrite_FetchesEachReferenceOnceInOneWave(t *testing.T) {
	fetcher := newFakeFetcher(map[string][]byte{
		okImage: []byte("img"),
		okBg:    []byte("bg"),
		okCover: []byte("cover"),
	})
	fetcher.block = make(chan struct{})
	rw, _ := newTestRewriter(fetcher)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, report, err := rw.Rewrite(context.Background(), articleHTML)
		assert.NoError(t, err)
		assert.Equal(t, 3, report.Localized)
	}()

	// Every fetch is in flight before any of them completes.
	urls := []string{okImage, badImage, okBg, badBg, okCover, badCover}
	assert.Eventually(t, func() bool {
		for _, u := range urls {
			if fetcher.callsFor(u) != 1 {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)
	close(fetcher.block)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("rewrite did not finish")
	}
	for _, u := range urls {
		assert.Equal(t, 1, fetcher.callsFor(u), u)
	}
}

func TestRewrite_CancelledContextLeavesReferencesUntouched(t *testing.T) {
	fetcher := newFakeFetcher(map[string][]byte{okImage: []byte("img")})
	fetcher.block = make(chan struct{})
	rw, storage := newTestRewriter(fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, report, err := rw.Rewrite(ctx, `<img src="`+okImage+`">`)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Zero(t, storage.count())
	assert.Equal(t, `<img src="https://mmbiz.qpic.cn/ok/640?wx_fmt=png"/>`, out)
}

func TestRewrite_NoAssets(t *testing.T) {
	rw, _ := newTestRewriter(newFakeFetcher(nil))

	out, report, err := rw.Rewrite(context.Background(), `<p>plain <b>text</b></p>`)
	require.NoError(t, err)
	assert.Zero(t, report.Total)
	assert.Equal(t, `<p>plain <b>text</b></p>`, out)
}
