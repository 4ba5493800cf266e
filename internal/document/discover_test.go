package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/user/article-mirror/internal/entity"
)

func TestDiscover_Images(t *testing.T) {
	d, err := ParseString(`
		<img src="http://x/pic.png">
		<img src="/relative.png">
		<img src="data:image/svg+xml,%3Csvg%3E" data-src="https://mmbiz.qpic.cn/a/640?wx_fmt=svg" data-type="svg">
		<img src="//cdn.example.com/p.png">
		<img>`)
	require.NoError(t, err)

	refs := Discover(d)
	require.Len(t, refs, 2)

	assert.Equal(t, entity.AssetImage, refs[0].Kind)
	assert.Equal(t, "http://x/pic.png", refs[0].SourceURL)
	assert.Equal(t, "src", refs[0].Host.Attribute)
	assert.Empty(t, refs[0].TypeHint)

	assert.Equal(t, "https://mmbiz.qpic.cn/a/640?wx_fmt=svg", refs[1].SourceURL)
	assert.Equal(t, "data-src", refs[1].Host.Attribute)
	assert.Equal(t, "svg", refs[1].TypeHint)
}

func TestDiscover_StyleBackgrounds(t *testing.T) {
	style := `color: red; background-image:url('http://x/b.jpg'); background: url("https://x/c.png") no-repeat; border-image: url(http://x/not-bg.png)`
	d, err := ParseString(`<section style="` + html.EscapeString(style) + `">t</section><p style="background:url(/local.png)">u</p>`)
	require.NoError(t, err)

	refs := Discover(d)
	require.Len(t, refs, 2)

	for _, r := range refs {
		assert.Equal(t, entity.AssetStyleBackground, r.Kind)
		assert.Equal(t, "style", r.Host.Attribute)
		assert.Equal(t, r.SourceURL, style[r.Host.Start:r.Host.End])
	}
	assert.Equal(t, "http://x/b.jpg", refs[0].SourceURL)
	assert.Equal(t, "https://x/c.png", refs[1].SourceURL)
}

func TestDiscover_StyleURLWithParentheses(t *testing.T) {
	style := `background:url('http://x/a(1).png') no-repeat; background-image:url("https://x/b(2).jpg"), url(http://x/c.gif)`
	d, err := ParseString(`<div style="` + html.EscapeString(style) + `"></div>`)
	require.NoError(t, err)

	refs := Discover(d)
	require.Len(t, refs, 3)
	assert.Equal(t, "http://x/a(1).png", refs[0].SourceURL)
	assert.Equal(t, "https://x/b(2).jpg", refs[1].SourceURL)
	assert.Equal(t, "http://x/c.gif", refs[2].SourceURL)
	for _, r := range refs {
		assert.Equal(t, r.SourceURL, style[r.Host.Start:r.Host.End])
	}
}

func TestDiscover_VideoCovers(t *testing.T) {
	d, err := ParseString(`
		<iframe class="video_iframe" data-cover="http%3A%2F%2Fx%2Fcover.jpg" data-src="https://v.qq.com/iframe/preview.html?vid=abc"></iframe>
		<iframe data-src="https://v.qq.com/iframe/preview.html?vid=nocover"></iframe>
		<iframe data-cover="%2Frelative.jpg" data-src="https://v.qq.com/x"></iframe>`)
	require.NoError(t, err)

	refs := Discover(d)
	require.Len(t, refs, 1)
	assert.Equal(t, entity.AssetVideoCover, refs[0].Kind)
	assert.Equal(t, "http://x/cover.jpg", refs[0].SourceURL)
	assert.Equal(t, "https://v.qq.com/iframe/preview.html?vid=abc", refs[0].PlayURL)
}

func TestDiscover_ClassOrder(t *testing.T) {
	d, err := ParseString(`
		<iframe data-cover="http://x/v.jpg" data-src="https://v/1"></iframe>
		<div style="background:url(http://x/bg.jpg)"></div>
		<img src="http://x/1.png"><img src="http://x/2.png">`)
	require.NoError(t, err)

	refs := Discover(d)
	require.Len(t, refs, 4)
	assert.Equal(t, entity.AssetImage, refs[0].Kind)
	assert.Equal(t, "http://x/1.png", refs[0].SourceURL)
	assert.Equal(t, "http://x/2.png", refs[1].SourceURL)
	assert.Equal(t, entity.AssetStyleBackground, refs[2].Kind)
	assert.Equal(t, entity.AssetVideoCover, refs[3].Kind)
}
