package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashURL_Stable(t *testing.T) {
	a := HashURL("https://mp.weixin.qq.com/s/abc")
	b := HashURL("https://mp.weixin.qq.com/s/abc")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, HashURL("https://mp.weixin.qq.com/s/abd"))
}

func TestIsRemoteURL(t *testing.T) {
	cases := map[string]bool{
		"http://x/pic.png":          true,
		"https://mmbiz.qpic.cn/a/0": true,
		"//cdn.example.com/a.png":   false,
		"/images/a.png":             false,
		"data:image/png;base64,AA":  false,
		"ftp://example.com/a.png":   false,
		"":                          false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsRemoteURL(in), in)
	}
}
