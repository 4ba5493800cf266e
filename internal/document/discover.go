package document

import (
	"net/url"
	"regexp"

	"github.com/user/article-mirror/internal/entity"
	"github.com/user/article-mirror/pkg/utils"
)

var (
	// A background or background-image declaration, up to the next ';'.
	backgroundDeclPattern = regexp.MustCompile(`(?i)(?:^|;)\s*background(?:-image)?\s*:[^;]*`)
	// An absolute url(...) reference. Groups 1 to 3 hold the single-quoted, double-quoted
	// and bare forms; a quoted URL may contain parentheses.
	styleURLPattern = regexp.MustCompile(`url\(\s*(?:'(https?://[^']+)'|"(https?://[^"]+)"|(https?://[^'"\s)]+))\s*\)`)
)

// Discover collects the remote asset references of a document: image sources first,
// then style backgrounds, then video covers, each class in document order.
func Discover(d *Document) []entity.AssetReference {
	var refs []entity.AssetReference
	refs = append(refs, discoverImages(d)...)
	refs = append(refs, discoverStyleBackgrounds(d)...)
	refs = append(refs, discoverVideoCovers(d)...)
	return refs
}

func discoverImages(d *Document) []entity.AssetReference {
	var refs []entity.AssetReference
	for _, id := range d.ElementsByTag("img") {
		attr, src := imageSource(d, id)
		if attr == "" {
			continue
		}
		hint, _ := d.Attr(id, "data-type")
		refs = append(refs, entity.AssetReference{
			Kind:      entity.AssetImage,
			SourceURL: src,
			TypeHint:  hint,
			Host:      entity.HostLocation{Node: int(id), Attribute: attr},
		})
	}
	return refs
}

// imageSource picks src, or data-src for lazily loaded images whose src is a placeholder.
func imageSource(d *Document, id NodeID) (string, string) {
	if src, ok := d.Attr(id, "src"); ok && utils.IsRemoteURL(src) {
		return "src", src
	}
	if src, ok := d.Attr(id, "data-src"); ok && utils.IsRemoteURL(src) {
		return "data-src", src
	}
	return "", ""
}

func discoverStyleBackgrounds(d *Document) []entity.AssetReference {
	var refs []entity.AssetReference
	for _, id := range d.Elements() {
		style, ok := d.Attr(id, "style")
		if !ok || style == "" {
			continue
		}
		for _, decl := range backgroundDeclPattern.FindAllStringIndex(style, -1) {
			body := style[decl[0]:decl[1]]
			for _, m := range styleURLPattern.FindAllStringSubmatchIndex(body, -1) {
				urlStart, urlEnd := matchedURL(m)
				if urlStart < 0 {
					continue
				}
				start, end := decl[0]+urlStart, decl[0]+urlEnd
				refs = append(refs, entity.AssetReference{
					Kind:      entity.AssetStyleBackground,
					SourceURL: style[start:end],
					Host: entity.HostLocation{
						Node:      int(id),
						Attribute: "style",
						Start:     start,
						End:       end,
					},
				})
			}
		}
	}
	return refs
}

// matchedURL returns the span of whichever url(...) form matched.
func matchedURL(m []int) (int, int) {
	for g := 1; g <= 3; g++ {
		if m[2*g] >= 0 {
			return m[2*g], m[2*g+1]
		}
	}
	return -1, -1
}

func discoverVideoCovers(d *Document) []entity.AssetReference {
	var refs []entity.AssetReference
	for _, id := range d.ElementsByTag("iframe") {
		cover, play, ok := videoEmbed(d, id)
		if !ok {
			continue
		}
		refs = append(refs, entity.AssetReference{
			Kind:      entity.AssetVideoCover,
			SourceURL: cover,
			PlayURL:   play,
			Host:      entity.HostLocation{Node: int(id), Attribute: "data-cover"},
		})
	}
	return refs
}

// videoEmbed decodes the cover and playable source of a video iframe.
func videoEmbed(d *Document, id NodeID) (cover, play string, ok bool) {
	rawCover, hasCover := d.Attr(id, "data-cover")
	play, hasPlay := d.Attr(id, "data-src")
	if !hasCover || !hasPlay {
		return "", "", false
	}
	cover, err := url.QueryUnescape(rawCover)
	if err != nil {
		cover = rawCover
	}
	if !utils.IsRemoteURL(cover) || !utils.IsRemoteURL(play) {
		return "", "", false
	}
	return cover, play, true
}
