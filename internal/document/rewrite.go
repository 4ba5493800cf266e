package document

import (
	"fmt"
	"sort"

	"golang.org/x/net/html"

	"github.com/user/article-mirror/internal/entity"
)

// Replacement pairs a discovered reference with the public URL it was mirrored to.
type Replacement struct {
	Ref       entity.AssetReference
	PublicURL string
}

// videoSnippetTags are custom tags the platform uses for embedded video cards.
var videoSnippetTags = map[string]bool{
	"mp-common-videosnap": true,
	"mpvideosnap":         true,
}

// Apply writes successful localizations into the document. References that were not
// mirrored must not be passed in; their sites stay untouched.
func Apply(d *Document, reps []Replacement) error {
	styles := make(map[entity.HostLocation][]Replacement)
	var styleOrder []NodeID
	for _, r := range reps {
		switch r.Ref.Kind {
		case entity.AssetImage:
			applyImage(d, r)
		case entity.AssetStyleBackground:
			key := entity.HostLocation{Node: r.Ref.Host.Node, Attribute: r.Ref.Host.Attribute}
			if _, seen := styles[key]; !seen {
				styleOrder = append(styleOrder, NodeID(r.Ref.Host.Node))
			}
			styles[key] = append(styles[key], r)
		case entity.AssetVideoCover:
			if err := applyVideo(d, r); err != nil {
				return err
			}
		}
	}
	for _, id := range styleOrder {
		key := entity.HostLocation{Node: int(id), Attribute: "style"}
		if err := applyStyle(d, id, styles[key]); err != nil {
			return err
		}
	}
	return nil
}

func applyImage(d *Document, r Replacement) {
	id := NodeID(r.Ref.Host.Node)
	d.SetAttr(id, r.Ref.Host.Attribute, r.PublicURL)
	// Lazy-loading scripts are not carried over, so the mirror must be in src too.
	if r.Ref.Host.Attribute != "src" {
		d.SetAttr(id, "src", r.PublicURL)
	}
}

// applyStyle splices every mirrored URL into one style value. Spans are applied from the
// end of the string backwards so earlier offsets stay valid.
func applyStyle(d *Document, id NodeID, reps []Replacement) error {
	style, ok := d.Attr(id, "style")
	if !ok {
		return fmt.Errorf("apply style: node %d has no style attribute", id)
	}
	sort.Slice(reps, func(i, j int) bool {
		return reps[i].Ref.Host.Start > reps[j].Ref.Host.Start
	})
	for _, r := range reps {
		start, end := r.Ref.Host.Start, r.Ref.Host.End
		if start < 0 || end > len(style) || start > end || style[start:end] != r.Ref.SourceURL {
			return fmt.Errorf("apply style: stale span [%d,%d) on node %d", start, end, id)
		}
		style = style[:start] + r.PublicURL + style[end:]
	}
	d.SetAttr(id, "style", style)
	return nil
}

// applyVideo swaps the embed for a linked cover image.
func applyVideo(d *Document, r Replacement) error {
	id := NodeID(r.Ref.Host.Node)
	if !d.Attached(id) {
		return nil
	}
	anchor := d.NewElement("a", html.Attribute{Key: "href", Val: r.Ref.PlayURL})
	img := d.NewElement("img", html.Attribute{Key: "src", Val: r.PublicURL})
	if err := d.AppendChild(anchor, img); err != nil {
		return err
	}
	return d.Replace(id, anchor)
}

// StripDisallowed removes video snippet tags and any video embeds still in the document.
// It returns the number of removed elements.
func StripDisallowed(d *Document) int {
	removed := 0
	for _, id := range d.Elements() {
		if !d.Attached(id) {
			continue
		}
		if disallowed(d, id) {
			d.Remove(id)
			removed++
		}
	}
	return removed
}

func disallowed(d *Document, id NodeID) bool {
	tag := d.Tag(id)
	if videoSnippetTags[tag] {
		return true
	}
	if tag != "iframe" {
		return false
	}
	if d.HasClass(id, "video_iframe") {
		return true
	}
	_, hasCover := d.Attr(id, "data-cover")
	_, hasSrc := d.Attr(id, "data-src")
	return hasCover && hasSrc
}
