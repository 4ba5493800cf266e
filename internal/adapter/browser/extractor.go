package browser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/article-mirror/internal/entity"
)

// contentSelectors are tried in order to find the article body.
var contentSelectors = []string{"#js_content", ".rich_media_content", "article"}

// ExtractArticle parses a rendered article page into the payload shape the
// conversion API returns.
func ExtractArticle(pageURL, htmlContent string) (entity.ArticlePayload, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(doc.Find("#activity-name").First().Text())
	if title == "" {
		title = metaContent(doc, "og:title")
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	content := doc.Find("body")
	for _, sel := range contentSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			content = s
			break
		}
	}
	// Scripts never survive into the mirrored copy.
	content.Find("script, noscript").Remove()
	body, err := content.Html()
	if err != nil {
		return nil, fmt.Errorf("render article body: %w", err)
	}

	fields := map[string]string{
		"url":               pageURL,
		"title":             title,
		"author":            metaContent(doc, "author"),
		"digest":            metaContent(doc, "description"),
		"cover":             metaContent(doc, "og:image"),
		entity.ContentField: strings.TrimSpace(body),
	}
	payload := make(entity.ArticlePayload, len(fields))
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		payload[k] = raw
	}
	return payload, nil
}

// metaContent reads a meta tag by name or property.
func metaContent(doc *goquery.Document, key string) string {
	var value string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		property, _ := s.Attr("property")
		if name != key && property != key {
			return true
		}
		value, _ = s.Attr("content")
		return false
	})
	return strings.TrimSpace(value)
}
