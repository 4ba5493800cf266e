package entity

import (
	"encoding/json"
	"fmt"
)

// ContentField is the payload field carrying the article HTML.
const ContentField = "content_noencode"

// ArticlePayload is the upstream article object. Fields are kept as raw JSON so that
// everything except the content field is returned exactly as received.
type ArticlePayload map[string]json.RawMessage

// Content decodes the article HTML.
func (p ArticlePayload) Content() (string, error) {
	raw, ok := p[ContentField]
	if !ok {
		return "", fmt.Errorf("payload has no %s field", ContentField)
	}
	var html string
	if err := json.Unmarshal(raw, &html); err != nil {
		return "", fmt.Errorf("decode %s: %w", ContentField, err)
	}
	return html, nil
}

// WithContent returns a copy of the payload with the content field replaced.
func (p ArticlePayload) WithContent(html string) (ArticlePayload, error) {
	raw, err := json.Marshal(html)
	if err != nil {
		return nil, err
	}
	out := make(ArticlePayload, len(p))
	for k, v := range p {
		out[k] = v
	}
	out[ContentField] = raw
	return out, nil
}

// Title returns the title field when present.
func (p ArticlePayload) Title() string {
	var title string
	if raw, ok := p["title"]; ok {
		_ = json.Unmarshal(raw, &title)
	}
	return title
}
