package sanitize

import (
	"errors"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// Sanitizer strips script blocks, event handlers and javascript: URLs.
// Safe for concurrent use.
type Sanitizer struct {
	content *bluemonday.Policy
	caption *bluemonday.Policy
}

// New returns a sanitizer that keeps the formatting the section editor emits
// and strips all markup from media captions.
func New() *Sanitizer {
	return &Sanitizer{
		content: contentPolicy(),
		caption: bluemonday.StrictPolicy(),
	}
}

func contentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowStyling()
	p.AllowStyles("color", "background-color", "text-align", "font-weight", "font-style",
		"text-decoration", "font-size", "margin-left", "padding-left").Globally()
	return p
}

// Content cleans section text. Text without any markup is returned as is, so
// clinical notation like "ROM < 90 & pain" keeps its characters; anything
// with tags comes back as sanitized HTML.
func (s *Sanitizer) Content(v string) string {
	if !hasMarkup(v) {
		return v
	}
	return s.content.Sanitize(v)
}

// Caption cleans a media caption to plain text.
func (s *Sanitizer) Caption(v string) string {
	return strings.TrimSpace(s.caption.Sanitize(v))
}

// hasMarkup reports whether an HTML tokenizer finds anything but text in v.
// A dangling tag cut off at the end is not returned as text, so it counts.
func hasMarkup(v string) bool {
	if !strings.Contains(v, "<") {
		return false
	}
	z := html.NewTokenizer(strings.NewReader(v))
	n := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return !errors.Is(z.Err(), io.EOF) || n != len(v)
		case html.TextToken:
			n += len(z.Raw())
		default:
			return true
		}
	}
}
