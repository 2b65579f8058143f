// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize cleans user-supplied HTML before storage or display.
// Product and category descriptions entered by admins may carry markup;
// delivery addresses and order notes from customers must end up as plain text.
package htmlsanitize

import (
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy  = buildRichPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

func buildRichPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("u", "s", "sub", "sup", "mark")
	p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "th", "td", "p", "span", "div")
	p.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
	return p
}

// Sanitize strips dangerous markup while preserving common formatting:
// headings, lists, tables, links, code blocks.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return richPolicy.Sanitize(s)
}

// SanitizeToHTML sanitizes and returns template.HTML for direct rendering.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// StripTags removes all markup, returning plain text. Used for delivery
// addresses and order notes, which are echoed into WhatsApp messages.
func StripTags(s string) string {
	return strings.TrimSpace(plainPolicy.Sanitize(s))
}

// IsPlainText reports whether s contains no HTML tags. A lone < or >
// (comparisons, arrows) does not count as markup.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}

// PlainTextToHTML escapes plain text and converts newlines to <br>,
// wrapping the result in a paragraph.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := template.HTMLEscapeString(s)
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}

// PrepareForDisplay renders stored text for a page: plain text is escaped
// and paragraph-wrapped, anything with markup goes through Sanitize.
func PrepareForDisplay(s string) template.HTML {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return template.HTML(PlainTextToHTML(s))
	}
	return template.HTML(Sanitize(s))
}
