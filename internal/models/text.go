package models

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// PlainText converts an HTML fragment to plain text, collapsing whitespace.
func PlainText(html string) string {
	if !strings.ContainsAny(html, "<&") {
		return normalizeSpace(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return normalizeSpace(html)
	}
	return normalizeSpace(doc.Text())
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ParseDate accepts the date layouts upstream sources commonly emit.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"01/02/2006",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, raw); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}
