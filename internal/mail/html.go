package mail

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// LinkRemoved replaces tracking URLs in cleaned content.
const LinkRemoved = "[Link Removed]"

var (
	whitespaceRun = regexp.MustCompile(`[ \t\f\v\r]+`)
	blankLines    = regexp.MustCompile(`\n\s*\n+`)
	urlPattern    = regexp.MustCompile(`https?://[^\s<>"')]+`)
)

var trackingMarkers = []string{
	"click", "track", "utm_", "redirect", "unsubscribe", "mailchimp", "sendgrid",
	"list-manage", "email.", "links.", "trk", "/ls/",
}

var blockElements = "p, div, br, tr, li, h1, h2, h3, h4, h5, h6, table, section, article"

// HTMLToText renders an HTML document as plain text: scripts and styles are
// dropped and block elements become line breaks.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return collapse(html)
	}

	doc.Find("script, style, head, noscript").Remove()
	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return collapse(doc.Text())
}

// TrackingLinks returns the href of every anchor that looks like a
// click-tracking or redirect URL.
func TrackingLinks(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if isTrackingURL(href) {
			links = append(links, href)
		}
	})
	return links
}

// CleanContent replaces tracking URLs with a marker and tidies whitespace.
func CleanContent(text string) string {
	cleaned := urlPattern.ReplaceAllStringFunc(text, func(u string) string {
		if isTrackingURL(u) {
			return LinkRemoved
		}
		return u
	})
	return collapse(cleaned)
}

// Truncate shortens text to at most limit bytes, preferring to cut at the
// end of a sentence, and appends a marker when anything was dropped.
func Truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}

	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	cut := text[:limit]
	if i := strings.LastIndexAny(cut, ".!?"); i > limit/2 {
		cut = cut[:i+1]
	}
	return strings.TrimSpace(cut) + "\n\n[Content truncated]"
}

func isTrackingURL(u string) bool {
	lower := strings.ToLower(u)
	for _, marker := range trackingMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func collapse(s string) string {
	s = whitespaceRun.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
