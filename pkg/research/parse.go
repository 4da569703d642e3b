package research

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseLinks returns the href of every anchor inside elements matching
// selector, keeping only absolute http(s) targets, in document order, at most
// limit of them.
func ParseLinks(html, selector string, limit int) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var links []string
	doc.Find(selector + " a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if ok && strings.HasPrefix(href, "http") {
			links = append(links, href)
		}
		return len(links) < limit
	})

	return links, nil
}

// ParagraphText joins the text of all <p> elements with single spaces.
func ParagraphText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, s.Text())
	})

	return strings.Join(parts, " "), nil
}
