// Package loader turns fetched HTML into plain-text documents.
package loader

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"newsresearch/internal/domain"
)

var reSpaces = regexp.MustCompile(`[ \t]+`)
var reBlankLines = regexp.MustCompile(`\n{3,}`)

// ErrNoText is returned when a page has no extractable text.
var ErrNoText = errors.New("no extractable text")

// Extract returns the main article text of html. Readability is tried first;
// when it finds nothing, the page body is used with boilerplate removed.
// maxChars > 0 truncates the text.
func Extract(html, source string, maxChars int) (domain.Document, error) {
	doc := domain.Document{ID: DocumentID(source), Source: source}

	article, err := readability.FromReader(strings.NewReader(html), parseURL(source))
	if err == nil {
		doc.Title = strings.TrimSpace(article.Title)
		doc.Content = normalize(article.TextContent)
	}
	if doc.Content == "" {
		title, text, err := bodyText(html)
		if err != nil {
			return domain.Document{}, err
		}
		if doc.Title == "" {
			doc.Title = title
		}
		doc.Content = text
	}
	if doc.Content == "" {
		return domain.Document{}, ErrNoText
	}
	if maxChars > 0 {
		if r := []rune(doc.Content); len(r) > maxChars {
			doc.Content = string(r[:maxChars])
		}
	}
	return doc, nil
}

// DocumentID is a short stable identifier for a source URL.
func DocumentID(source string) string {
	h := sha1.Sum([]byte(source))
	return hex.EncodeToString(h[:8])
}

func bodyText(html string) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", err
	}
	doc.Find("script, style, noscript, nav, header, footer, aside, form").Remove()
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	return title, normalize(doc.Find("body").Text()), nil
}

func normalize(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(reSpaces.ReplaceAllString(l, " "))
	}
	return strings.TrimSpace(reBlankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}

func parseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
