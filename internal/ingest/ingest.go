// Package ingest turns job descriptions delivered as HTML pages or office
// documents into the plain text the extractors work on.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"code.sajari.com/docconv"
	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

var (
	htmlTag        = regexp.MustCompile(`(?i)<\s*(html|body|main|article|section|div|p|br|ul|ol|li|h[1-6]|strong|em|span|table)\b[^>]*>`)
	headingMarker  = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasisMarker = regexp.MustCompile(`\*\*|__`)
	escapedChar    = regexp.MustCompile(`\\([\\\-*_.+#!\[\]()>~|` + "`" + `])`)
	blankLines     = regexp.MustCompile(`\n{3,}`)
)

// noiseSelectors are removed before conversion; they never carry posting text.
var noiseSelectors = []string{"script", "style", "noscript", "nav", "header", "footer", "aside", "form", "iframe"}

// contentSelectors are tried in order; the first match wins, body is the fallback.
var contentSelectors = []string{"main", "article", ".job-description", "#job-description", "body"}

// Documents with these extensions are converted with docconv.
var officeExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".doc":  true,
	".odt":  true,
	".rtf":  true,
}

// LooksLikeHTML reports whether the input contains common block-level markup.
func LooksLikeHTML(s string) bool {
	return htmlTag.MatchString(s)
}

// FromHTML strips page chrome and converts the posting body to line-oriented
// text. Lists come out as "- item" lines so the bullet extractor sees them.
func FromHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	doc.Find(strings.Join(noiseSelectors, ", ")).Remove()

	var content *goquery.Selection
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			content = selection.First()
			break
		}
	}
	if content == nil {
		content = doc.Selection
	}

	fragment, err := goquery.OuterHtml(content)
	if err != nil {
		return "", fmt.Errorf("rendering HTML content: %w", err)
	}

	markdown, err := htmltomarkdown.ConvertString(fragment)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}

	return plain(markdown), nil
}

// plain drops the markdown decoration that would otherwise hide section headers.
func plain(markdown string) string {
	text := headingMarker.ReplaceAllString(markdown, "")
	text = emphasisMarker.ReplaceAllString(text, "")
	text = escapedChar.ReplaceAllString(text, "$1")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Text returns the document as plain text. HTML is converted when forceHTML is
// set or when the input looks like markup.
func Text(raw string, forceHTML bool) (string, error) {
	if forceHTML || LooksLikeHTML(raw) {
		return FromHTML(raw)
	}
	return raw, nil
}

// FromFile reads a job description from disk. Office and PDF files go through
// docconv, HTML files through FromHTML, anything else is read as text.
func FromFile(path string, forceHTML bool) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	if officeExtensions[ext] {
		res, err := docconv.ConvertPath(path)
		if err != nil {
			return "", fmt.Errorf("converting %s: %w", path, err)
		}
		return strings.TrimSpace(res.Body), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	if ext == ".html" || ext == ".htm" {
		forceHTML = true
	}
	return Text(string(data), forceHTML)
}
