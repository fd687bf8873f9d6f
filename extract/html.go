package extract

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
)

var excessiveLines = regexp.MustCompile(`\n{3,}`)

// HTML converts HTML documents to GitHub-flavored markdown, keeping the
// page title as a heading.
type HTML struct {
	MaxBytes  int64
	converter *md.Converter
}

// NewHTML returns an HTML extractor.
func NewHTML(maxBytes int64) *HTML {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	converter.Remove("script", "style", "noscript")
	return &HTML{MaxBytes: maxBytes, converter: converter}
}

// Extract converts the file at path.
func (h *HTML) Extract(ctx context.Context, path string) (string, error) {
	data, err := readLimited(ctx, path, limitOr(h.MaxBytes))
	if err != nil {
		return "", err
	}
	return h.Convert(data)
}

// Convert turns an HTML document into markdown.
func (h *HTML) Convert(content []byte) (string, error) {
	markdown, err := h.converter.ConvertString(string(content))
	if err != nil {
		return "", err
	}
	markdown = strings.TrimSpace(excessiveLines.ReplaceAllString(markdown, "\n\n"))
	title := htmlTitle(content)
	if title != "" && !strings.HasPrefix(markdown, "# ") {
		markdown = "# " + title + "\n\n" + markdown
	}
	return markdown, nil
}

func htmlTitle(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return ""
	}
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}
