package reader

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
	"golang.org/x/net/html"
)

// DefaultPreviewChars bounds the dry-run preview of an article body.
const DefaultPreviewChars = 280

// Preview renders an article body (an HTML fragment) as plain text clipped to
// maxChars runes. pageURL resolves relative links and may be empty.
func Preview(body, pageURL, title string, maxChars int) (string, error) {
	if maxChars <= 0 {
		maxChars = DefaultPreviewChars
	}
	if strings.TrimSpace(body) == "" {
		return clip(title, maxChars), nil
	}

	base := &url.URL{}
	if trimmed := strings.TrimSpace(pageURL); trimmed != "" {
		parsed, err := url.Parse(trimmed)
		if err != nil {
			return "", fmt.Errorf("parse page url: %w", err)
		}
		base = parsed
	}

	document := "<html><head><title>" + html.EscapeString(title) + "</title></head><body><article>" + body + "</article></body></html>"
	article, err := readability.FromReader(strings.NewReader(document), base)
	if err != nil {
		return "", fmt.Errorf("readability parse: %w", err)
	}

	var renderedText bytes.Buffer
	if err := article.RenderText(&renderedText); err != nil {
		return "", fmt.Errorf("render readability text: %w", err)
	}

	text := paragraphs(renderedText.String())
	if text == "" {
		text = paragraphs(article.Excerpt())
	}
	if text == "" {
		text = fragmentText(body)
	}
	if text == "" {
		text = strings.TrimSpace(title)
	}

	return clip(text, maxChars), nil
}

// fragmentText is the plain text of an HTML fragment, one line per block.
func fragmentText(body string) string {
	nodes, err := html.ParseFragment(strings.NewReader(body), &html.Node{Type: html.ElementNode, Data: "div"})
	if err != nil {
		return ""
	}

	var out strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			out.WriteString(n.Data)
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "br", "tr":
				out.WriteString("\n")
			}
		}
	}
	for _, node := range nodes {
		walk(node)
	}
	return paragraphs(out.String())
}

// paragraphs collapses in-line whitespace and joins non-blank lines with a blank line.
func paragraphs(raw string) string {
	lines := strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == '\r' })
	kept := lines[:0]
	for _, line := range lines {
		if clean := strings.Join(strings.Fields(line), " "); clean != "" {
			kept = append(kept, clean)
		}
	}
	return strings.Join(kept, "\n\n")
}

// clip shortens text to maxChars runes, the last one being an ellipsis.
func clip(raw string, maxChars int) string {
	text := strings.TrimSpace(raw)
	runes := []rune(text)
	if maxChars <= 0 || len(runes) <= maxChars {
		return text
	}
	return strings.TrimSpace(string(runes[:maxChars-1])) + "…"
}
