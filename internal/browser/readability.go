package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/chromedp/chromedp"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/webpilot-ai/webpilot/api/schemas"
)

// GetReadabilityContent captures the rendered document and reduces it to
// article-style text. Pages readability cannot parse (portals, web apps) fall
// back to a plain text extraction of the body.
func (p *Page) GetReadabilityContent(ctx context.Context) (*schemas.ReadabilityContent, error) {
	var rawHTML, location, title string
	err := p.run(ctx, snapshotTimeout,
		chromedp.Location(&location),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &rawHTML, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to capture page HTML: %w", err)
	}

	pageURL, err := url.Parse(location)
	if err != nil {
		pageURL = &url.URL{}
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), pageURL)
	if err != nil || strings.TrimSpace(article.TextContent) == "" {
		text, fallbackErr := extractVisibleText(rawHTML)
		if fallbackErr != nil {
			return nil, fmt.Errorf("readability parse failed (%v) and text fallback failed: %w", err, fallbackErr)
		}
		return &schemas.ReadabilityContent{Title: title, TextContent: text}, nil
	}

	if article.Title != "" {
		title = article.Title
	}
	return &schemas.ReadabilityContent{
		Title:       title,
		Byline:      article.Byline,
		TextContent: article.TextContent,
	}, nil
}

// extractVisibleText walks the HTML tree and collects text nodes, skipping
// script and style subtrees.
func extractVisibleText(rawHTML string) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				b.WriteString(text)
				b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String(), nil
}
