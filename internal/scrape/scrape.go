// Package scrape implements the content source stage: fetching a web page
// and reducing it to bounded plain text suitable for the extraction model.
package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMaxChars caps the reduced text; a recipe page rarely needs more.
const DefaultMaxChars = 15000

// Some sites reject requests without a browser User-Agent.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Elements that never carry recipe content.
const strippedSelectors = "script, style, nav, footer, header, iframe, noscript"

// Client fetches recipe pages and reduces them to plain text.
type Client struct {
	httpClient *http.Client
	maxChars   int
	logger     *slog.Logger
}

// New creates a scrape client. maxChars <= 0 falls back to DefaultMaxChars.
func New(maxChars int, logger *slog.Logger) *Client {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxChars:   maxChars,
		logger:     logger.With(slog.String("component", "scrape")),
	}
}

// Resolve fetches the page at url and returns its cleaned, truncated text.
func (c *Client) Resolve(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL %s: %w", url, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", "error", cerr)
		}
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("failed to fetch URL %s: status %d", url, resp.StatusCode)
	}

	text, err := Reduce(resp.Body, c.maxChars)
	if err != nil {
		return "", fmt.Errorf("failed to reduce page %s: %w", url, err)
	}

	c.logger.Debug("page reduced", "url", url, "chars", len(text))
	return text, nil
}

// Reduce strips non-content elements from an HTML document and returns the
// body text with whitespace collapsed, truncated to maxChars runes.
func Reduce(r io.Reader, maxChars int) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(strippedSelectors).Remove()

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")

	if maxChars > 0 {
		if runes := []rune(text); len(runes) > maxChars {
			text = string(runes[:maxChars])
		}
	}
	return text, nil
}
