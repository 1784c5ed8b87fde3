package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/exportlens/backend/internal/domain"
)

// Client retrieves product page HTML, falling back through relay proxies
// when the direct request is refused or comes back empty.
type Client struct {
	httpClient   *http.Client
	strategies   []strategy
	maxBodyBytes int64
	userAgent    string
}

// NewClient creates a new page fetch client
func NewClient(timeout time.Duration, maxBodyBytes int64, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		strategies:   defaultStrategies(),
		maxBodyBytes: maxBodyBytes,
		userAgent:    userAgent,
	}
}

// FetchPage retrieves the page behind pageURL and returns its HTML decoded
// to UTF-8. Strategies are tried strictly in order and the first non-empty
// body wins; when every strategy fails, the returned error carries each
// strategy's failure so the whole cascade can be diagnosed from one line.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, error) {
	log.Printf("[FETCH] FetchPage called with URL: %q", pageURL)

	parsed, err := url.Parse(pageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", fmt.Errorf("%w: not an absolute http(s) URL: %q", domain.ErrInvalidRequest, pageURL)
	}

	var failures []string
	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		body, err := c.fetchOnce(ctx, s.build(pageURL))
		if err != nil {
			log.Printf("[FETCH] Strategy %s failed: %v", s.name, err)
			failures = append(failures, fmt.Sprintf("%s: %v", s.name, err))
			continue
		}
		if strings.TrimSpace(body) == "" {
			log.Printf("[FETCH] Strategy %s returned an empty body", s.name)
			failures = append(failures, fmt.Sprintf("%s: empty body", s.name))
			continue
		}

		log.Printf("[FETCH] Strategy %s succeeded for %q (%d bytes)", s.name, pageURL, len(body))
		return body, nil
	}

	log.Printf("[FETCH] All strategies failed for %q", pageURL)
	return "", fmt.Errorf("%w: %s", domain.ErrFetchFailed, strings.Join(failures, "; "))
}

// fetchOnce executes a single GET against requestURL and returns the body
// decoded to UTF-8. Japanese shops still serve Shift_JIS and EUC-JP, so the
// body is run through a charset-aware reader keyed off the Content-Type
// header and the page's own meta tags.
func (c *Client) fetchOnce(ctx context.Context, requestURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setBrowserHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	reader, err := charset.NewReader(io.LimitReader(resp.Body, c.maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("failed to decode body: %w", err)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	return string(body), nil
}

// setBrowserHeaders makes the request look like an ordinary browser visit.
// Several Japanese shop platforms return errors or empty shells to clients
// without them.
func (c *Client) setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.8,en;q=0.6")
}
