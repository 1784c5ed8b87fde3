package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/exportlens/backend/internal/domain"
	"golang.org/x/time/rate"
)

const (
	// maxAttempts bounds the retry loop: one request plus two retries.
	maxAttempts = 3

	// maxResponseBytes caps how much of a reply is read. Grounded answers
	// run long but nowhere near this.
	maxResponseBytes = 4 << 20
)

// Client handles communication with the Gemini generateContent API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
	debug       bool
}

// NewClient creates a new Gemini API client. apiKey may be empty when every
// caller supplies its own key per request.
func NewClient(apiKey, baseURL, model string, timeout time.Duration) *Client {
	// Free-tier Gemini allows about 10 requests per minute; keep a small
	// burst so a short run of analyze calls is not serialized.
	limiter := rate.NewLimiter(rate.Limit(10.0/60.0), 3)

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		rateLimiter: limiter,
		backoff:     exponentialBackoff,
	}
}

// SetDebug toggles verbose logging of request and response bodies
func (c *Client) SetDebug(enabled bool) {
	c.debug = enabled
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		log.Printf("[GEMINI] "+format, args...)
	}
}

// exponentialBackoff returns the wait after a failed attempt: 1s after the
// first, 2s after the second.
func exponentialBackoff(attempt int) time.Duration {
	return time.Second << (attempt - 1)
}

// Request and response shapes for generateContent. Only the fields this
// client touches are declared.
type generateRequest struct {
	Contents          []content    `json:"contents"`
	Tools             []tool       `json:"tools"`
	SystemInstruction *instruction `json:"systemInstruction"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// tool enables Google Search grounding; the empty object is the whole
// configuration.
type tool struct {
	GoogleSearch struct{} `json:"google_search"`
}

type instruction struct {
	Parts []part `json:"parts"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// RequestVerdict asks Gemini for an export compliance verdict on the
// product and returns the raw reply text. A non-empty apiKey overrides the
// key the client was built with. Transient failures (HTTP 429, 5xx, network
// errors) are retried with exponential backoff; anything else fails fast.
func (c *Client) RequestVerdict(ctx context.Context, productName, ingredients, apiKey string) (string, error) {
	key := apiKey
	if key == "" {
		key = c.apiKey
	}
	if key == "" {
		return "", domain.ErrMissingAPIKey
	}

	log.Printf("[GEMINI] RequestVerdict called for product: %q", productName)

	payload := generateRequest{
		Contents:          []content{{Parts: []part{{Text: BuildUserQuery(productName, ingredients)}}}},
		Tools:             []tool{{}},
		SystemInstruction: &instruction{Parts: []part{{Text: systemInstruction}}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}
	c.debugLog("request body: %s", body)

	reqURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(key))

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter error: %w", err)
		}

		reply, retryable, err := c.doGenerate(ctx, reqURL, body)
		if err == nil {
			log.Printf("[GEMINI] Verdict received for %q (%d bytes)", productName, len(reply))
			return reply, nil
		}

		lastErr = err
		if !retryable {
			log.Printf("[GEMINI] Permanent error (attempt %d): %v", attempt, err)
			return "", err
		}

		log.Printf("[GEMINI] Transient error (attempt %d): %v", attempt, err)
		if attempt < maxAttempts {
			wait := c.backoff(attempt)
			log.Printf("[GEMINI] Retrying in %s", wait)
			time.Sleep(wait)
		}
	}

	log.Printf("[GEMINI] All %d attempts failed for %q", maxAttempts, productName)
	return "", lastErr
}

// doGenerate executes one generateContent call. The bool reports whether
// the failure is worth retrying.
func (c *Client) doGenerate(ctx context.Context, reqURL string, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("%w: %v", domain.ErrGeminiAPIFailure, err)
	}
	defer resp.Body.Close()

	respBody, err := readLimitedBody(resp.Body, maxResponseBytes)
	if err != nil {
		return "", true, fmt.Errorf("%w: reading response: %v", domain.ErrGeminiAPIFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.debugLog("error response body: %s", respBody)
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, fmt.Errorf("%w: status %d", domain.ErrGeminiAPIFailure, resp.StatusCode)
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", false, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(genResp.Candidates) == 0 {
		return "", false, fmt.Errorf("%w: no candidates in response", domain.ErrGeminiAPIFailure)
	}

	var b strings.Builder
	for _, p := range genResp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	if b.Len() == 0 {
		return "", false, fmt.Errorf("%w: no parts in response", domain.ErrGeminiAPIFailure)
	}
	return b.String(), false, nil
}

// readLimitedBody reads at most limit bytes of the response body.
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}
