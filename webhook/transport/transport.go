package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/marcelsud/webhook-outbox/webhook"
)

const (
	// UserAgent identifies the sender to subscribers
	UserAgent = "webhook-outbox/1.0"

	maxResponseBytes = 64 * 1024
	maxRecordedBody  = 200
)

/* Client sends one signed POST per call and classifies the result
 * It never retries and never returns an error; every failure is a result
 */
type Client struct {
	client  *http.Client
	timeout time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithTimeout overrides the per-attempt timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the pooled http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// New creates a transport with a pooled http.Client shared by all subscribers
func New(opts ...Option) *Client {
	c := &Client{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout: webhook.DeliveryTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deliver posts body to url with the given headers
func (c *Client) Deliver(ctx context.Context, url string, headers map[string]string, body []byte) webhook.DeliveryResult {
	start := time.Now()
	result := webhook.DeliveryResult{Outcome: webhook.Failure, AttemptedAt: start}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		result.Error = fmt.Sprintf("creating request: %v", err)
		return result
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		result.Duration = time.Since(start)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result.Error = fmt.Sprintf("timeout after %s", c.timeout)
		} else {
			result.Error = err.Error()
		}
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	result.Duration = time.Since(start)
	result.StatusCode = resp.StatusCode
	result.Outcome = webhook.Classify(resp.StatusCode)
	result.ResponseBody = sanitize(respBody)

	if !result.Succeeded() {
		result.Error = fmt.Sprintf("subscriber returned status %d", resp.StatusCode)
	}
	return result
}

// sanitize flattens and truncates a response body for records and logs
func sanitize(body []byte) string {
	s := strings.ReplaceAll(string(body), "\n", " ")
	if len(s) > maxRecordedBody {
		cut := maxRecordedBody
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}
