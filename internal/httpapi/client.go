package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shapesecurity/gist-migrator/internal/logger"
	"golang.org/x/oauth2"
)

const defaultUserAgent = "gist-migrator"

// maxErrorBody bounds how much of an error response is kept in APIError.
const maxErrorBody = 4096

// Client talks JSON to one platform API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    http.Header
	retry      RetryConfig

	// sleep waits between retries; tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithHeader sets a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// WithRetry overrides the retry policy.
func WithRetry(rc RetryConfig) Option {
	return func(c *Client) { c.retry = rc }
}

// WithTimeout bounds each request attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithSleep replaces the backoff wait.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

// New creates a client for baseURL authenticating with a bearer token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		headers:    http.Header{},
		retry:      DefaultRetryConfig(),
		sleep:      sleepContext,
	}
	c.headers.Set("User-Agent", defaultUserAgent)
	c.headers.Set("Accept", "application/json")

	for _, opt := range opts {
		opt(c)
	}

	base := c.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.httpClient = &http.Client{
		Timeout: c.httpClient.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   base,
		},
	}

	return c
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends a request, retrying transient failures of idempotent methods.
// POST and PATCH are sent exactly once. body, when non-nil, is encoded as
// JSON. Any response that is final (success, a
// non-retryable status, or the last retryable one) is returned to the
// caller, who owns closing its body.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
	}

	maxRetries := c.retry.MaxRetries
	if !isIdempotent(method) {
		maxRetries = 0
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.doOnce(ctx, method, target, payload)

		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%s %s canceled: %w", method, path, ctx.Err())
			}
			if !isRetryableError(err) || attempt >= maxRetries {
				return nil, fmt.Errorf("%s %s failed after %d attempts: %w", method, path, attempt+1, err)
			}
			wait := c.retry.backoff(attempt)
			logger.Warn("Retrying %s %s after error (attempt %d, backoff %v): %v", method, path, attempt+1, wait, err)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, fmt.Errorf("%s %s canceled during retry: %w", method, path, err)
			}
			continue
		}

		if !isRetryableStatus(resp.StatusCode) || attempt >= maxRetries {
			logger.Debug("%s %s -> %d", method, path, resp.StatusCode)
			return resp, nil
		}

		wait, ok := retryAfter(resp)
		if !ok {
			wait = c.retry.backoff(attempt)
		}
		drain(resp)
		logger.Warn("Retrying %s %s after HTTP %d (attempt %d, backoff %v)", method, path, resp.StatusCode, attempt+1, wait)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("%s %s canceled during retry: %w", method, path, err)
		}
	}
}

func (c *Client) doOnce(ctx context.Context, method, target string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// DecodeJSON decodes a successful response into v and closes the body.
// Non-2xx responses become an *APIError.
func DecodeJSON(resp *http.Response, v interface{}) error {
	defer resp.Body.Close()

	if err := CheckStatus(resp); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s response: %w", resp.Request.URL.Path, err)
	}
	return nil
}

// CheckStatus returns an *APIError for a non-2xx response, consuming a
// bounded part of the body for the message.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(msg)),
		Err:        classifyStatus(resp.StatusCode),
	}
	if resp.Request != nil {
		apiErr.Method = resp.Request.Method
		apiErr.URL = resp.Request.URL.Redacted()
	}
	return apiErr
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}
