package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single answer request when no client is supplied.
const DefaultTimeout = 30 * time.Second

// ErrMissingAnswer is returned when a 2xx body has no answer field.
var ErrMissingAnswer = errors.New("answer: response has no answer field")

// Asker posts a question to an answer endpoint.
type Asker interface {
	Ask(ctx context.Context, endpoint, question string) (string, error)
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer *string `json:"answer"`
}

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("answer: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// Client is a JSON client for the remote answer service.
type Client struct {
	httpClient *http.Client
	headers    http.Header
}

type Option func(*Client)

// WithHTTPClient replaces the transport used for requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithHeader adds a header sent on every request, e.g. a tunnel bypass flag.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		key = strings.TrimSpace(key)
		if key != "" {
			c.headers.Set(key, value)
		}
	}
}

// WithHeaders adds every entry of headers.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			WithHeader(k, v)(c)
		}
	}
}

// NewClient builds a Client. Without options it uses a DefaultTimeout client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: DefaultTimeout}
}

// Ask posts {"question": question} to endpoint and returns the answer field.
func (c *Client) Ask(ctx context.Context, endpoint, question string) (string, error) {
	if strings.TrimSpace(endpoint) == "" {
		return "", errors.New("answer: endpoint must not be empty")
	}

	body, err := json.Marshal(askRequest{Question: question})
	if err != nil {
		return "", fmt.Errorf("answer: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("answer: create request: %w", err)
	}
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	raw, err := c.doJSONRequest(req, endpoint)
	if err != nil {
		return "", fmt.Errorf("answer: request failed: %w", err)
	}

	var payload askResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("answer: decode response: %w", err)
	}
	if payload.Answer == nil {
		return "", ErrMissingAnswer
	}
	return *payload.Answer, nil
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}
