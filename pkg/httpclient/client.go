package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultUserAgent is sent when the caller does not configure one.
const DefaultUserAgent = "techwire/1.0 (+https://github.com/samvad-hq/techwire)"

// Response is the subset of a resty response the harvester relies on.
type Response interface {
	StatusCode() int
	Body() []byte
}

// Client performs outbound HTTP requests for fetchers, the scraper and notifiers.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
	Do(ctx context.Context, method, url string, headers map[string]string, body any) (Response, error)
}

// Option customizes the resty client.
type Option func(*resty.Client)

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *resty.Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.SetHeader("User-Agent", ua)
		}
	}
}

type restyClient struct {
	client *resty.Client
}

// NewRestyClient builds a Client backed by resty with the given request timeout.
// Retries stay disabled: a failed request is reported to the caller as is.
func NewRestyClient(timeout time.Duration, opts ...Option) Client {
	c := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", DefaultUserAgent)
	for _, opt := range opts {
		opt(c)
	}
	return &restyClient{client: c}
}

// Get issues a GET request.
func (r *restyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	return r.Do(ctx, http.MethodGet, url, headers, nil)
}

// Do issues a request with an optional body. Non-2xx statuses are not errors;
// callers inspect StatusCode.
func (r *restyClient) Do(ctx context.Context, method, url string, headers map[string]string, body any) (Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("request url is empty")
	}

	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(strings.ToUpper(method), url)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", strings.ToUpper(method), url, err)
	}
	return resp, nil
}

// IsSuccess reports whether the status code is 2xx.
func IsSuccess(resp Response) bool {
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code >= 200 && code < 300
}
