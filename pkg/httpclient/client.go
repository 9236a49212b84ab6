package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/IgorGrieder/clicktrack/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Options configures a Client. Requests are attempted once; a failing
// upstream is shed by the breaker instead of being retried.
type Options struct {
	Name        string
	Timeout     time.Duration
	MaxFailures int
	OpenTimeout time.Duration
	HTTPClient  *http.Client
}

type Client struct {
	name   string
	client *http.Client
	cb     *CircuitBreaker
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		name:   opts.Name,
		client: httpClient,
		cb:     NewCircuitBreaker(opts.Name, opts.MaxFailures, opts.OpenTimeout),
	}
}

func (c *Client) Get(ctx context.Context, baseURL string, queryParams map[string]string, headers map[string]string) (*http.Response, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing url: %w", err)
	}
	if len(queryParams) > 0 {
		q := u.Query()
		for k, v := range queryParams {
			q.Add(k, v)
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.do(req)
}

// do sends req once through the breaker. 5xx and 429 responses count as
// upstream failures and are returned as errors.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if err := c.cb.CheckBeforeRequest(); err != nil {
		return nil, err
	}

	response, err := c.client.Do(req)
	if err != nil {
		c.cb.OnFailure()
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if isUpstreamFailure(response.StatusCode) {
		c.cb.OnFailure()
		status := response.Status
		response.Body.Close()
		logger.Debug("upstream failure",
			zap.String("client", c.name),
			zap.Int("status", response.StatusCode),
			zap.String("breaker", c.cb.State().String()),
		)
		return nil, fmt.Errorf("request failed, status: %s", status)
	}

	c.cb.OnSuccess()
	return response, nil
}

func isUpstreamFailure(status int) bool {
	return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}
