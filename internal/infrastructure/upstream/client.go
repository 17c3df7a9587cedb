package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"streamgate/internal/core/domain"
	"streamgate/internal/core/ports"
	"streamgate/pkg/tracing"

	"go.uber.org/zap"
)

// Metrics records upstream fetch timings.
type Metrics interface {
	ObserveUpstreamFetch(d time.Duration)
}

type nopClientMetrics struct{}

func (nopClientMetrics) ObserveUpstreamFetch(d time.Duration) {}

// Client issues upstream HTTP requests. Redirects are followed
// transparently up to maxRedirects hops; every attempt carries a fixed
// overall timeout that also covers body reads.
type Client struct {
	http      *http.Client
	userAgent string
	metrics   Metrics
	logger    *zap.SugaredLogger
}

func NewClient(timeout time.Duration, maxRedirects int, userAgent string, metrics Metrics, logger *zap.SugaredLogger) *Client {
	if metrics == nil {
		metrics = nopClientMetrics{}
	}
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return domain.ErrTooManyRedirects
				}
				return nil
			},
		},
		userAgent: userAgent,
		metrics:   metrics,
		logger:    logger,
	}
}

// Fetch issues a request and buffers the whole response body.
func (c *Client) Fetch(ctx context.Context, method, rawURL string, header http.Header, body io.Reader) (*ports.FetchResult, error) {
	resp, err := c.do(ctx, method, rawURL, header, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.translate(err, rawURL)
	}

	return &ports.FetchResult{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   data,
	}, nil
}

// Open issues a GET request and hands the raw response to the caller for
// streaming. The caller owns resp.Body.
func (c *Client) Open(ctx context.Context, rawURL string, header http.Header) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, rawURL, header, nil)
}

func (c *Client) do(ctx context.Context, method, rawURL string, header http.Header, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream request: %w", err)
	}

	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	fetchCtx, span := tracing.TraceUpstreamFetch(ctx, req.URL.Host)
	defer span.End()
	req = req.WithContext(fetchCtx)

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.ObserveUpstreamFetch(time.Since(start))
	if err != nil {
		c.logger.Warnw("upstream request failed",
			"method", method,
			"url", rawURL,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return nil, c.translate(err, rawURL)
	}

	c.logger.Debugw("upstream request",
		"method", method,
		"url", rawURL,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

// translate maps transport errors onto the domain sentinels callers
// dispatch on.
func (c *Client) translate(err error, rawURL string) error {
	if errors.Is(err, domain.ErrTooManyRedirects) {
		return fmt.Errorf("fetching %s: %w", rawURL, domain.ErrTooManyRedirects)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("fetching %s: %w", rawURL, domain.ErrUpstreamTimeout)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("fetching %s: %w", rawURL, domain.ErrUpstreamTimeout)
	}

	return fmt.Errorf("fetching %s: %w", rawURL, err)
}
