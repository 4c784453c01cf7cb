// Package transport wraps the HTTP client used for artifact downloads.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// ErrBadStatus reports a non-2xx response from the remote server.
var ErrBadStatus = errors.New("unexpected status")

// Client performs streaming GETs against the remote artifact server.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient builds a Client with pooled connections. The timeout bounds the
// wait for response headers, not the body transfer: artifact downloads can
// legitimately run for minutes on slow links.
func NewClient(userAgent string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
	return &Client{
		http:      &http.Client{Transport: transport},
		userAgent: userAgent,
	}
}

// GetStream issues a GET and returns the response body for streaming
// consumption along with the Content-Length hint (-1 when unknown).
// The caller owns closing the returned body.
func (c *Client) GetStream(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request %s: %w", url, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("get %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("%w: %s returned %d", ErrBadStatus, url, resp.StatusCode)
	}
	return resp.Body, resp.ContentLength, nil
}
