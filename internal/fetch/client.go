// Package fetch downloads webhook attachments. Failures here are
// per-document by definition; the caller decides whether to skip the URL.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	http     *http.Client
	maxBytes int64
}

func NewClient(timeout time.Duration, maxBytes int64) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = 25 << 20
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// Download fetches url and returns the body, capped at maxBytes.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("download %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", url, err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("download %s: body exceeds %d bytes", url, c.maxBytes)
	}
	return data, nil
}
