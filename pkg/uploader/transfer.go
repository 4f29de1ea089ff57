package uploader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Transferer writes one part body to its upload address and returns the
// storage tag for it.
type Transferer interface {
	Transfer(ctx context.Context, address string, body io.Reader, size int64) (string, error)
}

// HTTPTransferer PUTs part bodies to presigned URLs and reads the tag from the
// ETag response header.
type HTTPTransferer struct {
	client *http.Client
}

// NewHTTPTransferer creates a transferer. A nil client gets a transport with no
// overall timeout; deadlines come from the caller's context.
func NewHTTPTransferer(client *http.Client) *HTTPTransferer {
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConnsPerHost:   16,
				IdleConnTimeout:       90 * time.Second,
				ResponseHeaderTimeout: 2 * time.Minute,
			},
		}
	}
	return &HTTPTransferer{client: client}
}

func (t *HTTPTransferer) Transfer(ctx context.Context, address string, body io.Reader, size int64) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, address, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("storage responded %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	tag := strings.Trim(resp.Header.Get("ETag"), `"`)
	if tag == "" {
		return "", fmt.Errorf("storage response has no ETag header")
	}
	return tag, nil
}
