// Where: cli/internal/assets/download.go
// What: HTTP fetch with retries and size enforcement.
// Why: Upstream catalogs host assets on flaky CDNs; transient failures
// deserve retries, oversized payloads deserve a fast rejection.
package assets

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/cenkalti/backoff/v4"
)

// download fetches url and returns the body and declared content type.
// Transport and server errors are retried with exponential backoff (1s, 2s,
// 4s); a payload over maxSize is rejected without retrying, before the body
// is fully buffered when the server declares its length.
func (m *Manager) download(ctx context.Context, rawURL string, maxSize int64) ([]byte, string, error) {
	var payload []byte
	var contentType string

	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := m.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			err := fmt.Errorf("unexpected status %s", resp.Status)
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return err
			}
			return backoff.Permanent(err)
		}
		if resp.ContentLength > maxSize {
			return backoff.Permanent(fmt.Errorf(
				"declared size %d exceeds limit %d", resp.ContentLength, maxSize))
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
		if err != nil {
			return err
		}
		if int64(len(body)) > maxSize {
			return backoff.Permanent(fmt.Errorf("payload exceeds limit %d", maxSize))
		}

		payload = body
		contentType = resp.Header.Get("Content-Type")
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = m.retryBase
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	retrier := backoff.WithContext(backoff.WithMaxRetries(policy, maxRetries), ctx)

	if err := backoff.Retry(attempt, retrier); err != nil {
		return nil, "", err
	}
	return payload, contentType, nil
}

// extensionFor picks the stored file extension: the response content type
// first, the URL path suffix second, PNG as the last resort.
func extensionFor(contentType, rawURL string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "image/png":
			return ".png"
		case "image/jpeg":
			return ".jpg"
		case "image/svg+xml":
			return ".svg"
		case "image/gif":
			return ".gif"
		}
	}
	if parsed, err := url.Parse(rawURL); err == nil {
		ext := strings.ToLower(path.Ext(parsed.Path))
		switch ext {
		case ".png", ".jpg", ".jpeg", ".svg", ".gif":
			return ext
		}
	}
	return defaultExtension
}
