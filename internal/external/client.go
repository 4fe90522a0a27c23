package external

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// retryingClient wraps an HTTP client with exponential backoff on rate limits.
type retryingClient struct {
	httpClient *http.Client
	baseDelay  time.Duration
	maxRetries int
}

func newRetryingClient(baseDelay time.Duration, maxRetries int) *retryingClient {
	return &retryingClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseDelay:  baseDelay,
		maxRetries: maxRetries,
	}
}

// get fetches a URL, retrying HTTP 429 responses with exponential backoff.
// Other non-200 statuses fail immediately.
func (c *retryingClient) get(ctx context.Context, source, url string) ([]byte, error) {
	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if attempt > 0 {
			baseDelay := c.baseDelay
			if baseDelay == 0 {
				baseDelay = 10 * time.Second
			}
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating %s request: %w", source, err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s request failed: %w", source, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s response: %w", source, err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("%s rate limited (attempt %d/%d)", source, attempt+1, c.maxRetries+1)
			continue
		}

		return nil, fmt.Errorf("%s HTTP %d: %s", source, resp.StatusCode, string(body))
	}

	return nil, lastErr
}
