package presign

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/datadives/project-roodha/pkg/filestore"
)

// Client uploads bytes to a granted URL. The PUT carries exactly the
// Content-Type the grant was signed for; the store rejects anything else.
type Client struct {
	httpClient    *http.Client
	retryAttempts int
	retryDelay    time.Duration
}

// ClientOption is a functional option for configuring a Client
type ClientOption func(*Client)

// NewClient creates a new upload client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Minute, // long timeout for large uploads
		},
		retryAttempts: 3,
		retryDelay:    1 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRetry configures retry behavior for transient upload failures
func WithRetry(attempts int, delay time.Duration) ClientOption {
	return func(c *Client) {
		c.retryAttempts = attempts
		c.retryDelay = delay
	}
}

// Upload performs the direct PUT for a grant. Client errors (4xx) are not
// retried: an expired or tampered URL fails the same way every time.
func (c *Client) Upload(ctx context.Context, grant *filestore.UploadGrant, data io.ReadSeeker) error {
	if grant == nil || grant.URL == "" {
		return fmt.Errorf("upload: grant with URL is required")
	}

	var lastErr error
	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
			if _, err := data.Seek(0, io.SeekStart); err != nil {
				return fmt.Errorf("upload: rewind body: %w", err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, grant.Method, grant.URL, data)
		if err != nil {
			return fmt.Errorf("upload: create request: %w", err)
		}
		req.Header.Set("Content-Type", grant.ContentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("upload failed: %w", err)
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		lastErr = fmt.Errorf("upload failed with status: %s", resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return lastErr
		}
	}

	return fmt.Errorf("upload failed after %d attempts: %w", c.retryAttempts, lastErr)
}
