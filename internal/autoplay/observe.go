// Package autoplay drives sessions through the HTTP API without a human.
// Each cycle observes the session, triages the family's condition, decides
// on a choice with a strategy, and acts through the session endpoints.
package autoplay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/talgya/undercurrent/internal/api"
)

// Client talks to the session API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a Client targeting the given API base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Observe fetches a session's current view.
func (c *Client) Observe(ctx context.Context, sessionID string) (api.SessionView, error) {
	var v api.SessionView
	if err := c.fetchJSON(ctx, "/api/v1/sessions/"+sessionID, &v); err != nil {
		return v, fmt.Errorf("fetch session: %w", err)
	}
	return v, nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (c *Client) fetchJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// WaitForAPI polls the status endpoint with exponential backoff until it
// responds, giving up after timeout.
func (c *Client) WaitForAPI(ctx context.Context, timeout time.Duration) error {
	backoff := 500 * time.Millisecond
	maxBackoff := 30 * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		var status map[string]any
		err := c.fetchJSON(ctx, "/api/v1/status", &status)
		if err == nil {
			slog.Info("session API is ready", "url", c.BaseURL)
			return nil
		}
		slog.Info("session API not ready, retrying...", "backoff", backoff, "error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("API at %s not ready: %w", c.BaseURL, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
