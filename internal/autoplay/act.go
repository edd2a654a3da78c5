package autoplay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/talgya/undercurrent/internal/api"
)

// Create starts a session in cityID.
func (c *Client) Create(ctx context.Context, cityID string) (api.SessionView, error) {
	return c.post(ctx, "/api/v1/sessions", map[string]string{"cityId": cityID}, http.StatusCreated)
}

// Advance runs a session until it needs a decision or closes the turn.
func (c *Client) Advance(ctx context.Context, sessionID string) (api.SessionView, error) {
	return c.post(ctx, "/api/v1/sessions/"+sessionID+"/advance", nil, http.StatusOK)
}

// Choose answers the pending decision.
func (c *Client) Choose(ctx context.Context, sessionID string, choiceIDs []string) (api.SessionView, error) {
	body := map[string][]string{"choiceIds": choiceIDs}
	return c.post(ctx, "/api/v1/sessions/"+sessionID+"/choose", body, http.StatusOK)
}

func (c *Client) post(ctx context.Context, path string, payload any, want int) (api.SessionView, error) {
	var v api.SessionView

	var body io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return v, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, body)
	if err != nil {
		return v, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return v, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return v, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != want {
		return v, fmt.Errorf("POST %s failed (%d): %s", path, resp.StatusCode, bytes.TrimSpace(respBody))
	}

	if err := json.Unmarshal(respBody, &v); err != nil {
		return v, fmt.Errorf("decode response: %w", err)
	}
	return v, nil
}
