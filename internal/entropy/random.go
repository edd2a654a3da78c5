// Package entropy provides the random sources the simulation draws from.
// Every draw is a uniform float in [0, 1). Sources are injected per session so
// concurrent games never share generator state.
package entropy

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Source yields uniform draws in [0, 1).
type Source interface {
	Float() float64
}

// Client provides true random numbers from random.org with a local pool.
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client

	mu        sync.Mutex
	pool      []float64
	refilling bool
}

const lowWater = 10

// NewClient creates a random.org client. Returns nil if apiKey is empty.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:   apiKey,
		endpoint: "https://api.random.org/json-rpc/4/invoke",
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Float returns a random float64 in [0, 1) from the pool. A low pool is
// refilled from random.org in the background; draws never wait on the
// network and fall back to crypto/rand while the pool is empty.
func (c *Client) Float() float64 {
	if c == nil {
		return cryptoRandFloat()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pool) < lowWater && !c.refilling {
		c.refilling = true
		go c.refill()
	}

	if len(c.pool) == 0 {
		return cryptoRandFloat()
	}

	val := c.pool[0]
	c.pool = c.pool[1:]
	return val
}

// Pooled reports how many draws are buffered.
func (c *Client) Pooled() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pool)
}

func (c *Client) refill() {
	fresh := c.fetch()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pool = append(c.pool, fresh...)
	c.refilling = false
	slog.Debug("random.org pool refilled", "added", len(fresh), "count", len(c.pool))
}

// fetch asks random.org for a batch of fractions. Returns nil on any failure.
func (c *Client) fetch() []float64 {
	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateDecimalFractions",
		"params": map[string]any{
			"apiKey":        c.apiKey,
			"n":             100,
			"decimalPlaces": 6,
		},
		"id": 1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		slog.Debug("random.org marshal failed", "error", err)
		return nil
	}

	resp, err := c.client.Post(c.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		slog.Debug("random.org fetch failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Debug("random.org read failed", "error", err)
		return nil
	}

	var result struct {
		Result struct {
			Random struct {
				Data []float64 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		slog.Debug("random.org parse failed", "error", err)
		return nil
	}

	if result.Error != nil {
		slog.Debug("random.org API error", "error", result.Error.Message)
		return nil
	}

	var out []float64
	for _, v := range result.Result.Random.Data {
		// 6 decimal places can round up to exactly 1.
		if v >= 0 && v < 1 {
			out = append(out, v)
		}
	}
	return out
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// cryptoRandFloat generates a random float64 using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// Crypto draws from crypto/rand. The zero value is ready to use.
type Crypto struct{}

// Float implements Source.
func (Crypto) Float() float64 {
	return cryptoRandFloat()
}
