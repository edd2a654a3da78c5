package entropy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestSeededIsReproducible(t *testing.T) {
	a := NewSeeded(7)
	b := NewSeeded(7)
	for i := 0; i < 100; i++ {
		x, y := a.Float(), b.Float()
		if x != y {
			t.Fatalf("draw %d: %v != %v", i, x, y)
		}
		if x < 0 || x >= 1 {
			t.Fatalf("draw %d out of range: %v", i, x)
		}
	}
}

func TestSequenceCycles(t *testing.T) {
	s := NewSequence(0.1, 0.9)
	want := []float64{0.1, 0.9, 0.1, 0.9}
	for i, w := range want {
		if got := s.Float(); got != w {
			t.Fatalf("draw %d: got %v want %v", i, got, w)
		}
	}
	if s.Draws() != 4 {
		t.Fatalf("expected 4 draws, got %d", s.Draws())
	}
	if NewSequence().Float() != 0 {
		t.Fatal("empty sequence should yield 0")
	}
}

func TestCryptoRange(t *testing.T) {
	var c Crypto
	for i := 0; i < 1000; i++ {
		if v := c.Float(); v < 0 || v >= 1 {
			t.Fatalf("crypto draw out of range: %v", v)
		}
	}
}

func TestNilClientFallsBack(t *testing.T) {
	var c *Client
	if c.Enabled() {
		t.Fatal("nil client must not be enabled")
	}
	if v := c.Float(); v < 0 || v >= 1 {
		t.Fatalf("fallback out of range: %v", v)
	}
	if NewClient("") != nil {
		t.Fatal("empty key should yield nil client")
	}
}

func waitForPool(t *testing.T, c *Client) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for c.Pooled() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("pool never refilled")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClientRefillsFromAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var resp struct {
			Result struct {
				Random struct {
					Data []float64 `json:"data"`
				} `json:"random"`
			} `json:"result"`
		}
		resp.Result.Random.Data = []float64{0.25, 1.0, 0.5}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient("key")
	c.endpoint = srv.URL

	// The first draw finds an empty pool and falls back while the refill runs.
	if got := c.Float(); got < 0 || got >= 1 {
		t.Fatalf("fallback draw out of range: %v", got)
	}
	waitForPool(t, c)

	if got := c.Float(); got != 0.25 {
		t.Fatalf("expected first pooled value 0.25, got %v", got)
	}
	// 1.0 is dropped as out of range.
	if got := c.Float(); got != 0.5 {
		t.Fatalf("expected 0.5, got %v", got)
	}
}

func TestClientDrawsDoNotWaitOnSlowAPI(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.Write([]byte(`{"result":{"random":{"data":[0.75]}}}`))
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient("key")
	c.endpoint = srv.URL

	start := time.Now()
	for i := 0; i < 50; i++ {
		if got := c.Float(); got < 0 || got >= 1 {
			t.Fatalf("draw %d out of range: %v", i, got)
		}
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("draws blocked on the API for %v", elapsed)
	}

	// Wait for the hung request to land, then check no second one was started.
	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected one in-flight refill, got %d", n)
	}
}

func TestDeriveSeed(t *testing.T) {
	if DeriveSeed(42, "a") != DeriveSeed(42, "a") {
		t.Fatal("same seed and key should derive the same seed")
	}
	if DeriveSeed(42, "a") == DeriveSeed(42, "b") {
		t.Fatal("different keys should derive different seeds")
	}
	if DeriveSeed(42, "a") == DeriveSeed(43, "a") {
		t.Fatal("different seeds should derive different seeds")
	}
}

func TestNewPicksSource(t *testing.T) {
	if _, ok := New(Options{Seed: 3}).(*Seeded); !ok {
		t.Fatal("seed should select Seeded")
	}
	if _, ok := New(Options{RandomOrgKey: "k"}).(*Client); !ok {
		t.Fatal("key should select Client")
	}
	if _, ok := New(Options{}).(Crypto); !ok {
		t.Fatal("default should be Crypto")
	}
}
