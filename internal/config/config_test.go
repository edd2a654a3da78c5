package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoadServerDefaults(t *testing.T) {
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.MaxTurns != 80 || cfg.SessionTTL != 72*time.Hour {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.AdminKey != "" || cfg.Seed != 0 {
		t.Fatalf("unexpected values: %+v", cfg)
	}
}

func TestLoadServerOverrides(t *testing.T) {
	t.Setenv("UNDERCURRENT_ADDR", ":9999")
	t.Setenv("UNDERCURRENT_SEED", "42")
	t.Setenv("UNDERCURRENT_SESSION_TTL", "90m")
	t.Setenv("UNDERCURRENT_CORS_ORIGINS", "http://a.test,http://b.test")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.Seed != 42 || cfg.SessionTTL != 90*time.Minute {
		t.Fatalf("cfg = %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("origins = %v", cfg.CORSOrigins)
	}
}

func TestLoadServerParseError(t *testing.T) {
	t.Setenv("UNDERCURRENT_MAX_TURNS", "lots")
	_, err := LoadServer()
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("err = %v", err)
	}
}

func TestServerValidate(t *testing.T) {
	t.Setenv("UNDERCURRENT_MAX_TURNS", "0")
	t.Setenv("UNDERCURRENT_LOG_LEVEL", "chatty")
	_, err := LoadServer()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"UNDERCURRENT_MAX_TURNS", "chatty"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoadAutoplay(t *testing.T) {
	t.Setenv("AUTOPLAY_SESSIONS", "3")
	cfg, err := LoadAutoplay()
	if err != nil {
		t.Fatalf("LoadAutoplay: %v", err)
	}
	if cfg.Sessions != 3 || cfg.City != "riverton" || cfg.Strategy != "cautious" {
		t.Fatalf("cfg = %+v", cfg)
	}

	t.Setenv("AUTOPLAY_SESSIONS", "0")
	if _, err := LoadAutoplay(); err == nil {
		t.Fatal("expected an error for zero sessions")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}
