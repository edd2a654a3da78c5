// Command undercurrent serves Undercurrent sessions over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/talgya/undercurrent/internal/api"
	"github.com/talgya/undercurrent/internal/config"
	"github.com/talgya/undercurrent/internal/content"
	"github.com/talgya/undercurrent/internal/entropy"
	"github.com/talgya/undercurrent/internal/persistence"
	"github.com/talgya/undercurrent/internal/session"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	slog.Info("Undercurrent starting", "addr", cfg.Addr, "max_turns", cfg.MaxTurns, "session_ttl", cfg.SessionTTL)

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	if err := db.SaveMeta("booted_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		slog.Warn("boot time not recorded", "error", err)
	}

	// ── City content ──────────────────────────────────────────────────
	cities, err := content.Default()
	if err != nil {
		slog.Error("built-in cities failed to load", "error", err)
		os.Exit(1)
	}
	if cfg.ContentDir != "" {
		if err := cities.LoadDir(cfg.ContentDir); err != nil {
			slog.Error("content directory failed to load", "dir", cfg.ContentDir, "error", err)
			os.Exit(1)
		}
	}
	for _, c := range cities.Cities() {
		slog.Info("city loaded", "id", c.ID, "name", c.Name, "neighborhoods", c.Neighborhoods)
	}

	// ── Randomness ────────────────────────────────────────────────────
	opts := session.Options{
		TTL:      cfg.SessionTTL,
		MaxTurns: cfg.MaxTurns,
	}
	switch {
	case cfg.Seed != 0:
		opts.NewRand = session.SeededRand(cfg.Seed)
		slog.Info("seeded randomness: each session derives its own stream", "seed", cfg.Seed)
	case cfg.RandomOrgKey != "":
		opts.Rand = entropy.New(entropy.Options{RandomOrgKey: cfg.RandomOrgKey})
		slog.Info("random.org entropy enabled")
	default:
		opts.Rand = entropy.Crypto{}
	}

	// ── Sessions ──────────────────────────────────────────────────────
	manager := session.NewManager(db, cities, opts)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go manager.RunJanitor(ctx, cfg.PurgeInterval)

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("UNDERCURRENT_ADMIN_KEY not set, admin endpoints will be disabled")
	}
	apiServer := &api.Server{
		Sessions:    manager,
		Cities:      cities,
		Meta:        db,
		Addr:        cfg.Addr,
		AdminKey:    cfg.AdminKey,
		CORSOrigins: cfg.CORSOrigins,
		Limiter:     api.NewRateLimiter(cfg.RateLimit, cfg.RateWindow),
		Started:     time.Now(),
	}
	httpServer := apiServer.Start()

	fmt.Printf("API: http://localhost%s/api/v1/status\n", cfg.Addr)

	// ── Shutdown ──────────────────────────────────────────────────────
	<-ctx.Done()
	slog.Info("received signal, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}
	fmt.Println("Undercurrent stopped.")
}
