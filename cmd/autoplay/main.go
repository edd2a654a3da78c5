// Command autoplay plays Undercurrent sessions against a running server
// and logs how they end.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talgya/undercurrent/internal/autoplay"
	"github.com/talgya/undercurrent/internal/config"
	"github.com/talgya/undercurrent/internal/entropy"
)

func main() {
	cfg, err := config.LoadAutoplay()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	strategy, err := autoplay.ParseStrategy(cfg.Strategy)
	if err != nil {
		slog.Error("bad strategy", "error", err)
		os.Exit(1)
	}

	slog.Info("Undercurrent autoplay starting",
		"api_url", cfg.APIURL,
		"city", cfg.City,
		"strategy", strategy,
		"sessions", cfg.Sessions,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := autoplay.NewClient(cfg.APIURL)

	// Wait for the server to answer before the first session.
	if err := client.WaitForAPI(ctx, 5*time.Minute); err != nil {
		slog.Error("session API unavailable", "error", err)
		os.Exit(1)
	}

	journal := &autoplay.Journal{}
	if cfg.Journal != "" {
		journal = autoplay.LoadJournal(cfg.Journal)
	}
	player := &autoplay.Player{
		Client:   client,
		Strategy: strategy,
		Rand:     entropy.Crypto{},
		Journal:  journal,
		Pause:    cfg.Pause,
	}

	for i := 0; i < cfg.Sessions; i++ {
		if _, err := player.Play(ctx, cfg.City); err != nil {
			slog.Error("session failed", "n", i+1, "error", err)
			if ctx.Err() != nil {
				break
			}
		}
	}

	if cfg.Journal != "" {
		if err := journal.Save(cfg.Journal); err != nil {
			slog.Error("journal save failed", "error", err)
		}
	}
	for label, n := range journal.Tally() {
		fmt.Printf("%-20s %d\n", label, n)
	}
	fmt.Println("Autoplay stopped.")
}
