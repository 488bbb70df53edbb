package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/use-agent/tubescope/api/handler"
	"github.com/use-agent/tubescope/config"
	"github.com/use-agent/tubescope/crawl"
	"github.com/use-agent/tubescope/scraper"
	"github.com/use-agent/tubescope/session"
	"github.com/use-agent/tubescope/store"
)

var rootCmd = &cobra.Command{
	Use:           "tubescope",
	Short:         "Scrape YouTube playlist titles, view counts and thumbnails",
	Version:       handler.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, scrapeCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the long-lived pieces every command needs.
type app struct {
	scraper *scraper.Scraper
	store   store.Store
	crawler *crawl.Crawler
}

// newApp launches the browser, opens the store and wires the crawler.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	// ── Browser ──────────────────────────────────────────────────────
	sc, err := scraper.NewScraper(cfg.Browser, cfg.Crawl)
	if err != nil {
		return nil, fmt.Errorf("initialise scraper: %w", err)
	}

	// ── Session store ────────────────────────────────────────────────
	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		sc.Close()
		return nil, fmt.Errorf("initialise %s store: %w", cfg.Store.Driver, err)
	}
	slog.Info("session store ready", "driver", st.Name())

	// ── Crawler ──────────────────────────────────────────────────────
	cr, err := crawl.NewCrawler(sc, session.NewManager(st), cfg.Crawl)
	if err != nil {
		_ = st.Close()
		sc.Close()
		return nil, fmt.Errorf("initialise crawler: %w", err)
	}

	return &app{scraper: sc, store: st, crawler: cr}, nil
}

// Close releases the store and kills the browser.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("store close failed", "error", err)
	}
	a.scraper.Close()
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig, w io.Writer) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(h))
}
