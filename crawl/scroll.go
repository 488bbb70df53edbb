package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/tubescope/config"
	"github.com/use-agent/tubescope/models"
	"github.com/use-agent/tubescope/scraper"
)

// ErrScrollTimeout is returned when the page keeps growing past the
// iteration or duration cap.
var ErrScrollTimeout = errors.New("crawl: page did not stabilize")

// Scroller scrolls a page until its height stops changing.
type Scroller struct {
	// SettleInterval is the pause after each scroll. Zero disables pacing.
	SettleInterval time.Duration

	// MaxIterations caps the number of scrolls. Zero means no cap.
	MaxIterations int

	// MaxDuration caps the total time spent. Zero means no cap.
	MaxDuration time.Duration
}

// NewScroller returns a Scroller configured from cfg.
func NewScroller(cfg config.CrawlConfig) *Scroller {
	return &Scroller{
		SettleInterval: cfg.SettleInterval,
		MaxIterations:  cfg.MaxScrollIterations,
		MaxDuration:    cfg.MaxScrollDuration,
	}
}

// ScrollUntilStable measures the height, scrolls to the bottom, waits one
// settle interval and measures again, until two consecutive measurements
// agree. Exceeding MaxIterations or MaxDuration yields ErrScrollTimeout.
func (s *Scroller) ScrollUntilStable(ctx context.Context, page scraper.Page) error {
	parent := ctx
	if s.MaxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.MaxDuration)
		defer cancel()
	}

	prev, err := page.ScrollHeight(ctx)
	if err != nil {
		return s.interrupted(parent, 0, err)
	}

	for i := 1; s.MaxIterations <= 0 || i <= s.MaxIterations; i++ {
		if err := page.ScrollToBottom(ctx); err != nil {
			return s.interrupted(parent, i, err)
		}
		if err := settle(ctx, s.SettleInterval); err != nil {
			return s.interrupted(parent, i, err)
		}
		cur, err := page.ScrollHeight(ctx)
		if err != nil {
			return s.interrupted(parent, i, err)
		}
		if cur == prev {
			slog.Debug("scroll: page stabilized", "iterations", i, "height", cur)
			return nil
		}
		slog.Debug("scroll: page grew", "iteration", i, "from", prev, "to", cur)
		prev = cur
	}

	return scrollTimeout(fmt.Sprintf("page still growing after %d scrolls", s.MaxIterations))
}

// interrupted classifies an error hit mid-loop. The caller's own deadline or
// cancellation wins; otherwise a deadline means our duration cap fired.
func (s *Scroller) interrupted(parent context.Context, iteration int, err error) error {
	if perr := parent.Err(); perr != nil {
		return models.NewScrapeError(models.ErrCodeTimeout, "scroll interrupted", perr)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return scrollTimeout(fmt.Sprintf("page still growing after %s (%d scrolls)", s.MaxDuration, iteration))
	}
	return models.NewScrapeError(models.ErrCodeCrawlFailure, "scroll script failed", err)
}

// settle blocks for d, counted from the moment it is called, or until ctx ends.
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func scrollTimeout(msg string) error {
	return models.NewScrapeError(models.ErrCodeScrollTimeout, msg, ErrScrollTimeout)
}
