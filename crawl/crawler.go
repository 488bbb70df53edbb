// Package crawl turns a playlist URL into a PlaylistResult: it opens a
// session, loads the playlist page, scrolls until every item is rendered,
// extracts the items and normalizes their view counts.
package crawl

import (
	"context"
	"errors"
	"log/slog"

	"github.com/use-agent/tubescope/config"
	"github.com/use-agent/tubescope/models"
	"github.com/use-agent/tubescope/playlist"
	"github.com/use-agent/tubescope/scraper"
	"github.com/use-agent/tubescope/session"
	"github.com/use-agent/tubescope/viewcount"
)

// Browser opens a loaded page for a target URL. *scraper.Scraper
// implements it; tests substitute a fake.
type Browser interface {
	Open(ctx context.Context, target string, opts scraper.JobOptions) (scraper.Page, func(), error)
}

// State is a step of a crawl.
type State string

const (
	StateValidating  State = "validating"
	StateSessionOpen State = "session_open"
	StateNavigating  State = "navigating"
	StateScrolling   State = "scrolling"
	StateExtracting  State = "extracting"
	StatePersisting  State = "persisting"
	StateResponding  State = "responding"
	StateDisposed    State = "disposed"
	StateFailed      State = "failed"
)

// Crawler runs one playlist crawl per Run call. It holds no per-crawl state
// and is safe for concurrent use.
type Crawler struct {
	browser   Browser
	sessions  *session.Manager
	scroller  *Scroller
	extractor *Extractor
	cfg       config.CrawlConfig

	// onTransition, when set, observes every state change.
	onTransition func(State)
}

// NewCrawler wires a Crawler. It fails only on invalid selectors.
func NewCrawler(browser Browser, sessions *session.Manager, cfg config.CrawlConfig) (*Crawler, error) {
	extractor, err := NewExtractor(cfg.Selectors, cfg.SelectorTimeout)
	if err != nil {
		return nil, err
	}
	return &Crawler{
		browser:   browser,
		sessions:  sessions,
		scroller:  NewScroller(cfg),
		extractor: extractor,
		cfg:       cfg,
	}, nil
}

// Run crawls the playlist referenced by rawURL. Errors are
// *models.ScrapeError values; models.Classify reports their public kind.
func (c *Crawler) Run(ctx context.Context, rawURL string) (*models.PlaylistResult, error) {
	c.transition(slog.Default(), StateValidating)
	loc, err := playlist.Parse(rawURL)
	if err != nil {
		c.transition(slog.Default(), StateFailed)
		return nil, invalidInput(err)
	}

	if c.cfg.DefaultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.DefaultTimeout)
		defer cancel()
	}

	log := slog.With("playlist_id", loc.ID)
	var result *models.PlaylistResult
	opened := false

	err = c.sessions.Do(ctx, func(s *session.Session) error {
		opened = true
		log := log.With("session_id", s.ID)
		c.transition(log, StateSessionOpen)

		records, err := c.crawl(ctx, log, loc)
		if err != nil {
			return err
		}

		c.transition(log, StatePersisting)
		if err := c.sessions.Commit(ctx, s, records); err != nil {
			return err
		}

		c.transition(log, StateResponding)
		stored, err := c.sessions.ReadAll(ctx, s)
		if err != nil {
			return err
		}
		videos, unparsed := normalize(stored)
		if unparsed > 0 {
			log.Debug("crawl: unparseable view counts", "count", unparsed, "total", len(videos))
		}
		result = models.NewPlaylistResult(videos)
		return nil
	})
	if err != nil {
		c.transition(log, StateFailed)
	}
	if opened {
		c.transition(log, StateDisposed)
	}
	if err != nil {
		log.Error("crawl failed",
			"kind", models.Classify(err),
			"error", err,
		)
		return nil, err
	}

	log.Info("crawl complete", "videos", len(result.VideoList))
	return result, nil
}

// crawl drives the browser through navigation, scrolling and extraction.
func (c *Crawler) crawl(ctx context.Context, log *slog.Logger, loc playlist.Locator) ([]models.RawVideoRecord, error) {
	c.transition(log, StateNavigating)
	page, release, err := c.browser.Open(ctx, loc.TargetURL(), scraper.JobOptions{
		MaxRequests:       c.cfg.MaxRequestsPerCrawl,
		MaxRetries:        c.cfg.MaxRequestRetries,
		NavigationTimeout: c.cfg.NavigationTimeout,
		RetryInterval:     c.cfg.RetryInterval,
		OnRequestFailed: func(target string, attempts int, err error) {
			log.Warn("crawl: request failed", "url", target, "attempts", attempts, "error", err)
		},
	})
	if err != nil {
		return nil, err
	}
	defer release()

	c.transition(log, StateScrolling)
	if err := c.scroller.ScrollUntilStable(ctx, page); err != nil {
		if !errors.Is(err, ErrScrollTimeout) {
			return nil, err
		}
		// Items loaded so far are still worth returning.
		log.Warn("crawl: scroll did not stabilize, extracting what loaded", "error", err)
	}

	c.transition(log, StateExtracting)
	records, err := c.extractor.Extract(ctx, page)
	if err != nil {
		return nil, err
	}
	log.Debug("crawl: extracted items", "count", len(records))
	return records, nil
}

func (c *Crawler) transition(log *slog.Logger, s State) {
	log.Debug("crawl: state", "state", string(s))
	if c.onTransition != nil {
		c.onTransition(s)
	}
}

// normalize converts raw records to VideoRecords one-to-one and in order.
// It also reports how many view texts were not view counts at all.
func normalize(raw []models.RawVideoRecord) ([]models.VideoRecord, int) {
	videos := make([]models.VideoRecord, len(raw))
	unparsed := 0
	for i, r := range raw {
		views, err := viewcount.Parse(r.RawViewsText)
		if err != nil {
			unparsed++
		}
		videos[i] = models.VideoRecord{
			Title:        r.Title,
			Views:        views,
			ThumbnailURL: r.ThumbnailURL,
		}
	}
	return videos, unparsed
}

func invalidInput(err error) error {
	msg := models.MsgURLInvalid
	if errors.Is(err, playlist.ErrMissing) {
		msg = models.MsgURLRequired
	}
	return models.NewScrapeError(models.ErrCodeInvalidInput, msg, err)
}
