package scraper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/tubescope/models"
)

// Page is what the crawl pipeline needs from a loaded tab. Keeping it this
// small lets the scroll and extraction logic run against a fake DOM.
type Page interface {
	// WaitElements blocks until selector matches at least one element or
	// timeout elapses.
	WaitElements(ctx context.Context, selector string, timeout time.Duration) error

	// ScrollHeight returns document.documentElement.scrollHeight.
	ScrollHeight(ctx context.Context) (int, error)

	// ScrollToBottom scrolls the window to the current document bottom.
	ScrollToBottom(ctx context.Context) error

	// HTML returns a snapshot of the rendered document.
	HTML(ctx context.Context) (string, error)
}

// Open borrows a tab, prepares it and navigates to target.
//
// Lifecycle:
//
//  1. Acquire page           – borrow a tab from the pool (or create one)
//  2. Release func           – about:blank + return to pool (leak prevention)
//  3. Stealth injection      – mask navigator.webdriver etc. (before navigation!)
//  4. Extra headers          – Accept-Language so counts render as "1.2M views"
//  5. Hijack mount           – block fonts/media/ad hosts (before navigation!)
//  6. Navigate with retry    – bounded by JobOptions
//
// On success the caller owns the returned release func and must call it
// exactly once; on error the page has already been released.
func (s *Scraper) Open(ctx context.Context, target string, opts JobOptions) (Page, func(), error) {
	// ── 1. Acquire page from pool ─────────────────────────────────────
	s.activePages.Add(1)

	page, acquireErr := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		s.activePages.Add(-1)
		return nil, nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			acquireErr,
		)
	}

	// ── 2. Release: prevent DOM memory leak + guarantee pool return ───
	var router *rod.HijackRouter
	var once sync.Once
	release := func() {
		once.Do(func() {
			if router != nil {
				_ = router.Stop()
			}
			// Uses the original page reference, so cleanup still works
			// after the request context has expired.
			if navErr := page.Navigate("about:blank"); navErr != nil {
				slog.Warn("cleanup: failed to navigate to about:blank",
					"error", navErr,
				)
			}
			s.pagePool.Put(page)
			s.activePages.Add(-1)
		})
	}

	// ── 3. Stealth injection ──────────────────────────────────────────
	if s.browserCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	// ── 4. Extra headers ──────────────────────────────────────────────
	if s.browserCfg.AcceptLanguage != "" {
		headers := map[string]string{"Accept-Language": s.browserCfg.AcceptLanguage}
		if err := (proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}).Call(page); err != nil {
			slog.Warn("failed to set extra headers", "error", err)
		}
	}

	// ── 5. Mount hijack router ────────────────────────────────────────
	router = setupHijack(page, s.crawlCfg.BlockedResourceTypes, s.crawlCfg.BlockAds)

	// ── 6. Navigate ───────────────────────────────────────────────────
	budget := newRequestBudget(opts.MaxRequests)
	err := navigateWithRetry(ctx, target, opts, budget, func(navCtx context.Context) error {
		p := page.Context(navCtx)
		if err := p.Navigate(target); err != nil {
			return err
		}
		return p.WaitLoad()
	})
	if err != nil {
		release()
		return nil, nil, err
	}

	slog.Debug("page ready", "url", target, "navigations", budget.used.Load())
	return &rodPage{page: page}, release, nil
}

// rodPage adapts a pooled *rod.Page to Page. Every call binds ctx so the
// crawl deadline reaches the CDP round trip.
type rodPage struct {
	page *rod.Page
}

func (r *rodPage) WaitElements(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return r.page.Context(waitCtx).WaitElementsMoreThan(selector, 0)
}

func (r *rodPage) ScrollHeight(ctx context.Context) (int, error) {
	res, err := r.page.Context(ctx).Eval(`() => document.documentElement.scrollHeight`)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

func (r *rodPage) ScrollToBottom(ctx context.Context) error {
	_, err := r.page.Context(ctx).Eval(`() => window.scrollTo(0, document.documentElement.scrollHeight)`)
	return err
}

func (r *rodPage) HTML(ctx context.Context) (string, error) {
	return r.page.Context(ctx).HTML()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
