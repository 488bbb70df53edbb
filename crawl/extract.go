package crawl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/use-agent/tubescope/config"
	"github.com/use-agent/tubescope/models"
	"github.com/use-agent/tubescope/scraper"
)

// Extractor reads playlist items out of a rendered page.
type Extractor struct {
	itemSelector string
	item         cascadia.Selector
	title        cascadia.Selector
	views        cascadia.Selector
	thumbnail    cascadia.Selector
	timeout      time.Duration
}

// NewExtractor compiles the configured selectors. An invalid selector is a
// configuration error and fails here rather than on the first crawl.
func NewExtractor(sel config.SelectorConfig, timeout time.Duration) (*Extractor, error) {
	compiled := make([]cascadia.Selector, 4)
	for i, s := range []string{sel.Item, sel.Title, sel.Views, sel.Thumbnail} {
		c, err := cascadia.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("crawl: invalid selector %q: %w", s, err)
		}
		compiled[i] = c
	}
	return &Extractor{
		itemSelector: sel.Item,
		item:         compiled[0],
		title:        compiled[1],
		views:        compiled[2],
		thumbnail:    compiled[3],
		timeout:      timeout,
	}, nil
}

// Extract waits for the first item container, then snapshots the DOM and
// maps every container to a record. A wait timeout fails the attempt.
func (e *Extractor) Extract(ctx context.Context, page scraper.Page) ([]models.RawVideoRecord, error) {
	if err := page.WaitElements(ctx, e.itemSelector, e.timeout); err != nil {
		if perr := ctx.Err(); perr != nil {
			return nil, models.NewScrapeError(models.ErrCodeTimeout, "extraction interrupted", perr)
		}
		return nil, models.NewScrapeError(
			models.ErrCodeSelectorTimeout,
			fmt.Sprintf("no %q within %s", e.itemSelector, e.timeout),
			err,
		)
	}

	raw, err := page.HTML(ctx)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeCrawlFailure, "failed to snapshot page HTML", err)
	}
	return e.Parse(raw)
}

// Parse maps every item container in rawHTML to a record, in document order.
// Missing fields are left empty; they never drop the record.
func (e *Extractor) Parse(rawHTML string) ([]models.RawVideoRecord, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeCrawlFailure, "failed to parse page HTML", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	items := doc.FindMatcher(e.item)
	records := make([]models.RawVideoRecord, 0, items.Length())
	items.Each(func(_ int, item *goquery.Selection) {
		title := item.FindMatcher(e.title).First()
		titleText := cleanText(title.Text())
		if titleText == "" {
			titleText = cleanText(title.AttrOr("title", ""))
		}
		records = append(records, models.RawVideoRecord{
			Title:        titleText,
			RawViewsText: cleanText(item.FindMatcher(e.views).First().Text()),
			ThumbnailURL: strings.TrimSpace(item.FindMatcher(e.thumbnail).First().AttrOr("src", "")),
		})
	})
	return records, nil
}

// cleanText collapses runs of whitespace and trims the result.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
