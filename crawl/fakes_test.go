package crawl

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/use-agent/tubescope/config"
	"github.com/use-agent/tubescope/scraper"
	"github.com/use-agent/tubescope/store"
)

// fakePage is an in-memory scraper.Page. Heights are served in order and
// the last one repeats; grow makes the page extend on every measurement.
type fakePage struct {
	mu       sync.Mutex
	heights  []int
	grow     bool
	measures int
	scrolls  int
	html     string

	waitedFor   string
	waitTimeout time.Duration

	// latency delays every script evaluation, like a CDP round trip.
	latency    time.Duration
	scrolledAt []time.Time
	measuredAt []time.Time

	WaitErr   error
	ScrollErr error
	HTMLErr   error
}

func (p *fakePage) WaitElements(ctx context.Context, selector string, timeout time.Duration) error {
	p.mu.Lock()
	p.waitedFor, p.waitTimeout = selector, timeout
	p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.WaitErr
}

func (p *fakePage) ScrollHeight(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.mu.Lock()
	p.measuredAt = append(p.measuredAt, time.Now())
	p.mu.Unlock()
	time.Sleep(p.latency)

	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { p.measures++ }()
	if p.grow {
		return 1000 * (p.measures + 1), nil
	}
	if len(p.heights) == 0 {
		return 1000, nil
	}
	return p.heights[min(p.measures, len(p.heights)-1)], nil
}

func (p *fakePage) ScrollToBottom(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ScrollErr != nil {
		return p.ScrollErr
	}
	time.Sleep(p.latency)
	p.mu.Lock()
	p.scrolls++
	p.scrolledAt = append(p.scrolledAt, time.Now())
	p.mu.Unlock()
	return nil
}

func (p *fakePage) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.HTMLErr != nil {
		return "", p.HTMLErr
	}
	return p.html, nil
}

// fakeBrowser hands out one fakePage and counts opens and releases.
type fakeBrowser struct {
	mu       sync.Mutex
	page     *fakePage
	OpenErr  error
	opens    int
	releases int
	target   string
	opts     scraper.JobOptions
}

func (b *fakeBrowser) Open(_ context.Context, target string, opts scraper.JobOptions) (scraper.Page, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opens++
	b.target, b.opts = target, opts
	if b.OpenErr != nil {
		return nil, nil, b.OpenErr
	}
	return b.page, func() {
		b.mu.Lock()
		b.releases++
		b.mu.Unlock()
	}, nil
}

// countingStore wraps a memory store and counts area opens and deletes.
type countingStore struct {
	*store.Memory

	mu      sync.Mutex
	opens   int
	deletes int
	OpenErr error
}

func newCountingStore() *countingStore {
	return &countingStore{Memory: store.NewMemory(0)}
}

func (c *countingStore) Open(ctx context.Context, key string) error {
	c.mu.Lock()
	c.opens++
	c.mu.Unlock()
	if c.OpenErr != nil {
		return c.OpenErr
	}
	return c.Memory.Open(ctx, key)
}

func (c *countingStore) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	c.deletes++
	c.mu.Unlock()
	return c.Memory.Delete(ctx, key)
}

func testSelectors() config.SelectorConfig {
	return config.SelectorConfig{
		Item:      "ytd-playlist-video-renderer",
		Title:     "#video-title",
		Views:     "#video-info span",
		Thumbnail: "img",
	}
}

func testCrawlConfig() config.CrawlConfig {
	return config.CrawlConfig{
		DefaultTimeout:      5 * time.Second,
		NavigationTimeout:   time.Second,
		SelectorTimeout:     time.Second,
		MaxScrollIterations: 5,
		MaxRequestsPerCrawl: 10,
		MaxRequestRetries:   2,
		Selectors:           testSelectors(),
	}
}

// item describes one playlist entry of a fixture page. Empty fields are
// left out of the markup entirely.
type item struct {
	title, views, thumb string
}

// playlistHTML renders a page shaped like a YouTube playlist.
func playlistHTML(items ...item) string {
	var b strings.Builder
	b.WriteString(`<html><body><ytd-app><div id="contents">`)
	for _, it := range items {
		b.WriteString(`<ytd-playlist-video-renderer class="style-scope">`)
		if it.thumb != "" {
			fmt.Fprintf(&b, `<a id="thumbnail"><yt-image><img class="yt-core-image" src="%s"></yt-image></a>`, it.thumb)
		}
		b.WriteString(`<div id="meta">`)
		if it.title != "" {
			fmt.Fprintf(&b, `<h3><a id="video-title" title="%s">
				%s
			</a></h3>`, it.title, it.title)
		}
		if it.views != "" {
			fmt.Fprintf(&b, `<div id="video-info"><span class="style-scope">%s</span><span>•</span><span>2 years ago</span></div>`, it.views)
		}
		b.WriteString(`</div></ytd-playlist-video-renderer>`)
	}
	b.WriteString(`</div></ytd-app></body></html>`)
	return b.String()
}
