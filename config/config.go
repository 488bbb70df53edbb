package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Browser BrowserConfig
	Crawl   CrawlConfig
	Store   StoreConfig
	Log     LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 4

	// DefaultProxy is the proxy URL for all browser traffic.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Stealth injects go-rod/stealth evasions before every navigation.
	Stealth bool // default: true

	// AcceptLanguage is sent with every navigation so view counts render
	// in the "1.2M views" form the normalizer understands.
	AcceptLanguage string // default: "en-US,en;q=0.9"
}

// CrawlConfig controls a single playlist crawl.
type CrawlConfig struct {
	// DefaultTimeout is the hard deadline for a whole crawl.
	DefaultTimeout time.Duration // default: 10m

	// NavigationTimeout bounds a single page.Navigate attempt.
	NavigationTimeout time.Duration // default: 30s

	// SelectorTimeout bounds the wait for the first playlist item.
	SelectorTimeout time.Duration // default: 30s

	// SettleInterval is the pause after each scroll for lazy items to render.
	SettleInterval time.Duration // default: 2s

	// MaxScrollIterations caps the scroll loop.
	MaxScrollIterations int // default: 200

	// MaxScrollDuration caps the total time spent scrolling.
	MaxScrollDuration time.Duration // default: 5m

	// MaxRequestsPerCrawl caps navigation attempts (retries included) per crawl.
	MaxRequestsPerCrawl int // default: 10

	// MaxRequestRetries is the number of retries after a failed navigation.
	MaxRequestRetries int // default: 2

	// BlockedResourceTypes lists resource types the hijack router fails.
	// default: ["Font", "Media"]
	BlockedResourceTypes []string

	// BlockAds fails requests to ad and tracking hosts.
	BlockAds bool // default: true

	// RetryInterval is the initial backoff between navigation attempts.
	RetryInterval time.Duration // default: 1s

	// Selectors locate playlist items and their fields in the rendered DOM.
	Selectors SelectorConfig
}

// SelectorConfig holds the CSS selectors used by the extractor.
type SelectorConfig struct {
	Item      string // default: "ytd-playlist-video-renderer"
	Title     string // default: "#video-title"
	Views     string // default: "#video-info span"
	Thumbnail string // default: "img"
}

// StoreConfig controls where intermediate scrape batches live.
type StoreConfig struct {
	// Driver is "memory", "redis" or "sqlite".
	Driver string // default: "memory"

	// RedisURL is the connection URL for the redis driver.
	RedisURL string // default: "redis://localhost:6379/0"

	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string // default: "tubescope.db"

	// TTL is how long an undisposed session area may live before it is
	// swept. Disposal normally removes it long before.
	TTL time.Duration // default: 1h
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("TUBESCOPE_HOST", "0.0.0.0"),
			Port: envIntOr("TUBESCOPE_PORT", 8080),
			Mode: envOr("TUBESCOPE_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:       envBoolOr("TUBESCOPE_HEADLESS", true),
			MaxPages:       envIntOr("TUBESCOPE_MAX_PAGES", 4),
			DefaultProxy:   os.Getenv("TUBESCOPE_PROXY"),
			NoSandbox:      envBoolOr("TUBESCOPE_NO_SANDBOX", false),
			BrowserBin:     os.Getenv("TUBESCOPE_BROWSER_BIN"),
			Stealth:        envBoolOr("TUBESCOPE_STEALTH", true),
			AcceptLanguage: envOr("TUBESCOPE_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
		},
		Crawl: CrawlConfig{
			DefaultTimeout:      envDurationOr("TUBESCOPE_CRAWL_TIMEOUT", 10*time.Minute),
			NavigationTimeout:   envDurationOr("TUBESCOPE_NAV_TIMEOUT", 30*time.Second),
			SelectorTimeout:     envDurationOr("TUBESCOPE_SELECTOR_TIMEOUT", 30*time.Second),
			SettleInterval:      envDurationOr("TUBESCOPE_SETTLE_INTERVAL", 2*time.Second),
			MaxScrollIterations: envIntOr("TUBESCOPE_MAX_SCROLLS", 200),
			MaxScrollDuration:   envDurationOr("TUBESCOPE_MAX_SCROLL_DURATION", 5*time.Minute),
			MaxRequestsPerCrawl: envIntOr("TUBESCOPE_MAX_REQUESTS", 10),
			MaxRequestRetries:   envIntOr("TUBESCOPE_MAX_RETRIES", 2),
			BlockedResourceTypes: envSliceOr("TUBESCOPE_BLOCKED_RESOURCES", []string{
				"Font", "Media",
			}),
			BlockAds:      envBoolOr("TUBESCOPE_BLOCK_ADS", true),
			RetryInterval: envDurationOr("TUBESCOPE_RETRY_INTERVAL", time.Second),
			Selectors: SelectorConfig{
				Item:      envOr("TUBESCOPE_SELECTOR_ITEM", "ytd-playlist-video-renderer"),
				Title:     envOr("TUBESCOPE_SELECTOR_TITLE", "#video-title"),
				Views:     envOr("TUBESCOPE_SELECTOR_VIEWS", "#video-info span"),
				Thumbnail: envOr("TUBESCOPE_SELECTOR_THUMBNAIL", "img"),
			},
		},
		Store: StoreConfig{
			Driver:     envOr("TUBESCOPE_STORE", "memory"),
			RedisURL:   envOr("TUBESCOPE_REDIS_URL", "redis://localhost:6379/0"),
			SQLitePath: envOr("TUBESCOPE_SQLITE_PATH", "tubescope.db"),
			TTL:        envDurationOr("TUBESCOPE_STORE_TTL", time.Hour),
		},
		Log: LogConfig{
			Level:  envOr("TUBESCOPE_LOG_LEVEL", "info"),
			Format: envOr("TUBESCOPE_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
