package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/use-agent/tubescope/models"
)

// ErrRequestBudgetExhausted is returned once a job has used up its
// MaxRequests navigation attempts.
var ErrRequestBudgetExhausted = errors.New("scraper: request budget exhausted")

// JobOptions bounds the sub-requests of one crawl job.
type JobOptions struct {
	// MaxRequests caps navigation attempts, retries included. Zero means no cap.
	MaxRequests int

	// MaxRetries is how many times a failed navigation is retried.
	MaxRetries int

	// NavigationTimeout bounds each attempt. Zero leaves only ctx's deadline.
	NavigationTimeout time.Duration

	// RetryInterval is the first backoff delay; later ones grow exponentially.
	RetryInterval time.Duration

	// OnRequestFailed is called once when navigation finally gives up.
	OnRequestFailed func(target string, attempts int, err error)
}

// requestBudget counts attempts against a job's ceiling.
type requestBudget struct {
	max  int
	used atomic.Int32
}

func newRequestBudget(limit int) *requestBudget {
	return &requestBudget{max: limit}
}

func (b *requestBudget) take() error {
	n := int(b.used.Add(1))
	if b.max > 0 && n > b.max {
		return ErrRequestBudgetExhausted
	}
	return nil
}

// navigateWithRetry runs nav until it succeeds, the retries run out, the
// budget is spent or ctx ends. The final error is already categorized.
func navigateWithRetry(
	ctx context.Context,
	target string,
	opts JobOptions,
	budget *requestBudget,
	nav func(ctx context.Context) error,
) error {
	attempts := 0
	operation := func() (struct{}, error) {
		if err := budget.take(); err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		attempts++

		navCtx := ctx
		if opts.NavigationTimeout > 0 {
			var cancel context.CancelFunc
			navCtx, cancel = context.WithTimeout(ctx, opts.NavigationTimeout)
			defer cancel()
		}

		if err := nav(navCtx); err != nil {
			if ctx.Err() != nil {
				return struct{}{}, backoff.Permanent(err)
			}
			slog.Warn("navigation attempt failed",
				"url", target,
				"attempt", attempts,
				"error", err,
			)
			return struct{}{}, err
		}
		return struct{}{}, nil
	}

	bo := backoff.NewExponentialBackOff()
	if opts.RetryInterval > 0 {
		bo.InitialInterval = opts.RetryInterval
	}
	bo.MaxInterval = 10 * time.Second

	maxTries := opts.MaxRetries + 1
	if maxTries < 1 {
		maxTries = 1
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(maxTries)),
	)
	if err == nil {
		return nil
	}

	if opts.OnRequestFailed != nil {
		opts.OnRequestFailed(target, attempts, err)
	}
	if errors.Is(err, ErrRequestBudgetExhausted) {
		return models.NewScrapeError(
			models.ErrCodeRequestBudget,
			fmt.Sprintf("gave up after %d navigation attempts", attempts),
			err,
		)
	}
	return categorizeError(err, "navigation to playlist failed")
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can classify them.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
