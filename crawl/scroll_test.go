package crawl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/tubescope/models"
)

func TestScrollUntilStable_StopsOnEqualHeights(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		heights     []int
		wantScrolls int
	}{
		{"already stable", []int{1000}, 1},
		{"grows twice", []int{1000, 2000, 3000, 3000}, 3},
		{"shrinks then holds", []int{3000, 2500, 2500}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			page := &fakePage{heights: tt.heights}
			s := &Scroller{MaxIterations: 10}

			require.NoError(t, s.ScrollUntilStable(context.Background(), page))
			assert.Equal(t, tt.wantScrolls, page.scrolls)
		})
	}
}

func TestScrollUntilStable_IterationCap(t *testing.T) {
	t.Parallel()
	page := &fakePage{grow: true}
	s := &Scroller{MaxIterations: 4}

	err := s.ScrollUntilStable(context.Background(), page)

	assert.ErrorIs(t, err, ErrScrollTimeout)
	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodeScrollTimeout, se.Code)
	assert.Equal(t, models.ErrCodeCrawlFailure, se.Kind())
	assert.Equal(t, 4, page.scrolls)
}

func TestScrollUntilStable_DurationCap(t *testing.T) {
	t.Parallel()
	page := &fakePage{grow: true}
	s := &Scroller{SettleInterval: 50 * time.Millisecond, MaxDuration: 120 * time.Millisecond}

	start := time.Now()
	err := s.ScrollUntilStable(context.Background(), page)

	assert.ErrorIs(t, err, ErrScrollTimeout)
	assert.Less(t, time.Since(start), time.Second)
	assert.GreaterOrEqual(t, page.scrolls, 1)
}

func TestScrollUntilStable_WaitsSettleInterval(t *testing.T) {
	t.Parallel()
	page := &fakePage{heights: []int{1000, 2000, 2000}}
	s := &Scroller{SettleInterval: 20 * time.Millisecond, MaxIterations: 10}

	start := time.Now()
	require.NoError(t, s.ScrollUntilStable(context.Background(), page))

	assert.Equal(t, 2, page.scrolls)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestScrollUntilStable_SettleStartsAfterScroll(t *testing.T) {
	t.Parallel()
	const interval = 100 * time.Millisecond
	page := &fakePage{heights: []int{1000, 2000, 3000, 4000, 4000}, latency: 30 * time.Millisecond}
	s := &Scroller{SettleInterval: interval, MaxIterations: 10}

	require.NoError(t, s.ScrollUntilStable(context.Background(), page))

	require.Equal(t, 4, page.scrolls)
	require.Len(t, page.measuredAt, 5)
	for i, scrolled := range page.scrolledAt {
		// measuredAt[0] is the baseline taken before the first scroll.
		pause := page.measuredAt[i+1].Sub(scrolled)
		assert.GreaterOrEqual(t, pause, interval, "pause after scroll %d", i+1)
	}
}

func TestScrollUntilStable_CallerCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &Scroller{MaxIterations: 10}

	err := s.ScrollUntilStable(ctx, &fakePage{})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrScrollTimeout)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScrollUntilStable_ScriptError(t *testing.T) {
	t.Parallel()
	page := &fakePage{ScrollErr: errors.New("Execution context was destroyed")}
	s := &Scroller{MaxIterations: 10}

	err := s.ScrollUntilStable(context.Background(), page)

	assert.NotErrorIs(t, err, ErrScrollTimeout)
	assert.Equal(t, models.ErrCodeCrawlFailure, models.Classify(err))
}
