package store

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// area holds the batches of one session with its creation timestamp.
type area struct {
	batches   []Batch
	createdAt time.Time
}

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	areas  map[string]*area
	ttl    time.Duration
	closed bool
	stop   chan struct{}
}

// NewMemory creates a Memory store. A background goroutine runs every
// ttl/4 (at least every second, at most every 5 minutes) to drop areas older
// than ttl that were never deleted. A ttl <= 0 disables the sweep.
func NewMemory(ttl time.Duration) *Memory {
	m := &Memory{
		areas: make(map[string]*area),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}
	if ttl > 0 {
		go m.cleanupLoop()
	}
	return m
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Open(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if _, ok := m.areas[key]; ok {
		return ErrAreaExists
	}
	m.areas[key] = &area{createdAt: time.Now()}
	return nil
}

func (m *Memory) Append(_ context.Context, key string, batch Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	a, ok := m.areas[key]
	if !ok {
		return ErrNotOpen
	}
	// Copy so later mutation of the caller's slice cannot reach the store.
	a.batches = append(a.batches, append(Batch(nil), batch...))
	return nil
}

func (m *Memory) ReadAll(_ context.Context, key string) ([]Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	a, ok := m.areas[key]
	if !ok {
		return nil, nil
	}
	out := make([]Batch, len(a.batches))
	for i, b := range a.batches {
		out[i] = append(Batch(nil), b...)
	}
	return out, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.areas, key)
	return nil
}

// Len returns the number of live areas.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.areas)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.areas = nil
	close(m.stop)
	return nil
}

// sweepInterval is ttl/4, kept between one second and five minutes.
func sweepInterval(ttl time.Duration) time.Duration {
	return min(max(ttl/4, time.Second), 5*time.Minute)
}

// cleanupLoop evicts areas older than the ttl.
func (m *Memory) cleanupLoop() {
	ticker := time.NewTicker(sweepInterval(m.ttl))
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			if n := m.sweep(time.Now().Add(-m.ttl)); n > 0 {
				slog.Warn("store: swept abandoned session areas", "count", n)
			}
		}
	}
}

// sweep removes areas created before cutoff and returns how many it removed.
func (m *Memory) sweep(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, a := range m.areas {
		if a.createdAt.Before(cutoff) {
			delete(m.areas, k)
			n++
		}
	}
	return n
}
