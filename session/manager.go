// Package session gives each crawl its own uniquely keyed area in a
// store.Store and guarantees the area is released when the crawl ends.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/use-agent/tubescope/models"
	"github.com/use-agent/tubescope/store"
)

// DefaultCleanupTimeout bounds Dispose when the caller's context is gone.
const DefaultCleanupTimeout = 5 * time.Second

// ErrDisposed is returned when committing to or reading from a disposed session.
var ErrDisposed = errors.New("session: already disposed")

// Session is one request's ownership of a store area.
type Session struct {
	ID       string
	disposed atomic.Bool
}

// Disposed reports whether Dispose has run for s.
func (s *Session) Disposed() bool { return s.disposed.Load() }

// Manager opens and disposes sessions over a store.
type Manager struct {
	store          store.Store
	cleanupTimeout time.Duration
	newID          func() string
}

// NewManager creates a Manager backed by st.
func NewManager(st store.Store) *Manager {
	return &Manager{
		store:          st,
		cleanupTimeout: DefaultCleanupTimeout,
		newID:          uuid.NewString,
	}
}

// Open allocates a session with a random UUID and opens its area. On failure
// the area is deleted on a best-effort basis, unless the key was already
// taken, and no session is returned.
func (m *Manager) Open(ctx context.Context) (*Session, error) {
	s := &Session{ID: m.newID()}
	if err := m.store.Open(ctx, s.ID); err != nil {
		// An existing area belongs to another live session; leave it alone.
		if !errors.Is(err, store.ErrAreaExists) {
			if derr := m.Dispose(ctx, s); derr != nil {
				slog.Warn("session: cleanup after failed open", "session_id", s.ID, "error", derr)
			}
		}
		return nil, models.NewScrapeError(models.ErrCodeStorage, "failed to open session store", err)
	}
	slog.Debug("session: opened", "session_id", s.ID, "store", m.store.Name())
	return s, nil
}

// Commit writes one batch of records under s.
func (m *Manager) Commit(ctx context.Context, s *Session, records []models.RawVideoRecord) error {
	if s.Disposed() {
		return ErrDisposed
	}
	if err := m.store.Append(ctx, s.ID, records); err != nil {
		return models.NewScrapeError(models.ErrCodeStorage, "failed to commit batch", err)
	}
	return nil
}

// ReadAll returns every committed record of s in commit order.
func (m *Manager) ReadAll(ctx context.Context, s *Session) ([]models.RawVideoRecord, error) {
	if s.Disposed() {
		return nil, ErrDisposed
	}
	batches, err := m.store.ReadAll(ctx, s.ID)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeStorage, "failed to read session store", err)
	}
	return store.Flatten(batches), nil
}

// Dispose deletes the session's area. Only the first call does any work.
// The delete runs detached from ctx's cancellation so an expired request
// still releases its storage.
func (m *Manager) Dispose(ctx context.Context, s *Session) error {
	if s == nil || !s.disposed.CompareAndSwap(false, true) {
		return nil
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cleanupTimeout)
	defer cancel()

	if err := m.store.Delete(cctx, s.ID); err != nil {
		return fmt.Errorf("session: dispose %s: %w", s.ID, err)
	}
	slog.Debug("session: disposed", "session_id", s.ID)
	return nil
}

// Do opens a session, runs fn with it and disposes it on every exit path,
// panics included. A dispose failure is logged, never returned over fn's error.
func (m *Manager) Do(ctx context.Context, fn func(*Session) error) error {
	s, err := m.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if derr := m.Dispose(ctx, s); derr != nil {
			slog.Warn("session: dispose failed", "session_id", s.ID, "error", derr)
		}
	}()
	return fn(s)
}
