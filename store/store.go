// Package store keeps intermediate scrape batches in areas scoped to a
// session key. An area is opened once, receives batches, is read back and
// then deleted; nothing in here outlives a request on purpose.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/use-agent/tubescope/config"
	"github.com/use-agent/tubescope/models"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("store: closed")
	// ErrNotOpen is returned when appending to an area that was never opened.
	ErrNotOpen = errors.New("store: area not open")
	// ErrAreaExists is returned when opening a key that is already in use.
	ErrAreaExists = errors.New("store: area already exists")
	// ErrEmptyKey is returned for an empty area key.
	ErrEmptyKey = errors.New("store: empty key")
)

// Batch is one crawl attempt's worth of records.
type Batch = []models.RawVideoRecord

// Store is a transient, keyed area store. Implementations must isolate areas
// from each other and make Delete safe for keys that hold no data.
type Store interface {
	// Open creates an empty area for key.
	Open(ctx context.Context, key string) error

	// Append adds a batch to an open area.
	Append(ctx context.Context, key string, batch Batch) error

	// ReadAll returns every batch of the area in append order.
	ReadAll(ctx context.Context, key string) ([]Batch, error)

	// Delete drops the area and its batches. Unknown keys are a no-op.
	Delete(ctx context.Context, key string) error

	// Name identifies the driver ("memory", "redis", "sqlite").
	Name() string

	// Close releases the underlying resources.
	Close() error
}

// New builds the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(cfg.TTL), nil
	case "redis":
		return NewRedis(ctx, cfg.RedisURL, cfg.TTL)
	case "sqlite":
		return NewSQLite(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// Flatten concatenates batches in order.
func Flatten(batches []Batch) []models.RawVideoRecord {
	n := 0
	for _, b := range batches {
		n += len(b)
	}
	out := make([]models.RawVideoRecord, 0, n)
	for _, b := range batches {
		out = append(out, b...)
	}
	return out
}
