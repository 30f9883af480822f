// Package feed provides candle sources for driving a simulator: CSV files,
// in-memory slices, and a synthetic generator.
package feed

import (
	"context"

	"github.com/quantsim/tradesim/internal/types"
)

// Feed defines a source of market candles.
type Feed interface {
	// Subscribe starts streaming candles. The channel closes when the
	// source is exhausted or the context is cancelled.
	Subscribe(ctx context.Context) (<-chan types.Candle, error)

	// Close releases resources held by the feed.
	Close() error

	// Name returns the feed identifier (e.g. "csv", "synthetic").
	Name() string
}

// MemoryFeed streams candles from a pre-loaded slice. Useful for tests.
type MemoryFeed struct {
	candles []types.Candle
}

// NewMemoryFeed creates a feed from pre-loaded candles.
func NewMemoryFeed(candles []types.Candle) *MemoryFeed {
	return &MemoryFeed{candles: candles}
}

// Subscribe starts sending candles from memory.
func (f *MemoryFeed) Subscribe(ctx context.Context) (<-chan types.Candle, error) {
	ch := make(chan types.Candle, len(f.candles))

	go func() {
		defer close(ch)
		for _, c := range f.candles {
			select {
			case <-ctx.Done():
				return
			case ch <- c:
			}
		}
	}()

	return ch, nil
}

// Close is a no-op for memory feeds.
func (f *MemoryFeed) Close() error {
	return nil
}

// Name returns the feed identifier.
func (f *MemoryFeed) Name() string {
	return "memory"
}

// Add appends a candle to the feed.
func (f *MemoryFeed) Add(c types.Candle) {
	f.candles = append(f.candles, c)
}

// Len returns the number of loaded candles.
func (f *MemoryFeed) Len() int {
	return len(f.candles)
}
