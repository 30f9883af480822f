package feed

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/quantsim/tradesim/internal/types"
)

// Replay wraps another feed and paces its candles at a fixed rate, for
// demo runs and live-like replays. A rate of 0 passes candles through
// unthrottled.
type Replay struct {
	inner     Feed
	perSecond float64
	limiter   *rate.Limiter
}

// NewReplay paces the inner feed at candlesPerSecond.
func NewReplay(inner Feed, candlesPerSecond float64) *Replay {
	r := &Replay{inner: inner, perSecond: candlesPerSecond}
	if candlesPerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(candlesPerSecond), 1)
	}
	return r
}

// Subscribe starts streaming the inner feed's candles at the configured pace.
func (r *Replay) Subscribe(ctx context.Context) (<-chan types.Candle, error) {
	inner, err := r.inner.Subscribe(ctx)
	if err != nil {
		return nil, err
	}
	if r.limiter == nil {
		return inner, nil
	}

	ch := make(chan types.Candle)

	go func() {
		defer close(ch)
		for candle := range inner {
			if err := r.limiter.Wait(ctx); err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case ch <- candle:
			}
		}
	}()

	return ch, nil
}

// Close closes the inner feed.
func (r *Replay) Close() error {
	return r.inner.Close()
}

// Name returns the feed identifier.
func (r *Replay) Name() string {
	return "replay(" + r.inner.Name() + ")"
}
