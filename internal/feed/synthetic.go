package feed

import (
	"context"
	"math"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/quantsim/tradesim/internal/types"
)

// SyntheticConfig parameterizes the random-walk candle generator.
type SyntheticConfig struct {
	StartPrice decimal.Decimal
	Drift      float64 // per-candle drift of the log price
	Volatility float64 // per-candle standard deviation of the log price
	BaseVolume decimal.Decimal
	Candles    int
	Seed       int64
}

// DefaultSyntheticConfig returns a mild random walk around 100.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		StartPrice: decimal.NewFromInt(100),
		Drift:      0,
		Volatility: 0.002,
		BaseVolume: decimal.NewFromInt(1000),
		Candles:    1000,
		Seed:       1,
	}
}

// Synthetic generates a deterministic, seeded geometric random walk of
// candles. Two feeds with the same config produce identical streams, which
// keeps reinforcement-learning rollouts reproducible.
type Synthetic struct {
	cfg SyntheticConfig
	rng *rand.Rand
}

// NewSynthetic creates a generator from the given config.
func NewSynthetic(cfg SyntheticConfig) *Synthetic {
	return &Synthetic{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Subscribe starts generating candles.
func (f *Synthetic) Subscribe(ctx context.Context) (<-chan types.Candle, error) {
	ch := make(chan types.Candle, 100)

	go func() {
		defer close(ch)

		price := f.cfg.StartPrice.InexactFloat64()
		for i := 0; i < f.cfg.Candles; i++ {
			candle, next := f.nextCandle(price)
			price = next

			select {
			case <-ctx.Done():
				return
			case ch <- candle:
			}
		}
	}()

	return ch, nil
}

// nextCandle produces one candle starting at open and returns the close
// for the next candle to continue from.
func (f *Synthetic) nextCandle(open float64) (types.Candle, float64) {
	step := f.cfg.Drift + f.cfg.Volatility*f.rng.NormFloat64()
	close := open * math.Exp(step)

	// Wicks extend beyond the body by a fraction of the candle's move.
	body := math.Abs(close - open)
	high := math.Max(open, close) + body*f.rng.Float64()*0.5
	low := math.Min(open, close) - body*f.rng.Float64()*0.5
	if low < 0 {
		low = 0
	}

	volume := f.cfg.BaseVolume.Mul(decimal.NewFromFloat(0.5 + f.rng.Float64()))

	candle := types.Candle{
		Open:   decimal.NewFromFloat(open).Round(6),
		High:   decimal.NewFromFloat(high).Round(6),
		Low:    decimal.NewFromFloat(low).Round(6),
		Close:  decimal.NewFromFloat(close).Round(6),
		Volume: volume.Round(2),
	}
	return candle, close
}

// Close resets the generator state.
func (f *Synthetic) Close() error {
	f.rng = rand.New(rand.NewSource(f.cfg.Seed))
	return nil
}

// Name returns the feed identifier.
func (f *Synthetic) Name() string {
	return "synthetic"
}
