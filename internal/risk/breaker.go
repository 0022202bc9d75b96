package risk

import (
	"math"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// priceBreaker is a single, process-wide circuit breaker trading on
// whether a price sits inside a configured band, adapted from the
// reference's per-gRPC-method Manager: that manager keyed a breaker per
// method and tripped on consecutive RPC failures or failure rate. Here
// there is exactly one breaker, and "failure" means "price outside
// [lower, upper]" rather than a transport error. TripMinRequests is
// effectively 1 (ReadyToTrip fires on the very first out-of-band call) so
// a single breach latches the breaker open immediately, matching the
// reference CircuitBreaker's is_triggered_ latch.
type priceBreaker struct {
	mu     sync.Mutex
	cb     *gobreaker.CircuitBreaker[struct{}]
	lower  int64
	upper  int64
}

func newPriceBreaker(cfg CircuitBreakerConfig) *priceBreaker {
	b := &priceBreaker{}
	b.setLimits(cfg)
	return b
}

func (b *priceBreaker) setLimits(cfg CircuitBreakerConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lower = int64(float64(cfg.ReferencePrice) * (1.0 - cfg.Percentage))
	b.upper = int64(float64(cfg.ReferencePrice) * (1.0 + cfg.Percentage))
	b.cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "price-band",
		MaxRequests: 1,
		Interval:    0, // no rolling window
		// gobreaker half-opens after Timeout; the longest Duration keeps
		// the latch open until an explicit reset or setLimits.
		Timeout: time.Duration(math.MaxInt64),
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 1
		},
	})
}

// check reports whether price is currently allowed to trade. A price
// outside the configured band both trips the breaker (if not already open)
// and is itself rejected; every call made while already open is rejected
// too, without needing a fresh out-of-band price.
func (b *priceBreaker) check(price int64) bool {
	b.mu.Lock()
	cb, lower, upper := b.cb, b.lower, b.upper
	b.mu.Unlock()

	_, err := cb.Execute(func() (struct{}, error) {
		if price < lower || price > upper {
			return struct{}{}, errOutOfBand
		}
		return struct{}{}, nil
	})
	return err == nil
}

// reset rebuilds the breaker from the current band, discarding any latched
// open state -- gobreaker exposes no manual reset, so recreating the
// instance is the idiomatic way to emulate the reference's
// resume_trading().
func (b *priceBreaker) reset() {
	b.mu.Lock()
	cfg := CircuitBreakerConfig{}
	if b.lower != 0 || b.upper != 0 {
		// Rebuild the reference/percentage from the stored bounds, so the
		// band stays the one last configured, up to integer rounding.
		cfg.ReferencePrice = (b.lower + b.upper) / 2
		if cfg.ReferencePrice != 0 {
			cfg.Percentage = float64(b.upper-cfg.ReferencePrice) / float64(cfg.ReferencePrice)
		}
	}
	b.mu.Unlock()
	b.setLimits(cfg)
}

var errOutOfBand = breakerError("risk: price outside circuit breaker band")

type breakerError string

func (e breakerError) Error() string { return string(e) }
