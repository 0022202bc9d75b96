package risk

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// traderEntry pairs a per-trader rate.Limiter with the last time it was
// touched, so an idle trader's limiter can be swept by the janitor instead
// of accumulating forever.
type traderEntry struct {
	limiter  *rate.Limiter
	lastSeen int64 // unix nano
}

// traderRateLimiters adapts the reference store's lazily-created,
// TTL-evicted per-key limiter pattern, but -- unlike the reference, which
// shares one rate/burst across every key -- each trader gets its own
// rate/burst taken from that trader's configured max_orders_per_sec.
type traderRateLimiters struct {
	mu      sync.Mutex
	entries map[uint64]*traderEntry
	ttl     time.Duration
}

func newTraderRateLimiters(ttl time.Duration) *traderRateLimiters {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &traderRateLimiters{entries: make(map[uint64]*traderEntry, 1024), ttl: ttl}
}

// configure (re)creates trader's limiter with the given per-second rate,
// called whenever SetTraderLimits installs or changes that trader's
// RiskLimits.
func (s *traderRateLimiters) configure(trader uint64, perSecond int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[trader] = &traderEntry{
		limiter:  rate.NewLimiter(rate.Limit(perSecond), int(perSecond)),
		lastSeen: time.Now().UnixNano(),
	}
}

// allow reports whether trader may submit another order now. A trader with
// no configured limiter (never passed to configure) is rejected, matching
// the reference's is_rate_limited returning true for an unknown trader.
func (s *traderRateLimiters) allow(trader uint64) bool {
	now := time.Now().UnixNano()

	s.mu.Lock()
	e, ok := s.entries[trader]
	s.mu.Unlock()
	if !ok {
		return false
	}
	atomic.StoreInt64(&e.lastSeen, now)
	return e.limiter.Allow()
}

// reset clears every trader's accumulated token state back to full burst,
// mirroring the reference's reset_daily_stats clearing rate_limits_.
func (s *traderRateLimiters) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for trader, e := range s.entries {
		burst := e.limiter.Burst()
		limit := e.limiter.Limit()
		s.entries[trader] = &traderEntry{limiter: rate.NewLimiter(limit, burst), lastSeen: time.Now().UnixNano()}
	}
}

// startJanitor launches the one background goroutine this package owns,
// sweeping limiters idle longer than the configured TTL. Callers run it via
// pkg/safe.GoCtx so a panic here is recovered and logged instead of taking
// down the process.
func (s *traderRateLimiters) startJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *traderRateLimiters) cleanup() {
	cut := time.Now().Add(-s.ttl).UnixNano()
	s.mu.Lock()
	defer s.mu.Unlock()
	for trader, e := range s.entries {
		if atomic.LoadInt64(&e.lastSeen) < cut {
			delete(s.entries, trader)
		}
	}
}
