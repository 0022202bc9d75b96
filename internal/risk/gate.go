package risk

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"matchcore/pkg/safe"
)

// Gate is the pre-trade risk gate: per-trader position/limit state plus a
// single process-wide price circuit breaker, grounded on the reference's
// RiskManager. CheckOrder runs the ordered pipeline in §4.H; every other
// method mutates state that pipeline depends on.
type Gate struct {
	mu             sync.Mutex
	positions      map[uint64]*Position
	limits         map[uint64]RiskLimits
	lastTradePrice int64
	breaker        *priceBreaker
	rateLimiters   *traderRateLimiters
	log            *zap.Logger
}

func NewGate(breakerCfg CircuitBreakerConfig, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{
		positions:    make(map[uint64]*Position, 1024),
		limits:       make(map[uint64]RiskLimits, 1024),
		breaker:      newPriceBreaker(breakerCfg),
		rateLimiters: newTraderRateLimiters(10 * time.Minute),
		log:          log,
	}
}

// StartJanitor launches the rate limiter idle-entry sweeper on its own
// goroutine, recovered via pkg/safe so a panic there can't take down the
// matching process. It returns once ctx is cancelled.
func (g *Gate) StartJanitor(ctx context.Context, every time.Duration) {
	safe.GoCtx(ctx, func(ctx context.Context) {
		g.rateLimiters.startJanitor(ctx, every)
	})
}

// SetTraderLimits installs or replaces a trader's RiskLimits. Invalid
// limits are rejected without mutating any existing state.
func (g *Gate) SetTraderLimits(traderID uint64, limits RiskLimits) error {
	if err := limits.Validate(); err != nil {
		return err
	}
	g.mu.Lock()
	g.limits[traderID] = limits
	if _, ok := g.positions[traderID]; !ok {
		g.positions[traderID] = &Position{}
	}
	g.mu.Unlock()

	g.rateLimiters.configure(traderID, limits.MaxOrdersPerSec)
	return nil
}

// SetCircuitBreakerLimits reconfigures the process-wide price band,
// latching state cleared.
func (g *Gate) SetCircuitBreakerLimits(cfg CircuitBreakerConfig) {
	g.breaker.setLimits(cfg)
}

// CheckOrder runs the ordered pipeline documented in §4.H and returns the
// first failing check, or Approved if every check passes.
func (g *Gate) CheckOrder(o OrderInfo) Result {
	if o.IsStopLoss {
		return Approved
	}

	g.mu.Lock()
	limits, ok := g.limits[o.OwnerID]
	if !ok {
		g.mu.Unlock()
		return RejectedPositionLimit
	}
	pos := g.positions[o.OwnerID]
	lastTradePrice := g.lastTradePrice
	g.mu.Unlock()

	newPosition := pos.Quantity + o.Quantity
	if o.Side == Sell {
		newPosition = pos.Quantity - o.Quantity
	}
	if abs64(newPosition) > limits.MaxPosition {
		return RejectedPositionLimit
	}

	if o.Quantity > limits.MaxOrderQty {
		return RejectedOrderSize
	}
	if o.Price*o.Quantity > limits.MaxOrderValue {
		return RejectedOrderSize
	}

	if lastTradePrice > 0 && o.Price > 0 {
		deviation := absFloat(float64(o.Price-lastTradePrice)) / float64(lastTradePrice)
		if deviation > limits.MaxPriceDeviation {
			return RejectedFatFinger
		}
	}

	if pos.RealizedPnL+pos.UnrealizedPnL < -limits.DailyLossLimit {
		return RejectedLossLimit
	}

	if pos.DailyVolume+o.Quantity > limits.MaxDailyVolume {
		return RejectedVolumeLimit
	}

	if !g.rateLimiters.allow(o.OwnerID) {
		return RejectedRateLimit
	}

	if o.Price > 0 && !g.breaker.check(o.Price) {
		return RejectedCircuitBreaker
	}

	return Approved
}

// UpdatePosition applies a fill to both sides of a trade: buyerID's
// position increases, sellerID's decreases. Average price is
// volume-weighted on an increase of the same sign; PnL is realized on a
// reduction or flip, per the reference's update_position.
func (g *Gate) UpdatePosition(buyerID, sellerID uint64, trade TradeInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updateSide(buyerID, Buy, trade)
	g.updateSide(sellerID, Sell, trade)
	g.lastTradePrice = trade.Price
}

func (g *Gate) updateSide(traderID uint64, side Side, trade TradeInfo) {
	pos, ok := g.positions[traderID]
	if !ok {
		pos = &Position{}
		g.positions[traderID] = pos
	}

	if side == Buy {
		switch {
		case pos.Quantity == 0:
			pos.AvgPrice = trade.Price
		case pos.Quantity > 0:
			pos.AvgPrice = (pos.Quantity*pos.AvgPrice + trade.Price*trade.Quantity) / (pos.Quantity + trade.Quantity)
		default:
			sharesToCover := min64(-pos.Quantity, trade.Quantity)
			pos.RealizedPnL += (pos.AvgPrice - trade.Price) * sharesToCover
			if trade.Quantity > -pos.Quantity {
				pos.AvgPrice = trade.Price
			}
		}
		pos.Quantity += trade.Quantity
	} else {
		switch {
		case pos.Quantity == 0:
			pos.AvgPrice = trade.Price
		case pos.Quantity < 0:
			pos.AvgPrice = (-pos.Quantity*pos.AvgPrice + trade.Quantity*trade.Price) / (-pos.Quantity + trade.Quantity)
		default:
			sharesToCover := min64(pos.Quantity, trade.Quantity)
			pos.RealizedPnL += (trade.Price - pos.AvgPrice) * sharesToCover
			if trade.Quantity > pos.Quantity {
				pos.AvgPrice = trade.Price
			}
		}
		pos.Quantity -= trade.Quantity
	}

	pos.DailyVolume += trade.Quantity
}

// MarkToMarket recomputes unrealized PnL for every trader with an open
// position against currentPrice, and feeds currentPrice to the circuit
// breaker as an out-of-band observation source independent of trades.
func (g *Gate) MarkToMarket(currentPrice int64) {
	if currentPrice <= 0 {
		return
	}
	g.mu.Lock()
	for _, pos := range g.positions {
		if pos.Quantity != 0 {
			pos.UnrealizedPnL = (currentPrice - pos.AvgPrice) * pos.Quantity
		}
	}
	g.lastTradePrice = currentPrice
	g.mu.Unlock()

	g.breaker.check(currentPrice)
}

// ResetDailyStats zeroes every trader's daily volume and PnL, clears rate
// limiter state, and resumes the circuit breaker -- the daily rollover
// operation, mirroring the reference's reset_daily_stats.
func (g *Gate) ResetDailyStats() {
	g.mu.Lock()
	for _, pos := range g.positions {
		pos.DailyVolume = 0
		pos.RealizedPnL = 0
		pos.UnrealizedPnL = 0
	}
	g.lastTradePrice = 0
	g.mu.Unlock()

	g.rateLimiters.reset()
	g.breaker.reset()
}

// Position returns a snapshot of traderID's current position.
func (g *Gate) Position(traderID uint64) Position {
	g.mu.Lock()
	defer g.mu.Unlock()
	if pos, ok := g.positions[traderID]; ok {
		return *pos
	}
	return Position{}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
