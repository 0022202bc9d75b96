// Package risk implements the pre-trade risk gate: per-trader position,
// exposure, rate, and circuit-breaker checks run before an order is allowed
// to reach the matching core. It is deliberately decoupled from the
// matching package's Order/Trade types -- matching translates its own
// structs into the small Side/OrderInfo/TradeInfo types below at the call
// site -- so neither package imports the other's domain types.
package risk

// Side mirrors matching.Side without creating an import dependency on the
// matching package.
type Side uint8

const (
	Buy Side = iota + 1
	Sell
)

// OrderInfo is everything CheckOrder needs to know about a candidate
// order.
type OrderInfo struct {
	OwnerID    uint64
	Side       Side
	Price      int64
	Quantity   int64
	IsStopLoss bool
}

// TradeInfo is everything UpdatePosition needs to know about a fill.
type TradeInfo struct {
	Price    int64
	Quantity int64
}

// Result is the sentinel outcome of a risk check, replacing exceptions
// with an explicit enum the caller switches on.
type Result uint8

const (
	Approved Result = iota
	RejectedPositionLimit
	RejectedOrderSize
	RejectedFatFinger
	RejectedLossLimit
	RejectedVolumeLimit
	RejectedRateLimit
	RejectedCircuitBreaker
	RejectedInvalidTickSize
)

func (r Result) String() string {
	switch r {
	case Approved:
		return "APPROVED"
	case RejectedPositionLimit:
		return "REJECTED_POSITION_LIMIT"
	case RejectedOrderSize:
		return "REJECTED_ORDER_SIZE"
	case RejectedFatFinger:
		return "REJECTED_FAT_FINGER"
	case RejectedLossLimit:
		return "REJECTED_LOSS_LIMIT"
	case RejectedVolumeLimit:
		return "REJECTED_VOLUME_LIMIT"
	case RejectedRateLimit:
		return "REJECTED_RATE_LIMIT"
	case RejectedCircuitBreaker:
		return "REJECTED_CIRCUIT_BREAKER"
	case RejectedInvalidTickSize:
		return "REJECTED_INVALID_TICK_SIZE"
	default:
		return "UNKNOWN"
	}
}

// RiskLimits is the per-trader configuration governing CheckOrder.
type RiskLimits struct {
	MaxPosition       int64
	MaxOrderValue     int64
	MaxOrderQty       int64
	DailyLossLimit    int64
	MaxPriceDeviation float64 // fraction, e.g. 0.1 == 10%
	MaxOrdersPerSec   int32
	MaxDailyVolume    int64
}

// Validate rejects malformed limits before they're installed, so a bad
// config file fails loudly at load time rather than silently letting
// every order through or blocking every order.
func (l RiskLimits) Validate() error {
	switch {
	case l.MaxPosition <= 0:
		return errInvalidLimits("max_position must be positive")
	case l.MaxOrderQty <= 0:
		return errInvalidLimits("max_order_qty must be positive")
	case l.MaxOrderValue <= 0:
		return errInvalidLimits("max_order_value must be positive")
	case l.DailyLossLimit <= 0:
		return errInvalidLimits("daily_loss_limit must be positive")
	case l.MaxPriceDeviation <= 0 || l.MaxPriceDeviation > 1.0:
		return errInvalidLimits("max_price_deviation must be in (0, 1.0]")
	case l.MaxOrdersPerSec <= 0:
		return errInvalidLimits("max_orders_per_sec must be positive")
	case l.MaxDailyVolume <= 0:
		return errInvalidLimits("max_daily_volume must be positive")
	}
	return nil
}

// Position is a trader's running exposure and PnL.
type Position struct {
	Quantity      int64
	RealizedPnL   int64
	UnrealizedPnL int64
	AvgPrice      int64
	DailyVolume   int64
}

// CircuitBreakerConfig centers the process-wide price band around a
// reference price.
type CircuitBreakerConfig struct {
	ReferencePrice int64
	Percentage     float64 // fraction, e.g. 0.2 == halt outside +/-20%
}
