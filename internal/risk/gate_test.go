package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func permissiveLimits() RiskLimits {
	return RiskLimits{
		MaxPosition:       1000,
		MaxOrderValue:     1_000_000,
		MaxOrderQty:       1000,
		DailyLossLimit:    1_000_000,
		MaxPriceDeviation: 0.10,
		MaxOrdersPerSec:   100,
		MaxDailyVolume:    1000,
	}
}

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	return NewGate(CircuitBreakerConfig{ReferencePrice: 100, Percentage: 0.5}, zap.NewNop())
}

func TestCheckOrder_MissingLimitsRejectsPositionLimit(t *testing.T) {
	g := newTestGate(t)
	result := g.CheckOrder(OrderInfo{OwnerID: 1, Side: Buy, Price: 100, Quantity: 1})
	assert.Equal(t, RejectedPositionLimit, result)
}

func TestCheckOrder_StopLossBypassesEveryCheck(t *testing.T) {
	g := newTestGate(t)
	result := g.CheckOrder(OrderInfo{OwnerID: 999, Side: Sell, Price: 100, Quantity: 1_000_000, IsStopLoss: true})
	assert.Equal(t, Approved, result)
}

func TestCheckOrder_PositionLimit(t *testing.T) {
	g := newTestGate(t)
	require.NoError(t, g.SetTraderLimits(1, permissiveLimits()))

	result := g.CheckOrder(OrderInfo{OwnerID: 1, Side: Buy, Price: 100, Quantity: 1001})
	assert.Equal(t, RejectedPositionLimit, result)
}

func TestCheckOrder_OrderSizeLimits(t *testing.T) {
	g := newTestGate(t)

	qtyLimits := permissiveLimits()
	qtyLimits.MaxOrderQty = 5
	require.NoError(t, g.SetTraderLimits(1, qtyLimits))
	assert.Equal(t, RejectedOrderSize, g.CheckOrder(OrderInfo{OwnerID: 1, Side: Buy, Price: 100, Quantity: 10}))

	valueLimits := permissiveLimits()
	valueLimits.MaxOrderValue = 100
	require.NoError(t, g.SetTraderLimits(2, valueLimits))
	assert.Equal(t, RejectedOrderSize, g.CheckOrder(OrderInfo{OwnerID: 2, Side: Buy, Price: 100, Quantity: 10}))
}

// Scenario 6: fat-finger deviation.
func TestCheckOrder_FatFinger(t *testing.T) {
	g := newTestGate(t)
	require.NoError(t, g.SetTraderLimits(1, permissiveLimits()))
	g.UpdatePosition(1, 2, TradeInfo{Price: 100, Quantity: 1})
	require.NoError(t, g.SetTraderLimits(2, permissiveLimits()))

	result := g.CheckOrder(OrderInfo{OwnerID: 1, Side: Buy, Price: 120, Quantity: 1})
	assert.Equal(t, RejectedFatFinger, result)
}

func TestCheckOrder_FatFingerSkippedWithoutLastTradePrice(t *testing.T) {
	g := newTestGate(t)
	require.NoError(t, g.SetTraderLimits(1, permissiveLimits()))

	// 140 is 40% away from the breaker's reference price but inside its
	// [50, 150] band, so only the skipped deviation check could reject it.
	result := g.CheckOrder(OrderInfo{OwnerID: 1, Side: Buy, Price: 140, Quantity: 1})
	assert.Equal(t, Approved, result)
}

// Scenario 7: daily volume limit.
func TestCheckOrder_VolumeLimit(t *testing.T) {
	g := newTestGate(t)
	limits := permissiveLimits()
	limits.MaxDailyVolume = 100
	require.NoError(t, g.SetTraderLimits(1, limits))
	require.NoError(t, g.SetTraderLimits(2, limits))

	g.UpdatePosition(1, 2, TradeInfo{Price: 100, Quantity: 95})

	result := g.CheckOrder(OrderInfo{OwnerID: 1, Side: Buy, Price: 100, Quantity: 10})
	assert.Equal(t, RejectedVolumeLimit, result)
}

func TestCheckOrder_LossLimit(t *testing.T) {
	g := newTestGate(t)
	limits := permissiveLimits()
	limits.DailyLossLimit = 100
	require.NoError(t, g.SetTraderLimits(1, limits))
	require.NoError(t, g.SetTraderLimits(2, limits))

	g.UpdatePosition(1, 2, TradeInfo{Price: 100, Quantity: 10})
	g.UpdatePosition(2, 1, TradeInfo{Price: 80, Quantity: 10})

	result := g.CheckOrder(OrderInfo{OwnerID: 1, Side: Buy, Price: 80, Quantity: 1})
	assert.Equal(t, RejectedLossLimit, result)
}

func TestCheckOrder_RateLimit(t *testing.T) {
	g := newTestGate(t)
	limits := permissiveLimits()
	limits.MaxOrdersPerSec = 1
	require.NoError(t, g.SetTraderLimits(1, limits))

	assert.Equal(t, Approved, g.CheckOrder(OrderInfo{OwnerID: 1, Side: Buy, Price: 100, Quantity: 1}))
	assert.Equal(t, RejectedRateLimit, g.CheckOrder(OrderInfo{OwnerID: 1, Side: Buy, Price: 100, Quantity: 1}))
}

func TestCheckOrder_UnknownTraderRejectedByLimitsCheckBeforeRateLimit(t *testing.T) {
	g := newTestGate(t)
	// A trader never configured via SetTraderLimits has no rate limiter at
	// all, which the reference treats as "rate limited" -- but that trader
	// also fails the earlier missing-limits check first.
	result := g.CheckOrder(OrderInfo{OwnerID: 42, Side: Buy, Price: 100, Quantity: 1})
	assert.Equal(t, RejectedPositionLimit, result)
}

func TestCheckOrder_CircuitBreakerLatchesOpenOnFirstBreach(t *testing.T) {
	g := newTestGate(t)
	require.NoError(t, g.SetTraderLimits(1, permissiveLimits()))

	assert.Equal(t, RejectedCircuitBreaker, g.CheckOrder(OrderInfo{OwnerID: 1, Side: Buy, Price: 1000, Quantity: 1}))
	// Latched: even an in-band price is now rejected until a reset.
	assert.Equal(t, RejectedCircuitBreaker, g.CheckOrder(OrderInfo{OwnerID: 1, Side: Buy, Price: 100, Quantity: 1}))
}

func TestUpdatePosition_AveragePriceAndRealizedPnL(t *testing.T) {
	g := newTestGate(t)
	require.NoError(t, g.SetTraderLimits(1, permissiveLimits()))
	require.NoError(t, g.SetTraderLimits(2, permissiveLimits()))

	g.UpdatePosition(1, 2, TradeInfo{Price: 100, Quantity: 10})
	pos := g.Position(1)
	assert.Equal(t, int64(10), pos.Quantity)
	assert.Equal(t, int64(100), pos.AvgPrice)

	g.UpdatePosition(1, 2, TradeInfo{Price: 200, Quantity: 10})
	pos = g.Position(1)
	assert.Equal(t, int64(20), pos.Quantity)
	assert.Equal(t, int64(150), pos.AvgPrice)

	// The seller sold both fills, so it is short the full 20.
	sellerPos := g.Position(2)
	assert.Equal(t, int64(-20), sellerPos.Quantity)
}

func TestResetDailyStats_ClearsVolumeAndResumesBreaker(t *testing.T) {
	g := newTestGate(t)
	limits := permissiveLimits()
	limits.MaxDailyVolume = 10
	require.NoError(t, g.SetTraderLimits(1, limits))
	require.NoError(t, g.SetTraderLimits(2, limits))

	g.UpdatePosition(1, 2, TradeInfo{Price: 100, Quantity: 10})
	assert.Equal(t, RejectedVolumeLimit, g.CheckOrder(OrderInfo{OwnerID: 1, Side: Buy, Price: 100, Quantity: 1}))
	g.MarkToMarket(1000) // outside the [50, 150] band: latches the breaker open

	g.ResetDailyStats()
	assert.Equal(t, Approved, g.CheckOrder(OrderInfo{OwnerID: 1, Side: Buy, Price: 100, Quantity: 1}))
}

func TestRiskLimits_Validate(t *testing.T) {
	valid := permissiveLimits()
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.MaxPosition = 0
	assert.Error(t, bad.Validate())

	bad = valid
	bad.MaxPriceDeviation = 1.5
	assert.Error(t, bad.Validate())
}
