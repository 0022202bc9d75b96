package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"matchcore/internal/risk"
)

func newTestBook(t *testing.T, owners ...uint64) *Book {
	t.Helper()
	gate := risk.NewGate(risk.CircuitBreakerConfig{ReferencePrice: 100, Percentage: 1.0}, zap.NewNop())
	for _, owner := range owners {
		require.NoError(t, gate.SetTraderLimits(owner, risk.RiskLimits{
			MaxPosition:       1_000_000,
			MaxOrderValue:     1_000_000_000,
			MaxOrderQty:       1_000_000,
			DailyLossLimit:    1_000_000_000,
			MaxPriceDeviation: 1.0,
			MaxOrdersPerSec:   1000,
			MaxDailyVolume:    1_000_000,
		}))
	}
	return NewBook(NewTickSizeTable(), gate, zap.NewNop(), 3)
}

// §7's silent pass-through case: session_id travels from OrderRequest onto
// the resting Order untouched, and the matching core never inspects it.
func TestAddOrder_SessionIDPassesThroughUnchanged(t *testing.T) {
	b := newTestBook(t, 1)

	_, _, err := b.AddOrder(OrderRequest{ID: 1, OwnerID: 1, SessionID: "sess-abc", Side: Buy, Type: GTC, Price: 100, Quantity: 10}, 1)
	require.NoError(t, err)

	o, ok := b.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "sess-abc", o.SessionID)
}

// Scenario 1: simple cross.
func TestAddOrder_SimpleCross(t *testing.T) {
	b := newTestBook(t, 1, 2)

	trades, result, err := b.AddOrder(OrderRequest{ID: 1, OwnerID: 1, Side: Buy, Type: GTC, Price: 100, Quantity: 10}, 1)
	require.NoError(t, err)
	require.Equal(t, risk.Approved, result)
	assert.Empty(t, trades)

	trades, result, err = b.AddOrder(OrderRequest{ID: 2, OwnerID: 2, Side: Sell, Type: GTC, Price: 100, Quantity: 10}, 2)
	require.NoError(t, err)
	require.Equal(t, risk.Approved, result)
	require.Len(t, trades, 1)
	assert.Equal(t, Trade{BuyID: 1, SellID: 2, BuyerID: 1, SellerID: 2, Price: 100, Quantity: 10, Timestamp: 2}, trades[0])
	assert.Equal(t, 0, b.OrderCount())
}

// Scenario 2: iceberg FIFO demotion on refill.
func TestAddOrder_IcebergRefillLosesTimePriority(t *testing.T) {
	b := newTestBook(t, 1, 2, 3, 4)

	_, _, err := b.AddOrder(OrderRequest{ID: 1, OwnerID: 1, Side: Buy, Type: Iceberg, Price: 100, Quantity: 100, DisplaySize: 10}, 1)
	require.NoError(t, err)
	o1, ok := b.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, int64(10), o1.Display)
	assert.Equal(t, int64(90), o1.Remaining)

	_, _, err = b.AddOrder(OrderRequest{ID: 2, OwnerID: 2, Side: Buy, Type: GTC, Price: 100, Quantity: 5}, 2)
	require.NoError(t, err)

	trades, _, err := b.AddOrder(OrderRequest{ID: 3, OwnerID: 3, Side: Sell, Type: GTC, Price: 100, Quantity: 10}, 3)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, Trade{BuyID: 1, SellID: 3, BuyerID: 1, SellerID: 3, Price: 100, Quantity: 10, Timestamp: 3}, trades[0])

	o1, ok = b.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, int64(10), o1.Display)
	assert.Equal(t, int64(80), o1.Remaining)

	trades, _, err = b.AddOrder(OrderRequest{ID: 4, OwnerID: 4, Side: Sell, Type: GTC, Price: 100, Quantity: 5}, 4)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, Trade{BuyID: 2, SellID: 4, BuyerID: 2, SellerID: 4, Price: 100, Quantity: 5, Timestamp: 4}, trades[0],
		"id=2 must trade first: id=1's refill sent it to the tail of the level")
}

// Scenario 3: FOK abort leaves the book untouched.
func TestAddOrder_FOKAbortDoesNotMutateBook(t *testing.T) {
	b := newTestBook(t, 1, 2)

	_, _, err := b.AddOrder(OrderRequest{ID: 1, OwnerID: 1, Side: Sell, Type: GTC, Price: 100, Quantity: 5}, 1)
	require.NoError(t, err)
	allocatedBefore := b.ArenaInFlight()

	trades, result, err := b.AddOrder(OrderRequest{ID: 2, OwnerID: 2, Side: Buy, Type: FOK, Price: 100, Quantity: 10}, 2)
	require.NoError(t, err)
	assert.Equal(t, risk.Approved, result)
	assert.Empty(t, trades)

	o1, ok := b.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, int64(5), o1.Display)
	assert.Equal(t, allocatedBefore, b.ArenaInFlight())
}

// Scenario 4: self-trade prevention.
func TestAddOrder_SelfTradePrevention(t *testing.T) {
	b := newTestBook(t, 7)

	_, _, err := b.AddOrder(OrderRequest{ID: 1, OwnerID: 7, Side: Sell, Type: GTC, Price: 100, Quantity: 10}, 1)
	require.NoError(t, err)

	trades, _, err := b.AddOrder(OrderRequest{ID: 2, OwnerID: 7, Side: Buy, Type: GTC, Price: 100, Quantity: 10}, 2)
	require.NoError(t, err)
	assert.Empty(t, trades)

	_, ok := b.Lookup(1)
	assert.False(t, ok, "id=1 must be cancelled by self-trade prevention")

	o2, ok := b.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, int64(10), o2.Display)
}

// Scenario 5: stop cascade is bounded by MAX_CASCADE_DEPTH. Ten SELL
// STOP_LOSS orders share a trigger price equal to the first trade's price,
// so a single CheckTriggered call fires all ten at once; only
// MAX_CASCADE_DEPTH of them may actually be processed into trades.
func TestAddOrder_StopCascadeBounded(t *testing.T) {
	owners := []uint64{100, 200}
	for i := uint64(1); i <= 10; i++ {
		owners = append(owners, i)
	}
	b := newTestBook(t, owners...)

	_, _, err := b.AddOrder(OrderRequest{ID: 900, OwnerID: 100, Side: Buy, Type: GTC, Price: 100, Quantity: 1000}, 1)
	require.NoError(t, err)

	for i := uint64(1); i <= 10; i++ {
		_, _, err := b.AddOrder(OrderRequest{ID: 100 + i, OwnerID: i, Side: Sell, Type: StopLoss, StopPrice: 100, Quantity: 1}, int64(i)+1)
		require.NoError(t, err)
	}

	_, _, err = b.AddOrder(OrderRequest{ID: 999, OwnerID: 200, Side: Sell, Type: Market, Quantity: 1}, 20)
	require.NoError(t, err)

	assert.Equal(t, uint64(3), b.Stats().TotalStopsTriggered, "exactly MAX_CASCADE_DEPTH stops process in this call")
	assert.Equal(t, 7, b.stops.PendingCount(), "the rest stay pending for a future call")
}

// Scenario 8: duplicate order id is rejected with an error, original untouched.
func TestAddOrder_DuplicateIDRejected(t *testing.T) {
	b := newTestBook(t, 1, 2)

	_, _, err := b.AddOrder(OrderRequest{ID: 1, OwnerID: 1, Side: Buy, Type: GTC, Price: 100, Quantity: 10}, 1)
	require.NoError(t, err)

	trades, _, err := b.AddOrder(OrderRequest{ID: 1, OwnerID: 2, Side: Sell, Type: GTC, Price: 100, Quantity: 5}, 2)
	assert.ErrorIs(t, err, ErrDuplicateOrderID)
	assert.Empty(t, trades)

	o1, ok := b.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, uint64(1), o1.OwnerID)
	assert.Equal(t, int64(10), o1.Display)
}

func TestCancelOrder_RestoresArenaCount(t *testing.T) {
	b := newTestBook(t, 1)
	before := b.ArenaInFlight()

	_, _, err := b.AddOrder(OrderRequest{ID: 1, OwnerID: 1, Side: Buy, Type: GTC, Price: 100, Quantity: 10}, 1)
	require.NoError(t, err)
	assert.True(t, b.CancelOrder(1))
	assert.Equal(t, before, b.ArenaInFlight())
	_, ok := b.Lookup(1)
	assert.False(t, ok)
}

func TestCancelOrder_UnknownIDReturnsFalse(t *testing.T) {
	b := newTestBook(t)
	assert.False(t, b.CancelOrder(12345))
}

func TestAddOrder_IOCResidualIsDiscardedNotRested(t *testing.T) {
	b := newTestBook(t, 1, 2)

	trades, _, err := b.AddOrder(OrderRequest{ID: 1, OwnerID: 1, Side: Buy, Type: IOC, Price: 100, Quantity: 10}, 1)
	require.NoError(t, err)
	assert.Empty(t, trades)

	_, ok := b.Lookup(1)
	assert.False(t, ok, "an unfilled IOC order must never rest")
	assert.Equal(t, uint64(1), b.Stats().TotalIOCRejected)
}

func TestAddOrder_MarketResidualIsDiscarded(t *testing.T) {
	b := newTestBook(t, 1, 2)

	_, _, err := b.AddOrder(OrderRequest{ID: 1, OwnerID: 1, Side: Sell, Type: GTC, Price: 100, Quantity: 5}, 1)
	require.NoError(t, err)

	trades, _, err := b.AddOrder(OrderRequest{ID: 2, OwnerID: 2, Side: Buy, Type: Market, Quantity: 10}, 2)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(5), trades[0].Quantity)
	assert.Equal(t, 0, b.OrderCount())
}
