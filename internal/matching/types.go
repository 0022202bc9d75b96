package matching

// Side is the direction of an order or a fill.
type Side uint8

const (
	Buy Side = iota + 1
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// OrderType selects which matching path an order takes through AddOrder.
type OrderType uint8

const (
	GTC OrderType = iota + 1
	IOC
	FOK
	Market
	StopLoss
	Iceberg
)

func (t OrderType) String() string {
	switch t {
	case GTC:
		return "GTC"
	case IOC:
		return "IOC"
	case FOK:
		return "FOK"
	case Market:
		return "MARKET"
	case StopLoss:
		return "STOP_LOSS"
	case Iceberg:
		return "ICEBERG"
	default:
		return "UNKNOWN"
	}
}

// Order is the arena-pooled unit of book state. Display is the quantity
// currently visible to the matching core; for every type except ICEBERG it
// equals the order's remaining unfilled quantity. Remaining is the hidden
// iceberg reserve still to be displayed across future refill cycles, and is
// untouched by ordinary fills against the displayed slice -- only a refill
// moves quantity out of Remaining and into Display. SessionID is opaque to
// the matching core: it is never read, compared, or logged by anything in
// this package, only carried from OrderRequest so a caller-side driver can
// correlate a resting order back to the session that submitted it.
type Order struct {
	ID            uint64
	OwnerID       uint64
	SessionID     string
	Side          Side
	Type          OrderType
	Price         int64
	StopPrice     int64
	Quantity      int64
	Display       int64
	Remaining     int64
	DisplaySize   int64
	IsMarketMaker bool
	IsTriggered   bool
	SubmittedAt   int64
}

// Trade is a single fill produced by the matching core. It is a value type:
// the book copies it into the caller's result slice and keeps no reference
// to it, so unlike Order it is not arena-pooled.
type Trade struct {
	BuyID     uint64
	SellID    uint64
	BuyerID   uint64
	SellerID  uint64
	Price     int64
	Quantity  int64
	Timestamp int64
}

// OrderRequest is the synchronous call's input: everything AddOrder needs
// to construct, normalize, risk-check, and route an order. SessionID is an
// opaque pass-through -- see the Order.SessionID doc comment.
type OrderRequest struct {
	ID            uint64
	OwnerID       uint64
	SessionID     string
	Side          Side
	Type          OrderType
	Price         int64
	StopPrice     int64
	Quantity      int64
	DisplaySize   int64 // ICEBERG only; ignored otherwise
	IsMarketMaker bool
}

// Stats accumulates book-wide counters mirroring a production matching
// core's telemetry surface.
type Stats struct {
	TotalOrders         uint64
	TotalTrades         uint64
	TotalVolume         uint64
	TotalCancelled      uint64
	TotalIOCRejected    uint64
	TotalStopsTriggered uint64
	TotalRiskRejected   uint64
}
