package matching

import (
	"container/heap"

	"go.uber.org/zap"

	"matchcore/internal/risk"
)

// Book is a single-instrument limit order book: price-time-priority
// matching core, stop-order manager, and pre-trade risk gate wired
// together behind one synchronous entry point, AddOrder. It is not safe
// for concurrent use -- §5's single-threaded cooperative model requires
// the embedder to serialize calls.
type Book struct {
	arena *Arena

	bids map[int64]*PriceLevel
	asks map[int64]*PriceLevel
	byID map[uint64]*orderLocation

	bidHeap maxPriceHeap
	askHeap minPriceHeap

	stops *StopManager

	ticks *TickSizeTable
	risk  *risk.Gate
	log   *zap.Logger

	maxCascadeDepth int
	cascadeDepth    int
	cascading       map[uint64]struct{}

	stats Stats
}

// orderLocation records where a resting order lives so CancelOrder and the
// matching core can find and remove it in O(1) without a level scan.
type orderLocation struct {
	order *Order
	node  *levelNode
}

func NewBook(ticks *TickSizeTable, gate *risk.Gate, log *zap.Logger, maxCascadeDepth int) *Book {
	if ticks == nil {
		ticks = NewTickSizeTable()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if maxCascadeDepth <= 0 {
		maxCascadeDepth = 3
	}
	b := &Book{
		arena:           NewArena(),
		bids:            make(map[int64]*PriceLevel, 1024),
		asks:            make(map[int64]*PriceLevel, 1024),
		byID:            make(map[uint64]*orderLocation, 4096),
		stops:           NewStopManager(),
		ticks:           ticks,
		risk:            gate,
		log:             log,
		maxCascadeDepth: maxCascadeDepth,
		cascading:       make(map[uint64]struct{}, 8),
	}
	heap.Init(&b.bidHeap)
	heap.Init(&b.askHeap)
	return b
}

// AddOrder is the single public entry point. It normalizes prices, runs
// the order past the risk gate, dispatches to the type-appropriate
// matching path, and -- if any trade resulted -- runs the stop cascade
// before returning. A non-nil error means id was already resting or
// pending as a stop; everything else is communicated via result.
func (b *Book) AddOrder(req OrderRequest, now int64) ([]Trade, risk.Result, error) {
	b.stats.TotalOrders++

	if _, ok := b.byID[req.ID]; ok {
		return nil, risk.Approved, ErrDuplicateOrderID
	}
	if b.stops.Contains(req.ID) {
		return nil, risk.Approved, ErrDuplicateOrderID
	}

	o := b.arena.AcquireOrder()
	o.ID = req.ID
	o.OwnerID = req.OwnerID
	o.SessionID = req.SessionID
	o.Side = req.Side
	o.Type = req.Type
	o.Price = req.Price
	o.StopPrice = req.StopPrice
	o.Quantity = req.Quantity
	o.IsMarketMaker = req.IsMarketMaker
	o.SubmittedAt = now

	if req.Type == Iceberg {
		o.DisplaySize = req.DisplaySize
		o.Display = min64(req.DisplaySize, req.Quantity)
		o.Remaining = req.Quantity - o.Display
	} else {
		o.Display = req.Quantity
		o.Remaining = 0
	}

	b.normalizePrices(o)

	result := b.risk.CheckOrder(toRiskOrder(o))
	if result != risk.Approved {
		b.arena.ReleaseOrder(o)
		b.stats.TotalRiskRejected++
		return nil, result, nil
	}

	b.cascadeDepth = 0
	for id := range b.cascading {
		delete(b.cascading, id)
	}

	var trades []Trade

	switch o.Type {
	case StopLoss:
		b.stops.Add(o)
		return nil, risk.Approved, nil

	case FOK:
		trades = b.matchFOK(o, now)
		b.arena.ReleaseOrder(o)

	case Market:
		trades = b.matchMarket(o, now)
		b.arena.ReleaseOrder(o)

	default: // GTC, IOC, Iceberg
		trades = b.matchLimit(o, now)
		if o.Display > 0 && (o.Type == GTC || o.Type == Iceberg) {
			b.restOrder(o)
		} else {
			if o.Type == IOC {
				b.stats.TotalIOCRejected++
			}
			b.arena.ReleaseOrder(o)
		}
	}

	trades = b.runStopCascade(trades, now)

	b.stats.TotalTrades += uint64(len(trades))
	for _, t := range trades {
		b.stats.TotalVolume += uint64(t.Quantity)
	}
	return trades, risk.Approved, nil
}

// normalizePrices rounds price (for non-MARKET orders) and stop_price to
// the nearest valid tick, leaving the field untouched if rounding yields
// 0 (no covering band).
func (b *Book) normalizePrices(o *Order) {
	if o.Type != Market && o.Price > 0 {
		if rounded := b.ticks.RoundToTick(o.Price); rounded > 0 {
			o.Price = rounded
		}
	}
	if o.StopPrice > 0 {
		if rounded := b.ticks.RoundToTick(o.StopPrice); rounded > 0 {
			o.StopPrice = rounded
		}
	}
}

func (b *Book) restOrder(o *Order) {
	level := b.levelFor(o)
	if level == nil {
		level = newPriceLevel(o.Price)
		b.setLevel(o.Side, o.Price, level)
		b.pushPrice(o.Side, o.Price)
	}
	node := level.Add(o)
	b.byID[o.ID] = &orderLocation{order: o, node: node}
}

// CancelOrder removes a resting or pending order. Reports whether it was
// found.
func (b *Book) CancelOrder(id uint64) bool {
	loc, ok := b.byID[id]
	if !ok {
		return b.stops.Remove(id)
	}
	delete(b.byID, id)

	o := loc.order
	if loc.node != nil {
		level := b.levelFor(o)
		if level != nil {
			level.Erase(loc.node, o.IsMarketMaker)
			if level.Empty() {
				b.deleteLevel(o.Side, o.Price)
			}
		}
	}
	b.arena.ReleaseOrder(o)
	b.stats.TotalCancelled++
	return true
}

// Lookup returns the resting order for id, if any.
func (b *Book) Lookup(id uint64) (*Order, bool) {
	loc, ok := b.byID[id]
	if !ok {
		return nil, false
	}
	return loc.order, true
}

func (b *Book) levelFor(o *Order) *PriceLevel {
	if o.Side == Buy {
		return b.bids[o.Price]
	}
	return b.asks[o.Price]
}

func (b *Book) setLevel(side Side, price int64, level *PriceLevel) {
	if side == Buy {
		b.bids[price] = level
	} else {
		b.asks[price] = level
	}
}

func (b *Book) deleteLevel(side Side, price int64) {
	if side == Buy {
		delete(b.bids, price)
	} else {
		delete(b.asks, price)
	}
}

func (b *Book) pushPrice(side Side, price int64) {
	if side == Buy {
		heap.Push(&b.bidHeap, price)
	} else {
		heap.Push(&b.askHeap, price)
	}
}

// BestBid returns the highest resting bid price, popping stale heap
// entries for levels that have since emptied. 0 if there are no bids.
func (b *Book) BestBid() int64 {
	for len(b.bidHeap) > 0 {
		p := b.bidHeap[0]
		if lvl, ok := b.bids[p]; ok && !lvl.Empty() {
			return p
		}
		heap.Pop(&b.bidHeap)
	}
	return 0
}

// BestAsk returns the lowest resting ask price, popping stale heap
// entries for levels that have since emptied. 0 if there are no asks.
func (b *Book) BestAsk() int64 {
	for len(b.askHeap) > 0 {
		p := b.askHeap[0]
		if lvl, ok := b.asks[p]; ok && !lvl.Empty() {
			return p
		}
		heap.Pop(&b.askHeap)
	}
	return 0
}

func (b *Book) OrderCount() int    { return len(b.byID) + b.stops.PendingCount() }
func (b *Book) BidLevels() int     { return len(b.bids) }
func (b *Book) AskLevels() int     { return len(b.asks) }
func (b *Book) Stats() Stats       { return b.stats }
func (b *Book) ArenaInFlight() int64 { return b.arena.Allocated() }

func toRiskOrder(o *Order) risk.OrderInfo {
	side := risk.Buy
	if o.Side == Sell {
		side = risk.Sell
	}
	return risk.OrderInfo{
		OwnerID:    o.OwnerID,
		Side:       side,
		Price:      o.Price,
		Quantity:   o.Quantity,
		IsStopLoss: o.Type == StopLoss,
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
