package engine

import (
	"matchcore/internal/matching"
	"matchcore/internal/risk"
)

// BookAdapter wraps a *matching.Book and translates its return values into
// Emitter calls, so callers that want structured per-stage notifications
// (logging, metrics, a UI feed) don't have to inline that dispatch at every
// call site.
type BookAdapter struct {
	book *matching.Book
}

func NewBookAdapter(b *matching.Book) *BookAdapter {
	return &BookAdapter{book: b}
}

func (a *BookAdapter) Book() *matching.Book { return a.book }

// Submit runs req through the book and reports the outcome to emit.
// Rejected orders emit EvRejected; approved orders that produced trades
// emit one EvTrade per fill; an approved order that rests afterward
// (GTC/ICEBERG with residual display) additionally emits EvAdded.
func (a *BookAdapter) Submit(req matching.OrderRequest, now int64, emit Emitter) ([]matching.Trade, error) {
	trades, result, err := a.book.AddOrder(req, now)
	if err != nil {
		emitEvent(emit, Event{Type: EvRejected, OrderID: req.ID, OwnerID: req.OwnerID, Reason: err.Error()})
		return nil, err
	}
	if result != risk.Approved {
		emitEvent(emit, Event{Type: EvRejected, OrderID: req.ID, OwnerID: req.OwnerID, Reason: result.String()})
		return nil, nil
	}

	emitEvent(emit, Event{Type: EvAccepted, OrderID: req.ID, OwnerID: req.OwnerID})
	for _, t := range trades {
		emitEvent(emit, Event{Type: EvTrade, TradeInfo: Trade{
			BuyID: t.BuyID, SellID: t.SellID,
			BuyerID: t.BuyerID, SellerID: t.SellerID,
			Price: t.Price, Quantity: t.Quantity, Timestamp: t.Timestamp,
		}})
	}
	if _, resting := a.book.Lookup(req.ID); resting {
		emitEvent(emit, Event{Type: EvAdded, OrderID: req.ID, OwnerID: req.OwnerID})
	}
	return trades, nil
}

// Cancel removes a resting or pending order and reports the outcome.
func (a *BookAdapter) Cancel(orderID uint64, emit Emitter) bool {
	ok := a.book.CancelOrder(orderID)
	if ok {
		emitEvent(emit, Event{Type: EvCancelled, OrderID: orderID})
	} else {
		emitEvent(emit, Event{Type: EvRejected, OrderID: orderID, Reason: "order not found"})
	}
	return ok
}

func emitEvent(emit Emitter, e Event) {
	if emit != nil {
		emit.Emit(e)
	}
}
