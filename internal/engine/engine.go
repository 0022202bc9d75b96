package engine

import (
	"go.uber.org/zap"

	"matchcore/internal/matching"
	"matchcore/internal/risk"
)

// Engine wires a matching.Book behind a BookAdapter and a default logging
// Emitter, giving an embedder a single call-and-log entry point without
// forcing it to implement Emitter itself.
type Engine struct {
	adapter *BookAdapter
	emit    Emitter
	log     *zap.Logger
}

func New(ticks *matching.TickSizeTable, gate *risk.Gate, log *zap.Logger, maxCascadeDepth int) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	book := matching.NewBook(ticks, gate, log, maxCascadeDepth)
	return &Engine{
		adapter: NewBookAdapter(book),
		emit:    &loggingEmitter{log: log},
		log:     log,
	}
}

func (e *Engine) Book() *matching.Book { return e.adapter.Book() }

func (e *Engine) Submit(req matching.OrderRequest, now int64) ([]matching.Trade, error) {
	return e.adapter.Submit(req, now, e.emit)
}

func (e *Engine) Cancel(orderID uint64) bool {
	return e.adapter.Cancel(orderID, e.emit)
}

// loggingEmitter is the default Emitter: it just logs each stage at a
// level matched to its severity, keyed on Event.Type. An embedder wanting
// metrics or a UI feed can supply its own Emitter to
// BookAdapter.Submit/Cancel directly instead.
type loggingEmitter struct {
	log *zap.Logger
}

func (e *loggingEmitter) Emit(ev Event) {
	switch ev.Type {
	case EvAccepted:
		e.log.Debug("order "+ev.Type.String(), zap.Uint64("order_id", ev.OrderID), zap.Uint64("owner_id", ev.OwnerID))
	case EvAdded:
		e.log.Debug("order "+ev.Type.String()+" to book", zap.Uint64("order_id", ev.OrderID), zap.Uint64("owner_id", ev.OwnerID))
	case EvCancelled:
		e.log.Debug("order "+ev.Type.String(), zap.Uint64("order_id", ev.OrderID))
	case EvRejected:
		e.log.Info("order "+ev.Type.String(), zap.Uint64("order_id", ev.OrderID), zap.Uint64("owner_id", ev.OwnerID), zap.String("reason", ev.Reason))
	case EvTrade:
		t := ev.TradeInfo
		e.log.Info("trade executed",
			zap.Uint64("buy_id", t.BuyID), zap.Uint64("sell_id", t.SellID),
			zap.Uint64("buyer_id", t.BuyerID), zap.Uint64("seller_id", t.SellerID),
			zap.Int64("price", t.Price), zap.Int64("quantity", t.Quantity))
	default:
		e.log.Warn("unknown engine event", zap.Uint8("type", uint8(ev.Type)))
	}
}
