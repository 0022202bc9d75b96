package engine

// Emitter receives a synchronous notification for each stage of one
// Submit/Cancel call. Calls happen inline on the caller's goroutine --
// there is no mailbox or replay log behind it, since the book itself runs
// single-threaded and to completion per call. Emit is dispatched once per
// stage with an Event tagged by EventType, rather than one method per
// stage, so a single switch at the implementation picks level and fields.
type Emitter interface {
	Emit(e Event)
}

// Trade mirrors matching.Trade; kept as its own type so Emitter
// implementations don't need to import the matching package directly.
type Trade struct {
	BuyID, SellID     uint64
	BuyerID, SellerID uint64
	Price, Quantity   int64
	Timestamp         int64
}
