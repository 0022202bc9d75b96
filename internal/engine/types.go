package engine

// EventType tags the structured notification emitted for each stage of an
// order's trip through the pipeline. Unlike the mailbox-actor model this
// replaces, there is no Command/CmdType envelope: the engine has no
// internal concurrency, so matching.OrderRequest already serves as the
// synchronous call's parameter struct.
type EventType uint8

const (
	EvAccepted EventType = iota + 1
	EvRejected
	EvAdded
	EvCancelled
	EvTrade
)

func (t EventType) String() string {
	switch t {
	case EvAccepted:
		return "accepted"
	case EvRejected:
		return "rejected"
	case EvAdded:
		return "added"
	case EvCancelled:
		return "cancelled"
	case EvTrade:
		return "trade"
	default:
		return "unknown"
	}
}

// Event is the single structured notification Emitter carries for every
// stage of a Submit/Cancel call. Only the fields relevant to Type are
// populated: Reason for EvRejected, TradeInfo for EvTrade, OrderID/OwnerID
// otherwise.
type Event struct {
	Type      EventType
	OrderID   uint64
	OwnerID   uint64
	Reason    string
	TradeInfo Trade
}
