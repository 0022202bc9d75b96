package matching

// runStopCascade follows any call that produced at least one trade: it
// looks at the last trade's price, asks the stop manager which resting
// stops now fire, converts each to a MARKET order, and matches it, which
// may itself produce trades that trigger further stops. cascadeDepth is a
// per-AddOrder monotonic counter (reset at the top of AddOrder, never
// decremented here) bounding the TOTAL number of stops processed across
// the whole recursive sweep to maxCascadeDepth, regardless of how the
// triggers are distributed across recursion levels.
func (b *Book) runStopCascade(trades []Trade, now int64) []Trade {
	if len(trades) == 0 {
		return trades
	}

	lastPrice := trades[len(trades)-1].Price
	triggered := b.stops.CheckTriggered(lastPrice)

	for i, stop := range triggered {
		if b.cascadeDepth >= b.maxCascadeDepth {
			// CheckTriggered already pulled every firing stop out of the
			// manager; anything past the depth bound goes back in instead
			// of being silently dropped, so it's still live for the next
			// AddOrder call's cascade.
			for _, rest := range triggered[i:] {
				b.stops.Add(rest)
			}
			break
		}
		if _, inFlight := b.cascading[stop.ID]; inFlight {
			continue
		}

		b.cascading[stop.ID] = struct{}{}
		b.cascadeDepth++
		b.stats.TotalStopsTriggered++

		stop.Type = Market
		stop.Price = 0
		stop.IsTriggered = true

		stopTrades := b.matchMarket(stop, now)
		trades = append(trades, stopTrades...)

		b.arena.ReleaseOrder(stop)
		delete(b.cascading, stop.ID)

		if len(stopTrades) > 0 {
			trades = b.runStopCascade(trades, now)
		}
	}

	return trades
}
