package matching

import (
	"sort"

	"matchcore/internal/risk"
)

// matchLimit runs the price-limited cross-match used by GTC, IOC, and
// ICEBERG orders: traversal stops once the best opposite price would
// violate the incoming order's limit.
func (b *Book) matchLimit(incoming *Order, now int64) []Trade {
	return b.crossMatch(incoming, true, now)
}

// matchMarket runs the unconstrained cross-match used by MARKET orders
// (including a triggered STOP_LOSS): no price-break test, traversal
// continues until the incoming order is exhausted or the opposite side is
// empty. Any residual display is discarded by the caller -- a MARKET order
// never rests.
func (b *Book) matchMarket(incoming *Order, now int64) []Trade {
	return b.crossMatch(incoming, false, now)
}

func (b *Book) crossMatch(incoming *Order, priceLimited bool, now int64) []Trade {
	var trades []Trade

	if incoming.Side == Buy {
		for incoming.Display > 0 {
			price := b.BestAsk()
			if price == 0 {
				break
			}
			if priceLimited && incoming.Price < price {
				break
			}
			level := b.asks[price]
			b.drainLevel(incoming, level, now, &trades)
			if level.Empty() {
				b.deleteLevel(Sell, price)
			}
		}
	} else {
		for incoming.Display > 0 {
			price := b.BestBid()
			if price == 0 {
				break
			}
			if priceLimited && incoming.Price > price {
				break
			}
			level := b.bids[price]
			b.drainLevel(incoming, level, now, &trades)
			if level.Empty() {
				b.deleteLevel(Buy, price)
			}
		}
	}

	return trades
}

// drainLevel repeatedly takes level's Front() passive order and matches it
// against incoming until either is exhausted or the level runs dry.
func (b *Book) drainLevel(incoming *Order, level *PriceLevel, now int64, trades *[]Trade) {
	for incoming.Display > 0 {
		n := level.Front()
		if n == nil {
			return
		}
		passive := n.order

		if passive.OwnerID == incoming.OwnerID {
			level.Erase(n, passive.IsMarketMaker)
			delete(b.byID, passive.ID)
			b.arena.ReleaseOrder(passive)
			continue
		}

		qty := min64(incoming.Display, passive.Display)
		*trades = append(*trades, b.executeTrade(incoming, passive, qty, now))

		incoming.Display -= qty
		passive.Display -= qty

		if passive.Display == 0 {
			level.Erase(n, passive.IsMarketMaker)
			delete(b.byID, passive.ID)
			if b.refillIceberg(passive) {
				node := level.Add(passive)
				b.byID[passive.ID] = &orderLocation{order: passive, node: node}
			} else {
				b.arena.ReleaseOrder(passive)
			}
		}
	}
}

// refillIceberg moves quantity out of an exhausted ICEBERG order's hidden
// reserve and back into its displayed slice, losing time priority (the
// caller reinserts it at the TAIL of the level). It does not touch
// Remaining on an ordinary fill -- only here, at refill time.
func (b *Book) refillIceberg(o *Order) bool {
	if o.Type != Iceberg || o.Remaining <= 0 {
		return false
	}
	newDisplay := min64(o.Remaining, o.DisplaySize)
	o.Remaining -= newDisplay
	o.Display = newDisplay
	return true
}

func (b *Book) executeTrade(aggressor, passive *Order, qty int64, now int64) Trade {
	var buyID, sellID, buyerID, sellerID uint64
	if aggressor.Side == Buy {
		buyID, buyerID = aggressor.ID, aggressor.OwnerID
		sellID, sellerID = passive.ID, passive.OwnerID
	} else {
		sellID, sellerID = aggressor.ID, aggressor.OwnerID
		buyID, buyerID = passive.ID, passive.OwnerID
	}

	trade := Trade{
		BuyID:     buyID,
		SellID:    sellID,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		Price:     passive.Price,
		Quantity:  qty,
		Timestamp: now,
	}

	b.risk.UpdatePosition(buyerID, sellerID, risk.TradeInfo{Price: trade.Price, Quantity: qty})
	return trade
}

// fokCandidate is one passive order the FOK probe committed to filling,
// recorded so commit can execute without re-walking the book.
type fokCandidate struct {
	order *Order
	qty   int64
}

// matchFOK implements the Fill-Or-Kill two-phase probe/commit: the probe
// must not mutate book state, and the commit fills exactly the quantities
// the probe promised. If the probe can't source the full quantity, neither
// phase touches the book and an empty trade list is returned.
func (b *Book) matchFOK(incoming *Order, now int64) []Trade {
	needed := incoming.Quantity
	var candidates []fokCandidate

	probeNode := func(n *levelNode) bool {
		passive := n.order
		if passive.OwnerID == incoming.OwnerID {
			return false
		}
		available := min64(needed, passive.Display)
		candidates = append(candidates, fokCandidate{order: passive, qty: available})
		needed -= available
		return needed <= 0
	}

	probeList := func(l *fifoList) bool {
		for n := l.head; n != nil; n = n.next {
			if probeNode(n) {
				return true
			}
		}
		return false
	}

	probeLevel := func(lvl *PriceLevel) bool {
		if probeList(&lvl.mm) {
			return true
		}
		return probeList(&lvl.regular)
	}

	if incoming.Side == Buy {
		for _, price := range b.sortedAskPrices() {
			if price > incoming.Price {
				break
			}
			if probeLevel(b.asks[price]) {
				break
			}
		}
	} else {
		for _, price := range b.sortedBidPrices() {
			if price < incoming.Price {
				break
			}
			if probeLevel(b.bids[price]) {
				break
			}
		}
	}

	if needed > 0 {
		return nil
	}

	var trades []Trade
	for _, c := range candidates {
		passive := c.order
		trades = append(trades, b.executeTrade(incoming, passive, c.qty, now))

		incoming.Display -= c.qty
		passive.Display -= c.qty

		if passive.Display == 0 {
			level := b.levelFor(passive)
			loc, ok := b.byID[passive.ID]
			if ok {
				level.Erase(loc.node, passive.IsMarketMaker)
				delete(b.byID, passive.ID)
			}
			if b.refillIceberg(passive) {
				node := level.Add(passive)
				b.byID[passive.ID] = &orderLocation{order: passive, node: node}
			} else {
				b.arena.ReleaseOrder(passive)
			}
			if level.Empty() {
				b.deleteLevel(passive.Side, passive.Price)
			}
		}
	}
	return trades
}

func (b *Book) sortedAskPrices() []int64 {
	prices := make([]int64, 0, len(b.asks))
	for p := range b.asks {
		prices = append(prices, p)
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i] < prices[j] })
	return prices
}

func (b *Book) sortedBidPrices() []int64 {
	prices := make([]int64, 0, len(b.bids))
	for p := range b.bids {
		prices = append(prices, p)
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i] > prices[j] })
	return prices
}
