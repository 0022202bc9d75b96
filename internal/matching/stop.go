package matching

import "sort"

// stopBucket groups every resting stop order that shares a trigger price,
// preserving arrival order within the bucket.
type stopBucket struct {
	price  int64
	orders []*Order
}

// StopManager holds conditional orders off the book until their trigger
// price trades, at which point CheckTriggered releases them for conversion
// into MARKET orders. Buckets are kept sorted by price via binary-search
// insertion -- the same technique the book itself used for naive price
// ordering -- since stop additions/removals are far less frequent than
// matching-core operations and don't need a heap's amortized bound.
type StopManager struct {
	buyStops  []*stopBucket // ascending by price; trigger when trade price >= bucket price
	sellStops []*stopBucket // ascending by price; trigger when trade price <= bucket price
	lookup    map[uint64]*Order
}

func NewStopManager() *StopManager {
	return &StopManager{lookup: make(map[uint64]*Order, 256)}
}

// Contains reports whether id is resting as a stop order.
func (m *StopManager) Contains(id uint64) bool {
	_, ok := m.lookup[id]
	return ok
}

// Add inserts a STOP_LOSS order into the side-appropriate ladder.
func (m *StopManager) Add(o *Order) {
	if o.Side == Buy {
		m.buyStops = insertStopBucket(m.buyStops, o)
	} else {
		m.sellStops = insertStopBucket(m.sellStops, o)
	}
	m.lookup[o.ID] = o
}

func insertStopBucket(buckets []*stopBucket, o *Order) []*stopBucket {
	idx := sort.Search(len(buckets), func(i int) bool { return buckets[i].price >= o.StopPrice })
	if idx < len(buckets) && buckets[idx].price == o.StopPrice {
		buckets[idx].orders = append(buckets[idx].orders, o)
		return buckets
	}
	nb := &stopBucket{price: o.StopPrice, orders: []*Order{o}}
	buckets = append(buckets, nil)
	copy(buckets[idx+1:], buckets[idx:])
	buckets[idx] = nb
	return buckets
}

// Remove cancels a resting stop order. Reports whether it was found.
func (m *StopManager) Remove(id uint64) bool {
	o, ok := m.lookup[id]
	if !ok {
		return false
	}
	buckets := &m.buyStops
	if o.Side == Sell {
		buckets = &m.sellStops
	}
	for bi, b := range *buckets {
		for oi, order := range b.orders {
			if order.ID != id {
				continue
			}
			b.orders = append(b.orders[:oi], b.orders[oi+1:]...)
			if len(b.orders) == 0 {
				*buckets = append((*buckets)[:bi], (*buckets)[bi+1:]...)
			}
			delete(m.lookup, id)
			return true
		}
	}
	return false
}

// CheckTriggered removes and returns, in trigger order, every stop whose
// condition is met by lastTradePrice: buy stops with stop price <= last
// (ascending through the ladder), then sell stops with stop price >= last
// (descending through the ladder, i.e. from the tightest trigger out).
func (m *StopManager) CheckTriggered(lastTradePrice int64) []*Order {
	var triggered []*Order

	i := 0
	for i < len(m.buyStops) && m.buyStops[i].price <= lastTradePrice {
		triggered = append(triggered, m.buyStops[i].orders...)
		for _, o := range m.buyStops[i].orders {
			delete(m.lookup, o.ID)
		}
		i++
	}
	m.buyStops = m.buyStops[i:]

	j := len(m.sellStops)
	for j > 0 && m.sellStops[j-1].price >= lastTradePrice {
		j--
	}
	for k := len(m.sellStops) - 1; k >= j; k-- {
		triggered = append(triggered, m.sellStops[k].orders...)
		for _, o := range m.sellStops[k].orders {
			delete(m.lookup, o.ID)
		}
	}
	m.sellStops = m.sellStops[:j]

	return triggered
}

// PendingCount is the number of stop orders currently resting off-book.
func (m *StopManager) PendingCount() int {
	return len(m.lookup)
}
