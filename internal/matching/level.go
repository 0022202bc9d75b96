package matching

// levelNode is one slot in a PriceLevel's FIFO sublist.
type levelNode struct {
	order      *Order
	prev, next *levelNode
}

// fifoList is a doubly-linked FIFO queue of levelNode, sized for O(1)
// head/tail/erase given a node pointer -- erase needs no linear scan
// because the caller always holds the node it wants removed.
type fifoList struct {
	head, tail *levelNode
	len        int
}

func (l *fifoList) pushBack(n *levelNode) {
	n.prev, n.next = l.tail, nil
	if l.tail != nil {
		l.tail.next = n
	} else {
		l.head = n
	}
	l.tail = n
	l.len++
}

func (l *fifoList) popFront() *levelNode {
	n := l.head
	if n == nil {
		return nil
	}
	l.erase(n)
	return n
}

func (l *fifoList) erase(n *levelNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
	l.len--
}

// PriceLevel holds every resting order at one price, in two FIFO
// sublists: market-maker orders are drained in full before any regular
// order at the same price and level, matching an exchange's maker-priority
// convention.
type PriceLevel struct {
	Price   int64
	mm      fifoList
	regular fifoList
}

func newPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{Price: price}
}

// Front returns the next order due to trade at this level: the head of
// mm if non-empty, else the head of regular.
func (l *PriceLevel) Front() *levelNode {
	if l.mm.head != nil {
		return l.mm.head
	}
	return l.regular.head
}

// Add appends order to the appropriate sublist and returns its node, used
// later for O(1) removal.
func (l *PriceLevel) Add(o *Order) *levelNode {
	n := &levelNode{order: o}
	if o.IsMarketMaker {
		l.mm.pushBack(n)
	} else {
		l.regular.pushBack(n)
	}
	return n
}

// PopFront removes and returns the node returned by Front.
func (l *PriceLevel) PopFront() *levelNode {
	if l.mm.head != nil {
		return l.mm.popFront()
	}
	return l.regular.popFront()
}

// Erase removes a specific node, used for cancels and self-trade
// prevention where the order isn't necessarily at the front.
func (l *PriceLevel) Erase(n *levelNode, isMarketMaker bool) {
	if isMarketMaker {
		l.mm.erase(n)
	} else {
		l.regular.erase(n)
	}
}

func (l *PriceLevel) Empty() bool {
	return l.mm.len == 0 && l.regular.len == 0
}

func (l *PriceLevel) Len() int {
	return l.mm.len + l.regular.len
}
