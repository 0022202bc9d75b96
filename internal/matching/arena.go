package matching

import "sync"

// Arena is a sync.Pool-backed allocator for Order, the hot-path struct
// acquired and released on every call into the book. It adds an explicit
// membership set on top of sync.Pool -- which on its own cannot distinguish
// a double release or a release of a foreign pointer from a legitimate one
// -- mirroring the valid_objects_ guard in a reference object pool.
type Arena struct {
	pool      sync.Pool
	mu        sync.Mutex
	issued    map[*Order]struct{}
	allocated int64
}

func NewArena() *Arena {
	a := &Arena{issued: make(map[*Order]struct{}, 4096)}
	a.pool.New = func() any { return new(Order) }
	return a
}

// AcquireOrder returns a zeroed Order ready for the caller to populate.
func (a *Arena) AcquireOrder() *Order {
	o := a.pool.Get().(*Order)
	*o = Order{}
	a.mu.Lock()
	a.issued[o] = struct{}{}
	a.allocated++
	a.mu.Unlock()
	return o
}

// ReleaseOrder returns an Order to the pool. A release of an order not
// currently issued by this arena -- a double free, or a pointer from
// another arena -- is silently ignored rather than corrupting the pool.
func (a *Arena) ReleaseOrder(o *Order) {
	if o == nil {
		return
	}
	a.mu.Lock()
	if _, ok := a.issued[o]; !ok {
		a.mu.Unlock()
		return
	}
	delete(a.issued, o)
	a.allocated--
	a.mu.Unlock()

	*o = Order{}
	a.pool.Put(o)
}

// Allocated reports the number of orders currently issued and not yet
// released.
func (a *Arena) Allocated() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocated
}
