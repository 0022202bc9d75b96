package matching

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// tickRule is one band of the piecewise tick-size schedule: every price in
// [MinPrice, MaxPrice] rounds to a multiple of TickSize.
type tickRule struct {
	MinPrice int64
	MaxPrice int64
	TickSize int64
}

// TickSizeTable rounds prices to the exchange's minimum price increment,
// modeled after Regulation NMS Rule 612's tiered tick schedule. Rules must
// not overlap; AddRule enforces that once at configuration time so the
// matching core never has to reason about it on the hot path.
type TickSizeTable struct {
	rules []tickRule
}

// NewTickSizeTable returns a table with the default NMS-style schedule.
func NewTickSizeTable() *TickSizeTable {
	t := &TickSizeTable{}
	must := func(min, max, tick int64) {
		if err := t.AddRule(min, max, tick); err != nil {
			panic(err)
		}
	}
	must(1, 99, 1)
	must(100, 999, 1)
	must(1000, 4999, 1)
	must(5000, 9999, 1)
	must(10000, 99999, 1)
	must(100000, 499999, 5)
	must(500000, 999999, 10)
	must(1000000, math.MaxInt64, 100)
	return t
}

// NewEmptyTickSizeTable returns a table with no rules, for callers that
// want to define their own schedule via AddRule.
func NewEmptyTickSizeTable() *TickSizeTable {
	return &TickSizeTable{}
}

// AddRule inserts a new tick band. It rejects malformed bounds and any
// band overlapping one already registered.
func (t *TickSizeTable) AddRule(minPrice, maxPrice, tickSize int64) error {
	if minPrice > maxPrice || tickSize <= 0 || minPrice < 0 {
		return errors.Errorf("invalid tick rule: min=%d max=%d tick=%d", minPrice, maxPrice, tickSize)
	}
	for _, r := range t.rules {
		if !(maxPrice < r.MinPrice || minPrice > r.MaxPrice) {
			return errors.Errorf("tick rule [%d,%d] overlaps existing rule [%d,%d]", minPrice, maxPrice, r.MinPrice, r.MaxPrice)
		}
	}
	t.rules = append(t.rules, tickRule{MinPrice: minPrice, MaxPrice: maxPrice, TickSize: tickSize})
	sort.Slice(t.rules, func(i, j int) bool { return t.rules[i].MinPrice < t.rules[j].MinPrice })
	return nil
}

func (t *TickSizeTable) ruleFor(price int64) (tickRule, bool) {
	for _, r := range t.rules {
		if r.MinPrice <= price && price <= r.MaxPrice {
			return r, true
		}
	}
	return tickRule{}, false
}

// RoundToTick rounds price to the nearest multiple of its band's tick size,
// using round-half-up. A price with no covering band, or <= 0, rounds to 0.
func (t *TickSizeTable) RoundToTick(price int64) int64 {
	if price <= 0 {
		return 0
	}
	r, ok := t.ruleFor(price)
	if !ok {
		return 0
	}
	half := r.TickSize / 2
	return ((price + half) / r.TickSize) * r.TickSize
}

// IsValidPrice reports whether price already sits exactly on a tick.
func (t *TickSizeTable) IsValidPrice(price int64) bool {
	return price == t.RoundToTick(price)
}

// TickSize returns the minimum increment covering price, or 0 if
// uncovered.
func (t *TickSizeTable) TickSize(price int64) int64 {
	if price <= 0 {
		return 0
	}
	r, ok := t.ruleFor(price)
	if !ok {
		return 0
	}
	return r.TickSize
}

// NextTickUp returns the next valid price above price's rounded value.
func (t *TickSizeTable) NextTickUp(price int64) int64 {
	tick := t.TickSize(price)
	if tick == 0 {
		return 0
	}
	rounded := t.RoundToTick(price)
	if rounded == 0 {
		return 0
	}
	return t.RoundToTick(rounded + tick)
}

// NextTickDown returns the next valid price below price's rounded value, or
// 0 if that would go non-positive.
func (t *TickSizeTable) NextTickDown(price int64) int64 {
	tick := t.TickSize(price)
	if tick == 0 {
		return 0
	}
	rounded := t.RoundToTick(price)
	if rounded == 0 {
		return 0
	}
	next := rounded - tick
	if next <= 0 {
		return 0
	}
	return t.RoundToTick(next)
}
