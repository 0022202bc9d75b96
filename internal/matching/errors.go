package matching

import "errors"

// ErrDuplicateOrderID is returned by AddOrder when id is already resting
// on the book or pending as a stop order. This is an expected, non-fatal
// condition, not an invariant violation, so it's a plain sentinel rather
// than a github.com/pkg/errors stack-traced error.
var ErrDuplicateOrderID = errors.New("matching: order id already resting or pending")
