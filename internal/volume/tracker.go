// Package volume owns the cumulative sold total for a run.
package volume

import (
	"math/big"
	"sync"
)

// Tracker serializes all updates to the running sold total. The total is
// monotonically non-decreasing and equals the exact sum of every amount
// passed to Add.
type Tracker struct {
	mu     sync.Mutex
	total  *big.Int
	target *big.Int
}

// NewTracker starts at zero with the given cumulative target.
func NewTracker(target *big.Int) *Tracker {
	return &Tracker{
		total:  new(big.Int),
		target: new(big.Int).Set(target),
	}
}

// Add adds amount to the total and reports whether the target has been
// reached, as one indivisible operation: no two concurrent callers observe
// the same before-total. The returned total is a copy.
func (t *Tracker) Add(amount *big.Int) (*big.Int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if amount != nil && amount.Sign() > 0 {
		t.total.Add(t.total, amount)
	}
	return new(big.Int).Set(t.total), t.total.Cmp(t.target) >= 0
}

// Total returns a copy of the current total.
func (t *Tracker) Total() *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.total)
}

// Target returns a copy of the configured target.
func (t *Tracker) Target() *big.Int {
	return new(big.Int).Set(t.target)
}
