package draw

import (
	"fmt"
	"sync"
)

// OddsTable holds the payout odds per bet type. The admin surface may
// update it at runtime; admitted bets keep the odds quoted at acceptance.
type OddsTable struct {
	mu    sync.RWMutex
	table map[string]float64
}

// DefaultOdds returns the standard PC28 odds table
func DefaultOdds() *OddsTable {
	return &OddsTable{
		table: map[string]float64{
			"number":     9.8,  // exact sum 0-27
			"big":        1.95, // 14-27
			"small":      1.95, // 0-13
			"odd":        1.95,
			"even":       1.95,
			"big_odd":    3.7,
			"big_even":   3.7,
			"small_odd":  3.7,
			"small_even": 3.7,
		},
	}
}

// Quote returns the current odds for a bet type, and whether the type is known.
func (o *OddsTable) Quote(betType string) (float64, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	odds, ok := o.table[betType]
	return odds, ok
}

// Snapshot returns a copy of the current table
func (o *OddsTable) Snapshot() map[string]float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make(map[string]float64, len(o.table))
	for k, v := range o.table {
		out[k] = v
	}
	return out
}

// Update applies a partial odds update. Unknown bet types and
// non-positive odds are rejected.
func (o *OddsTable) Update(changes map[string]float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for betType, odds := range changes {
		if _, ok := o.table[betType]; !ok {
			return fmt.Errorf("unknown bet type: %s", betType)
		}
		if odds <= 0 {
			return fmt.Errorf("invalid odds %v for bet type %s", odds, betType)
		}
	}
	for betType, odds := range changes {
		o.table[betType] = odds
	}
	return nil
}
