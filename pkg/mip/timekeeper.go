package mip

import "time"

// TimeKeeper measures elapsed wall-clock time for budget checks. Phases
// consult it at their boundaries and every few inner iterations.
type TimeKeeper struct {
	start time.Time
}

// NewTimeKeeper starts measuring now.
func NewTimeKeeper() *TimeKeeper {
	return &TimeKeeper{start: time.Now()}
}

// Clock returns the elapsed seconds since construction.
func (t *TimeKeeper) Clock() float64 {
	return time.Since(t.start).Seconds()
}
