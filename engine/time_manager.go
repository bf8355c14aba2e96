package engine

import "time"

// TimeManager tracks the wall-clock and node budget of one search. The stop
// decision is sticky: once a limit trips, every later check reports stop.
type TimeManager struct {
	start   time.Time
	limits  SearchLimits
	stopped bool
}

func (tm *TimeManager) Start(limits SearchLimits) {
	tm.start = time.Now()
	tm.limits = limits
	tm.stopped = false
}

func (tm *TimeManager) ElapsedMs() uint64 {
	return uint64(time.Since(tm.start) / time.Millisecond)
}

func (tm *TimeManager) Stopped() bool {
	return tm.stopped
}

// ForceStop aborts the search from outside the search loop.
func (tm *TimeManager) ForceStop() {
	tm.stopped = true
}

// CheckStopCondition polls the budgets. inPanic grants the panic extension
// so a depth iteration already in progress can finish near the deadline.
func (tm *TimeManager) CheckStopCondition(nodes uint64, inPanic bool) bool {
	if tm.stopped {
		return true
	}
	if tm.limits.MaxNodes > 0 && nodes >= tm.limits.MaxNodes {
		tm.stopped = true
		return true
	}
	budget := tm.limits.TimeLimitMs
	if inPanic && tm.limits.EnablePanicMode {
		budget += tm.limits.PanicExtraTimeMs
	}
	if tm.ElapsedMs() >= budget {
		tm.stopped = true
		return true
	}
	return false
}
