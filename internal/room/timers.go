// internal/room/timers.go
package room

import (
	"sync"
	"time"
)

// Timer names used by the room. Scheduling under an existing name replaces
// the pending timer, so a phase transition that starts a timer always owns
// exactly one outstanding callback.
const (
	timerCountdownTick = "countdown_tick"
	timerResultsReset  = "results_auto_reset"
	timerResetDelay    = "reset_delay"
	timerIdleSweep     = "idle_sweep"
	timerDispose       = "dispose"
)

// timerSet owns every scheduled callback for one room, keyed by name.
// Cancellation by name is always paired with the state change that makes the
// timer stale; callbacks additionally re-check their guard condition under
// the room lock, so a timer that slips past cancellation is harmless.
type timerSet struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newTimerSet() *timerSet {
	return &timerSet{timers: make(map[string]*time.Timer)}
}

// schedule runs fn after d under the given name, replacing any pending timer
// with the same name.
func (ts *timerSet) schedule(name string, d time.Duration, fn func()) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if prev, ok := ts.timers[name]; ok {
		prev.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		ts.mu.Lock()
		// A replacement may have been scheduled between firing and locking;
		// only the current owner of the name gets to run.
		if ts.timers[name] != t {
			ts.mu.Unlock()
			return
		}
		delete(ts.timers, name)
		ts.mu.Unlock()
		fn()
	})
	ts.timers[name] = t
}

// cancel stops the pending timer under name, if any. Returns true if a
// timer was pending.
func (ts *timerSet) cancel(name string) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t, ok := ts.timers[name]
	if !ok {
		return false
	}
	t.Stop()
	delete(ts.timers, name)
	return true
}

// cancelAll stops every pending timer. Used on dispose.
func (ts *timerSet) cancelAll() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for name, t := range ts.timers {
		t.Stop()
		delete(ts.timers, name)
	}
}

// reconnectTimerName returns the per-player grace period timer name.
func reconnectTimerName(id string) string {
	return "reconnect:" + id
}
