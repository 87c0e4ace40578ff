package notifier

import (
	"sync"

	"github.com/pauljones0/kiosk-listings/internal/scheduler"
)

type AlertKind int

const (
	AlertFailed AlertKind = iota + 1
	AlertRecovered
)

// Alert is a message worth sending about the health of the sync loop.
type Alert struct {
	Kind AlertKind
	// Consecutive is the length of the failure streak: the current one for
	// AlertFailed, the one that just ended for AlertRecovered.
	Consecutive int
	Items       int
	Err         error
}

// Tracker turns pass results into alerts. It alerts on the first failure of
// a streak, on every RepeatEvery-th failure after that, and once when a pass
// succeeds again.
type Tracker struct {
	RepeatEvery int

	mu       sync.Mutex
	failures int
}

func NewTracker() *Tracker {
	return &Tracker{RepeatEvery: 10}
}

func (t *Tracker) Observe(res scheduler.Result) (Alert, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if res.Err == nil {
		if t.failures == 0 {
			return Alert{}, false
		}
		streak := t.failures
		t.failures = 0
		return Alert{Kind: AlertRecovered, Consecutive: streak, Items: res.Items}, true
	}

	t.failures++
	if t.failures == 1 || (t.RepeatEvery > 0 && (t.failures-1)%t.RepeatEvery == 0) {
		return Alert{Kind: AlertFailed, Consecutive: t.failures, Err: res.Err}, true
	}
	return Alert{}, false
}

// Failures is the length of the current failure streak.
func (t *Tracker) Failures() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failures
}
