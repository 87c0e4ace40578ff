package notifier

import (
	"errors"
	"testing"

	"github.com/pauljones0/kiosk-listings/internal/scheduler"
)

func TestTracker_Observe(t *testing.T) {
	tr := NewTracker()
	tr.RepeatEvery = 3
	fail := scheduler.Result{Err: errors.New("boom")}
	ok := scheduler.Result{Items: 4}

	steps := []struct {
		res       scheduler.Result
		wantAlert bool
		wantKind  AlertKind
		wantCount int
	}{
		{ok, false, 0, 0},
		{fail, true, AlertFailed, 1},
		{fail, false, 0, 0},
		{fail, false, 0, 0},
		{fail, true, AlertFailed, 4},
		{fail, false, 0, 0},
		{ok, true, AlertRecovered, 5},
		{ok, false, 0, 0},
		{fail, true, AlertFailed, 1},
	}

	for i, step := range steps {
		alert, got := tr.Observe(step.res)
		if got != step.wantAlert {
			t.Fatalf("step %d: alert = %v, want %v", i, got, step.wantAlert)
		}
		if !got {
			continue
		}
		if alert.Kind != step.wantKind || alert.Consecutive != step.wantCount {
			t.Errorf("step %d: got %+v, want kind %d count %d", i, alert, step.wantKind, step.wantCount)
		}
		if alert.Kind == AlertRecovered && alert.Items != 4 {
			t.Errorf("step %d: recovered alert should carry items, got %d", i, alert.Items)
		}
	}
	if tr.Failures() != 1 {
		t.Errorf("Failures() = %d, want 1", tr.Failures())
	}
}
