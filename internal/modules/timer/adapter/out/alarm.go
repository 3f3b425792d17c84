package out

import (
	"sync"
	"time"

	timerout "pomodoro/internal/modules/timer/port/out"
)

// AfterFuncAlarm is a single wall-clock alarm. A callback from a replaced or
// canceled arming never runs.
type AfterFuncAlarm struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

var _ timerout.Alarm = (*AfterFuncAlarm)(nil)

func NewAfterFuncAlarm() *AfterFuncAlarm {
	return &AfterFuncAlarm{}
}

func (a *AfterFuncAlarm) Arm(after time.Duration, fire func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
	gen := a.gen
	a.timer = time.AfterFunc(after, func() {
		a.mu.Lock()
		if gen != a.gen {
			a.mu.Unlock()
			return
		}
		a.timer = nil
		a.mu.Unlock()
		fire()
	})
}

func (a *AfterFuncAlarm) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

// Armed reports whether an alarm is pending.
func (a *AfterFuncAlarm) Armed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timer != nil
}

func (a *AfterFuncAlarm) stopLocked() {
	a.gen++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
