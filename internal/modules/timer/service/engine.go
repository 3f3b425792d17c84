package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pomodoro/internal/modules/timer/domain"
	"pomodoro/internal/modules/timer/dto"
	timerout "pomodoro/internal/modules/timer/port/out"
	"pomodoro/internal/platform/bus"
	"pomodoro/internal/platform/clock"
	"pomodoro/internal/platform/metrics"
)

const EventTick = "tick"

// CompletionFunc receives a session detached from the engine. It runs at
// most once per session and never under the engine lock.
type CompletionFunc func(ctx context.Context, session domain.Session)

// Canceler is anything holding timers that must not outlive a session.
type Canceler interface {
	CancelPending()
}

// Engine owns the timer state. Every transition persists the snapshot and
// broadcasts a tick; a failed save is logged and the in-memory state stands.
type Engine struct {
	mu           sync.Mutex
	state        domain.State
	clock        clock.Clock
	store        timerout.StateStore
	alarm        timerout.Alarm
	publisher    bus.Publisher
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	tickInterval time.Duration

	onComplete CompletionFunc
	cancelers  []Canceler
	tickStop   chan struct{}
	armed      uint64

	ctx    context.Context
	cancel context.CancelFunc
}

func NewEngine(store timerout.StateStore, alarm timerout.Alarm, clk clock.Clock, publisher bus.Publisher, tickInterval time.Duration, logger zerolog.Logger, m *metrics.Metrics) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		state:        domain.IdleState(),
		clock:        clk,
		store:        store,
		alarm:        alarm,
		publisher:    publisher,
		logger:       logger,
		metrics:      m,
		tickInterval: tickInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (e *Engine) SetCompletionHandler(fn CompletionFunc) {
	e.mu.Lock()
	e.onComplete = fn
	e.mu.Unlock()
}

// AddCanceler registers c to be canceled on every start and reset.
func (e *Engine) AddCanceler(c Canceler) {
	e.mu.Lock()
	e.cancelers = append(e.cancelers, c)
	e.mu.Unlock()
}

// Load restores the persisted snapshot. A running session is re-derived
// from its start timestamp; one that ran out while nobody was watching is
// completed before Load returns.
func (e *Engine) Load(ctx context.Context) error {
	state, err := e.store.Load(ctx)
	if err != nil {
		e.metrics.RecordPersistenceError("timer")
		e.logger.Warn().Err(err).Msg("timer state unreadable, starting idle")
		state = domain.IdleState()
	}
	if !state.Valid() {
		e.logger.Warn().Str("phase", string(state.Phase)).Msg("inconsistent timer state, starting idle")
		state = domain.IdleState()
	}

	e.mu.Lock()
	e.state = state
	if state.Phase != domain.PhaseRunning {
		e.metrics.SetPhase(string(state.Phase))
		e.mu.Unlock()
		return nil
	}

	remaining := state.Session.Remaining(e.clock.Now())
	if remaining <= 0 {
		session, handler := e.detachLocked(ctx)
		e.mu.Unlock()
		e.logger.Info().Str("kind", string(session.Kind)).Msg("session expired while unloaded")
		if handler != nil {
			handler(ctx, session)
		}
		return nil
	}
	e.armLocked(remaining)
	e.metrics.SetPhase(string(domain.PhaseRunning))
	e.publishLocked()
	e.mu.Unlock()
	return nil
}

// Start replaces any active session with a new running one.
func (e *Engine) Start(ctx context.Context, kind domain.Kind, project string, minutes int) (domain.Session, error) {
	session, err := domain.NewSession(kind, project, minutes, e.clock.Now())
	if err != nil {
		return domain.Session{}, err
	}
	e.runCancelers()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = domain.State{Phase: domain.PhaseRunning, Session: &session, RemainingSeconds: session.PlannedDurationSeconds}
	e.armLocked(time.Duration(session.PlannedDurationSeconds) * time.Second)
	e.commitLocked(ctx)
	e.logger.Info().Str("kind", string(kind)).Str("project", session.Project).Int("minutes", minutes).Msg("session started")
	return session, nil
}

// Pause freezes the remaining time. It is a no-op unless Running.
func (e *Engine) Pause(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase != domain.PhaseRunning {
		return
	}
	e.disarmLocked()
	e.state.RemainingSeconds = e.state.Session.RemainingSeconds(e.clock.Now())
	e.state.Phase = domain.PhasePaused
	e.commitLocked(ctx)
}

// Resume restarts the clock with the frozen remaining time as the new
// planned duration. It is a no-op unless Paused.
func (e *Engine) Resume(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase != domain.PhasePaused {
		return
	}
	resumed := e.state.Session.Resumed(e.state.RemainingSeconds, e.clock.Now())
	e.state = domain.State{Phase: domain.PhaseRunning, Session: &resumed, RemainingSeconds: resumed.PlannedDurationSeconds}
	e.armLocked(time.Duration(resumed.PlannedDurationSeconds) * time.Second)
	e.commitLocked(ctx)
}

// Reset discards the active session. Pending reminders and chains are
// canceled even when already Idle.
func (e *Engine) Reset(ctx context.Context) {
	e.runCancelers()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase == domain.PhaseIdle {
		return
	}
	e.disarmLocked()
	e.state = domain.IdleState()
	e.commitLocked(ctx)
	e.logger.Info().Msg("timer reset")
}

// Status is the state as seen at now.
func (e *Engine) Status() domain.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.View(e.clock.Now())
}

// Tick broadcasts the remaining time and completes the session when the
// polled time has run out, whether or not the alarm has fired.
func (e *Engine) Tick() {
	e.tick(nil)
}

// tick ignores a loop whose stop channel has been replaced.
func (e *Engine) tick(loop chan struct{}) {
	e.mu.Lock()
	if (loop != nil && loop != e.tickStop) || e.state.Phase != domain.PhaseRunning {
		e.mu.Unlock()
		return
	}
	e.publishLocked()
	if e.state.Session.RemainingSeconds(e.clock.Now()) > 0 {
		e.mu.Unlock()
		return
	}
	session, handler := e.detachLocked(e.ctx)
	e.mu.Unlock()
	if handler != nil {
		handler(e.ctx, session)
	}
}

// Close stops the tick loop and the alarm without touching persisted state.
func (e *Engine) Close() {
	e.mu.Lock()
	e.disarmLocked()
	e.mu.Unlock()
	e.cancel()
}

func (e *Engine) fire(token uint64) {
	e.mu.Lock()
	if token != e.armed || e.state.Phase != domain.PhaseRunning {
		e.mu.Unlock()
		return
	}
	session, handler := e.detachLocked(e.ctx)
	e.mu.Unlock()
	if handler != nil {
		handler(e.ctx, session)
	}
}

// detachLocked ends the running session and hands it back with the
// completion handler to call once the lock is released.
func (e *Engine) detachLocked(ctx context.Context) (domain.Session, CompletionFunc) {
	session := *e.state.Session
	e.disarmLocked()
	e.state = domain.IdleState()
	e.commitLocked(ctx)
	return session, e.onComplete
}

func (e *Engine) armLocked(after time.Duration) {
	e.armed++
	token := e.armed
	e.alarm.Arm(after, func() { e.fire(token) })
	e.startTicksLocked()
}

func (e *Engine) disarmLocked() {
	e.armed++
	e.alarm.Cancel()
	e.stopTicksLocked()
}

func (e *Engine) startTicksLocked() {
	e.stopTicksLocked()
	if e.tickInterval <= 0 {
		return
	}
	stop := make(chan struct{})
	e.tickStop = stop
	go func() {
		ticker := time.NewTicker(e.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-e.ctx.Done():
				return
			case <-ticker.C:
				e.tick(stop)
			}
		}
	}()
}

func (e *Engine) stopTicksLocked() {
	if e.tickStop != nil {
		close(e.tickStop)
		e.tickStop = nil
	}
}

func (e *Engine) commitLocked(ctx context.Context) {
	if err := e.store.Save(ctx, e.state); err != nil {
		e.metrics.RecordPersistenceError("timer")
		e.logger.Warn().Err(err).Str("phase", string(e.state.Phase)).Msg("timer state not persisted")
	}
	e.metrics.SetPhase(string(e.state.Phase))
	e.publishLocked()
}

func (e *Engine) publishLocked() {
	if e.publisher == nil {
		return
	}
	view := e.state.View(e.clock.Now())
	_ = e.publisher.Publish(EventTick, dto.Tick{
		RemainingSeconds: view.RemainingSeconds,
		Phase:            view.Phase,
		ActiveSession:    view.Session,
	})
}

func (e *Engine) runCancelers() {
	e.mu.Lock()
	cancelers := append([]Canceler(nil), e.cancelers...)
	e.mu.Unlock()
	for _, c := range cancelers {
		c.CancelPending()
	}
}
