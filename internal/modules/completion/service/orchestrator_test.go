package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	alertdomain "pomodoro/internal/modules/alert/domain"
	"pomodoro/internal/modules/completion/service"
	historydomain "pomodoro/internal/modules/history/domain"
	historydto "pomodoro/internal/modules/history/dto"
	settingsdomain "pomodoro/internal/modules/settings/domain"
	timerdomain "pomodoro/internal/modules/timer/domain"
	timerservice "pomodoro/internal/modules/timer/service"
	"pomodoro/internal/platform/bus"
	"pomodoro/internal/platform/clock"
)

type fakeAlerter struct {
	mu     sync.Mutex
	alerts []alertdomain.Alert
	block  chan struct{}
}

func (a *fakeAlerter) Notify(_ context.Context, alert alertdomain.Alert) alertdomain.Report {
	if a.block != nil {
		<-a.block
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, alert)
	return alertdomain.Report{}
}

func (a *fakeAlerter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.alerts)
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []historydto.RecordInput
	err     error
}

func (r *fakeRecorder) Record(_ context.Context, input historydto.RecordInput) (historydomain.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return historydomain.SessionRecord{}, r.err
	}
	r.records = append(r.records, input)
	return historydomain.SessionRecord{ID: "rec", Kind: input.Kind, Project: input.Project, DurationMinutes: input.DurationMinutes}, nil
}

func (r *fakeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type staticSettings struct {
	settings settingsdomain.Settings
}

func (s staticSettings) Get(context.Context) settingsdomain.Settings { return s.settings }

type started struct {
	kind    timerdomain.Kind
	project string
	minutes int
}

type fakeStarter struct {
	mu    sync.Mutex
	calls []started
}

func (s *fakeStarter) Start(_ context.Context, kind timerdomain.Kind, project string, minutes int) (timerdomain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, started{kind: kind, project: project, minutes: minutes})
	return timerdomain.Session{Kind: kind, Project: project, DurationMinutes: minutes}, nil
}

func (s *fakeStarter) started() []started {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]started(nil), s.calls...)
}

type eventLog struct {
	mu     sync.Mutex
	events []bus.Event
}

func (p *eventLog) Publish(name string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, bus.Event{Name: name, Data: data})
	return nil
}

func (p *eventLog) named(name string) []bus.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []bus.Event
	for _, ev := range p.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

type deps struct {
	alerts   *fakeAlerter
	log      *fakeRecorder
	starter  *fakeStarter
	events   *eventLog
	settings settingsdomain.Settings
}

func newDeps() *deps {
	prefs := settingsdomain.Default()
	prefs.LastProject = "Acme"
	return &deps{alerts: &fakeAlerter{}, log: &fakeRecorder{}, starter: &fakeStarter{}, events: &eventLog{}, settings: prefs}
}

func (d *deps) orchestrator(delay time.Duration) *service.Orchestrator {
	clk := clock.NewManual(time.Date(2024, 3, 1, 9, 25, 0, 0, time.UTC))
	return service.NewOrchestrator(d.alerts, d.log, staticSettings{settings: d.settings}, d.starter, d.events, clk, delay, zerolog.Nop(), nil)
}

func workSession() timerdomain.Session {
	return timerdomain.Session{Kind: timerdomain.KindWork, Project: "Acme", DurationMinutes: 25, PlannedDurationSeconds: 1500}
}

func breakSession() timerdomain.Session {
	return timerdomain.Session{Kind: timerdomain.KindBreak, DurationMinutes: 5, PlannedDurationSeconds: 300}
}

func TestComplete_WorkChainsIntoBreakRegardlessOfAutoStart(t *testing.T) {
	t.Parallel()
	for _, autoStart := range []bool{true, false} {
		d := newDeps()
		d.settings.AutoStartEnabled = autoStart
		o := d.orchestrator(0)

		o.Complete(context.Background(), workSession())

		require.Equal(t, []started{{kind: timerdomain.KindBreak, minutes: 5}}, d.starter.started(), "autoStart=%v", autoStart)
		assert.Equal(t, 1, d.alerts.count())
		assert.Equal(t, 1, d.log.count())
		assert.False(t, o.InFlight())
		assert.Len(t, d.events.named(service.EventSessionCompleted), 1)
	}
}

func TestComplete_BreakChainsOnlyWithAutoStart(t *testing.T) {
	t.Parallel()
	d := newDeps()
	o := d.orchestrator(0)
	o.Complete(context.Background(), breakSession())
	assert.Equal(t, []started{{kind: timerdomain.KindWork, project: "Acme", minutes: 25}}, d.starter.started())

	d = newDeps()
	d.settings.AutoStartEnabled = false
	o = d.orchestrator(0)
	o.Complete(context.Background(), breakSession())
	assert.Empty(t, d.starter.started())
	assert.False(t, o.InFlight())

	completed := d.events.named(service.EventSessionCompleted)
	require.Len(t, completed, 1)
	payload := completed[0].Data.(service.Completed)
	assert.Equal(t, timerdomain.KindBreak, payload.Kind)
	assert.Nil(t, payload.Next)
}

func TestComplete_AlertCarriesSessionDetails(t *testing.T) {
	t.Parallel()
	d := newDeps()
	o := d.orchestrator(0)
	o.Complete(context.Background(), workSession())

	require.Equal(t, 1, d.alerts.count())
	alert := d.alerts.alerts[0]
	assert.Equal(t, alertdomain.Kind("work"), alert.Kind)
	assert.Equal(t, 25, alert.DurationMinutes)
	assert.Equal(t, "Acme", alert.Project)
	assert.Equal(t, alertdomain.Kind("break"), alert.NextKind)
	assert.True(t, alert.AutoStart)

	rec := d.log.records[0]
	assert.Equal(t, historydomain.Kind("work"), rec.Kind)
	assert.Equal(t, "Acme", rec.Project)
	assert.Equal(t, 25, rec.DurationMinutes)
}

func TestComplete_RecordFailureStillChains(t *testing.T) {
	t.Parallel()
	d := newDeps()
	d.log.err = errors.New("disk full")
	o := d.orchestrator(0)

	o.Complete(context.Background(), workSession())
	assert.Len(t, d.starter.started(), 1)
	assert.Len(t, d.events.named(service.EventSessionCompleted), 1)
}

func TestComplete_SecondTriggerWhileInFlightIsDropped(t *testing.T) {
	t.Parallel()
	d := newDeps()
	d.alerts.block = make(chan struct{})
	o := d.orchestrator(0)

	done := make(chan struct{})
	go func() {
		o.Complete(context.Background(), workSession())
		close(done)
	}()
	require.Eventually(t, o.InFlight, time.Second, time.Millisecond)

	o.Complete(context.Background(), workSession())
	close(d.alerts.block)
	<-done

	assert.Equal(t, 1, d.alerts.count())
	assert.Equal(t, 1, d.log.count())
	assert.Len(t, d.starter.started(), 1)
}

func TestComplete_DelayedChain(t *testing.T) {
	t.Parallel()
	d := newDeps()
	o := d.orchestrator(20 * time.Millisecond)

	o.Complete(context.Background(), workSession())
	assert.Empty(t, d.starter.started())
	assert.True(t, o.InFlight())

	require.Eventually(t, func() bool { return len(d.starter.started()) == 1 }, time.Second, time.Millisecond)
	assert.False(t, o.InFlight())
}

func TestCancelPending_DropsScheduledChain(t *testing.T) {
	t.Parallel()
	d := newDeps()
	o := d.orchestrator(20 * time.Millisecond)

	o.Complete(context.Background(), workSession())
	o.CancelPending()
	assert.False(t, o.InFlight())

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, d.starter.started())
}

func TestCancelPending_MidSequenceSkipsChain(t *testing.T) {
	t.Parallel()
	d := newDeps()
	d.alerts.block = make(chan struct{})
	o := d.orchestrator(0)

	done := make(chan struct{})
	go func() {
		o.Complete(context.Background(), workSession())
		close(done)
	}()
	require.Eventually(t, o.InFlight, time.Second, time.Millisecond)
	o.CancelPending()
	close(d.alerts.block)
	<-done

	assert.Empty(t, d.starter.started())
	assert.False(t, o.InFlight())
	assert.Equal(t, 1, d.log.count())
}

type memoryState struct {
	mu    sync.Mutex
	state timerdomain.State
}

func (s *memoryState) Load(context.Context) (timerdomain.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase == "" {
		return timerdomain.IdleState(), nil
	}
	return s.state, nil
}

func (s *memoryState) Save(_ context.Context, state timerdomain.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	return nil
}

type manualAlarm struct {
	mu   sync.Mutex
	fire func()
}

func (a *manualAlarm) Arm(_ time.Duration, fire func()) {
	a.mu.Lock()
	a.fire = fire
	a.mu.Unlock()
}

func (a *manualAlarm) Cancel() {}

func (a *manualAlarm) trigger() {
	a.mu.Lock()
	fire := a.fire
	a.mu.Unlock()
	fire()
}

func TestEngineAndOrchestrator_ChainAndResetWhileChaining(t *testing.T) {
	t.Parallel()
	d := newDeps()
	d.settings.AutoStartEnabled = false
	clk := clock.NewManual(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	alarm := &manualAlarm{}
	engine := timerservice.NewEngine(&memoryState{}, alarm, clk, nil, 0, zerolog.Nop(), nil)
	t.Cleanup(engine.Close)
	o := service.NewOrchestrator(d.alerts, d.log, staticSettings{settings: d.settings}, engine, d.events, clk, 20*time.Millisecond, zerolog.Nop(), nil)
	engine.SetCompletionHandler(o.Complete)
	engine.AddCanceler(o)
	ctx := context.Background()

	_, err := engine.Start(ctx, timerdomain.KindWork, "Acme", 25)
	require.NoError(t, err)
	clk.Advance(25 * time.Minute)
	alarm.trigger()
	alarm.trigger()

	assert.Equal(t, 1, d.log.count())
	assert.Equal(t, timerdomain.PhaseIdle, engine.Status().Phase)
	require.Eventually(t, func() bool { return engine.Status().Phase == timerdomain.PhaseRunning }, time.Second, time.Millisecond)
	status := engine.Status()
	assert.Equal(t, timerdomain.KindBreak, status.Session.Kind)
	assert.Equal(t, 300, status.RemainingSeconds)

	clk.Advance(5 * time.Minute)
	alarm.trigger()
	assert.Equal(t, 2, d.log.count())
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, timerdomain.PhaseIdle, engine.Status().Phase)

	_, err = engine.Start(ctx, timerdomain.KindWork, "Acme", 25)
	require.NoError(t, err)
	clk.Advance(25 * time.Minute)
	alarm.trigger()
	engine.Reset(ctx)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, timerdomain.PhaseIdle, engine.Status().Phase)
	assert.Equal(t, 3, d.log.count())
}

func TestComplete_RecordsWhenTheSessionRanOut(t *testing.T) {
	t.Parallel()
	d := newDeps()
	o := d.orchestrator(0)
	session := workSession()
	session.StartedAt = time.Date(2024, 2, 29, 23, 50, 0, 0, time.UTC)

	o.Complete(context.Background(), session)

	require.Equal(t, 1, d.log.count())
	assert.True(t, d.log.records[0].CompletedAt.Equal(time.Date(2024, 3, 1, 0, 15, 0, 0, time.UTC)))
	assert.True(t, d.alerts.alerts[0].At.Equal(time.Date(2024, 3, 1, 9, 25, 0, 0, time.UTC)))
}
