package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	alertdomain "pomodoro/internal/modules/alert/domain"
	"pomodoro/internal/modules/completion/domain"
	completionin "pomodoro/internal/modules/completion/port/in"
	completionout "pomodoro/internal/modules/completion/port/out"
	historydomain "pomodoro/internal/modules/history/domain"
	historydto "pomodoro/internal/modules/history/dto"
	timerdomain "pomodoro/internal/modules/timer/domain"
	"pomodoro/internal/platform/bus"
	"pomodoro/internal/platform/clock"
	apperrors "pomodoro/internal/platform/errors"
	"pomodoro/internal/platform/metrics"
)

const EventSessionCompleted = "sessionCompleted"

// Completed is the payload of EventSessionCompleted.
type Completed struct {
	Kind    timerdomain.Kind `json:"type"`
	Project string           `json:"project,omitempty"`
	Next    *domain.Next     `json:"next,omitempty"`
}

// Orchestrator runs one completion sequence at a time: alert and record,
// then either chain the next session after a delay or leave the timer idle.
type Orchestrator struct {
	alerts    completionout.Alerter
	log       completionout.Recorder
	settings  completionout.SettingsReader
	timer     completionout.Starter
	publisher bus.Publisher
	clock     clock.Clock
	delay     time.Duration
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	afterFunc func(time.Duration, func()) *time.Timer

	mu       sync.Mutex
	inFlight bool
	gen      uint64
	pending  *time.Timer
}

var _ completionin.Usecase = (*Orchestrator)(nil)

func NewOrchestrator(alerts completionout.Alerter, log completionout.Recorder, settings completionout.SettingsReader, timer completionout.Starter, publisher bus.Publisher, clk clock.Clock, delay time.Duration, logger zerolog.Logger, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		alerts:    alerts,
		log:       log,
		settings:  settings,
		timer:     timer,
		publisher: publisher,
		clock:     clk,
		delay:     delay,
		logger:    logger,
		metrics:   m,
		afterFunc: time.AfterFunc,
	}
}

// Complete handles a session the timer has already detached. A trigger
// arriving while another sequence is in flight is dropped.
func (o *Orchestrator) Complete(ctx context.Context, session timerdomain.Session) {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		o.logger.Debug().Str("kind", string(session.Kind)).Msg("completion already in flight, dropped")
		return
	}
	o.inFlight = true
	gen := o.gen
	o.mu.Unlock()

	prefs := o.settings.Get(ctx)
	next, chain := domain.Plan(session, prefs)

	alert := alertdomain.Alert{
		Kind:            alertdomain.Kind(session.Kind),
		DurationMinutes: session.DurationMinutes,
		Project:         session.Project,
		AutoStart:       chain,
		At:              o.clock.Now(),
	}
	if chain {
		alert.NextKind = alertdomain.Kind(next.Kind)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		report := o.alerts.Notify(ctx, alert)
		if len(report.Failed) > 0 {
			o.logger.Warn().Int("failed", len(report.Failed)).Str("key", report.Key).Msg("some alert channels failed")
		}
	}()
	rec, err := o.log.Record(ctx, historydto.RecordInput{
		Kind:            historydomain.Kind(session.Kind),
		Project:         session.Project,
		DurationMinutes: session.DurationMinutes,
		CompletedAt:     session.EndsAt(),
	})
	if err != nil {
		o.logger.Warn().Err(err).Str("kind", string(session.Kind)).Msg("completed session not recorded")
	} else {
		o.logger.Info().Str("id", rec.ID).Str("kind", string(session.Kind)).Msg("session completed")
	}
	wg.Wait()
	o.metrics.RecordSession(string(session.Kind))

	payload := Completed{Kind: session.Kind, Project: session.Project}
	if chain {
		payload.Next = &next
	}
	o.publish(EventSessionCompleted, payload)

	o.mu.Lock()
	if !chain || gen != o.gen {
		// Not chaining, or a start/reset canceled this sequence midway.
		o.inFlight = false
		o.mu.Unlock()
		return
	}
	if o.delay <= 0 {
		o.mu.Unlock()
		o.chain(ctx, gen, next)
		return
	}
	o.pending = o.afterFunc(o.delay, func() { o.chain(ctx, gen, next) })
	o.mu.Unlock()
}

// CancelPending drops a scheduled chain. The timer calls it on every start
// and reset so a stale chain never lands on a newer session.
func (o *Orchestrator) CancelPending() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gen++
	if o.pending != nil {
		o.pending.Stop()
		o.pending = nil
		o.inFlight = false
	}
}

// InFlight reports whether a completion sequence or its chain is pending.
func (o *Orchestrator) InFlight() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inFlight
}

func (o *Orchestrator) chain(ctx context.Context, gen uint64, next domain.Next) {
	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return
	}
	o.pending = nil
	o.inFlight = false
	o.mu.Unlock()

	if _, err := o.timer.Start(ctx, next.Kind, next.Project, next.Minutes); err != nil {
		o.logger.Warn().Err(err).Str("kind", string(next.Kind)).Msg("chained session not started")
		return
	}
	o.logger.Info().Str("kind", string(next.Kind)).Str("project", next.Project).Int("minutes", next.Minutes).Msg("chained next session")
}

func (o *Orchestrator) publish(name string, data any) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(name, data); err != nil && !errors.Is(err, apperrors.ErrTransport) {
		o.logger.Debug().Err(err).Str("event", name).Msg("event not delivered")
	}
}
