package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"pomodoro/internal/modules/timer/domain"
	"pomodoro/internal/modules/timer/dto"
	timerin "pomodoro/internal/modules/timer/port/in"
	timerout "pomodoro/internal/modules/timer/port/out"
	"pomodoro/internal/modules/timer/service"
	"pomodoro/internal/platform/bus"
	apperrors "pomodoro/internal/platform/errors"
)

const EventAutoStartChanged = "autoStartChanged"

type Interactor struct {
	engine    *service.Engine
	prefs     timerout.Preferences
	publisher bus.Publisher
	logger    zerolog.Logger
}

func NewInteractor(engine *service.Engine, prefs timerout.Preferences, publisher bus.Publisher, logger zerolog.Logger) timerin.Usecase {
	return &Interactor{engine: engine, prefs: prefs, publisher: publisher, logger: logger}
}

// Start validates the command and remembers the project of work sessions
// so the next chained work session reuses it.
func (i *Interactor) Start(ctx context.Context, input dto.StartInput) error {
	kind, err := domain.ParseKind(input.Type)
	if err != nil {
		return err
	}
	session, err := i.engine.Start(ctx, kind, input.Project, input.Duration)
	if err != nil {
		return err
	}
	if kind == domain.KindWork {
		if err := i.prefs.SetLastProject(ctx, session.Project); err != nil {
			i.logger.Warn().Err(err).Msg("last project not saved")
		}
	}
	return nil
}

func (i *Interactor) Pause(ctx context.Context) error {
	i.engine.Pause(ctx)
	return nil
}

func (i *Interactor) Resume(ctx context.Context) error {
	i.engine.Resume(ctx)
	return nil
}

func (i *Interactor) Reset(ctx context.Context) error {
	i.engine.Reset(ctx)
	return nil
}

func (i *Interactor) Status(ctx context.Context) dto.Status {
	view := i.engine.Status()
	prefs := i.prefs.Get(ctx)
	return dto.Status{
		Phase:            view.Phase,
		RemainingSeconds: view.RemainingSeconds,
		ActiveSession:    view.Session,
		AutoStartEnabled: prefs.AutoStartEnabled,
		LastProject:      prefs.LastProject,
		Badge:            domain.BadgeFor(view),
	}
}

func (i *Interactor) SetAutoStart(ctx context.Context, enabled bool) error {
	if _, err := i.prefs.SetAutoStart(ctx, enabled); err != nil {
		return err
	}
	if i.publisher != nil {
		if err := i.publisher.Publish(EventAutoStartChanged, map[string]bool{"enabled": enabled}); err != nil && !errors.Is(err, apperrors.ErrTransport) {
			i.logger.Debug().Err(err).Msg("auto-start change not broadcast")
		}
	}
	return nil
}
