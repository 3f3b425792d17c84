package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"pomodoro/internal/api"
	alertinadapter "pomodoro/internal/modules/alert/adapter/in"
	alertoutadapter "pomodoro/internal/modules/alert/adapter/out"
	alertout "pomodoro/internal/modules/alert/port/out"
	alertservice "pomodoro/internal/modules/alert/service"
	completionservice "pomodoro/internal/modules/completion/service"
	historyinadapter "pomodoro/internal/modules/history/adapter/in"
	historyoutadapter "pomodoro/internal/modules/history/adapter/out"
	historydomain "pomodoro/internal/modules/history/domain"
	historyservice "pomodoro/internal/modules/history/service"
	settingsinadapter "pomodoro/internal/modules/settings/adapter/in"
	settingsoutadapter "pomodoro/internal/modules/settings/adapter/out"
	settingsservice "pomodoro/internal/modules/settings/service"
	timerinadapter "pomodoro/internal/modules/timer/adapter/in"
	timeroutadapter "pomodoro/internal/modules/timer/adapter/out"
	timerservice "pomodoro/internal/modules/timer/service"
	timerusecase "pomodoro/internal/modules/timer/usecase"
	"pomodoro/internal/platform/bus"
	"pomodoro/internal/platform/clock"
	"pomodoro/internal/platform/config"
	"pomodoro/internal/platform/id"
	"pomodoro/internal/platform/logging"
	"pomodoro/internal/platform/metrics"
	uiapp "pomodoro/internal/ui/app"
)

const (
	flashInterval = 500 * time.Millisecond
	toneGap       = 250 * time.Millisecond
)

// Options select how long-lived the process is. A one-shot CLI command
// completes and chains sessions synchronously since it exits right after.
type Options struct {
	Interactive bool
	Bell        io.Writer
	Clock       clock.Clock
}

type App struct {
	Config  config.Config
	Logger  zerolog.Logger
	Bus     *bus.Bus
	Metrics *metrics.Metrics

	Engine       *timerservice.Engine
	Settings     *settingsservice.SettingsService
	History      *historyservice.Log
	Alerts       *alertservice.Coordinator
	Orchestrator *completionservice.Orchestrator

	store *historyoutadapter.SQLiteStore
}

func New(cfg config.Config, logger zerolog.Logger, opts Options) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	tz, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	locale, err := historydomain.LookupLocale(cfg.Locale)
	if err != nil {
		return nil, err
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	bell := opts.Bell
	if bell == nil {
		bell = io.Discard
	}
	ids := id.TimeOrdered{}
	m := metrics.New()
	b := bus.New(logger, m)

	settingsSvc := settingsservice.NewSettingsService(
		settingsoutadapter.NewYAMLStore(cfg.SettingsPath), b, logging.Component(logger, "settings"), m)

	store, err := historyoutadapter.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open session log: %w", err)
	}
	historyLog := historyservice.NewLog(store, clk, ids, locale, tz, logging.Component(logger, "history"), m)

	notifications := alertoutadapter.NewNotificationChannel(b, ids)
	flash := alertoutadapter.NewFlashChannel(b, flashInterval)
	channels := []alertout.Channel{
		notifications,
		alertoutadapter.NewSoundChannel(bell, toneGap),
		flash,
		alertoutadapter.NewPanelChannel(b),
		alertoutadapter.NewNativeChannel(cfg.NativeAlertCommand, b),
		alertoutadapter.NewVibrationChannel(b),
	}
	alertCfg := alertservice.Config{
		Timeout:          cfg.AlertTimeout,
		DedupWindow:      cfg.DedupWindow,
		ReminderInterval: cfg.ReminderInterval,
		ReminderCount:    cfg.ReminderCount,
	}
	tickInterval, chainDelay := cfg.TickInterval, cfg.ChainDelay
	if !opts.Interactive {
		alertCfg.ReminderCount = 0
		tickInterval, chainDelay = 0, 0
	}
	coordinator := alertservice.NewCoordinator(channels, settingsSvc, b, clk, alertCfg, logging.Component(logger, "alerts"), m)

	engine := timerservice.NewEngine(
		timeroutadapter.NewFileStateStore(cfg.StatePath),
		timeroutadapter.NewAfterFuncAlarm(),
		clk, b, tickInterval, logging.Component(logger, "timer"), m)
	orchestrator := completionservice.NewOrchestrator(
		coordinator, historyLog, settingsSvc, engine, b, clk, chainDelay, logging.Component(logger, "completion"), m)
	engine.SetCompletionHandler(orchestrator.Complete)
	engine.AddCanceler(orchestrator)
	engine.AddCanceler(coordinator)

	timerinadapter.NewBusHandler(timerusecase.NewInteractor(engine, settingsSvc, b, logging.Component(logger, "timer"))).Register(b)
	settingsinadapter.NewBusHandler(settingsSvc).Register(b)
	historyinadapter.NewBusHandler(historyLog, b).Register(b)
	alertinadapter.NewBusHandler(coordinator, notifications).Register(b)

	return &App{
		Config:       cfg,
		Logger:       logger,
		Bus:          b,
		Metrics:      m,
		Engine:       engine,
		Settings:     settingsSvc,
		History:      historyLog,
		Alerts:       coordinator,
		Orchestrator: orchestrator,
		store:        store,
	}, nil
}

// Start restores the persisted timer, completing a session that ran out
// while no process was watching.
func (a *App) Start(ctx context.Context) error {
	return a.Engine.Load(ctx)
}

// Call runs one action in-process.
func (a *App) Call(ctx context.Context, action string, params, out any) error {
	return a.Bus.Call(ctx, action, params, out)
}

func (a *App) Close() error {
	a.Engine.Close()
	a.Orchestrator.CancelPending()
	a.Alerts.CancelPending()
	a.Bus.Close()
	return a.store.Close()
}

// Server builds the HTTP transport over the app's bus.
func (a *App) Server() *api.Server {
	return api.NewServer(a.Config.HTTPAddr, a.Bus, a.Metrics, a.Logger)
}

func RunTUI(ctx context.Context, app *App) error {
	model := uiapp.NewModel(ctx, app.Bus, app.Config.PollInterval)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
