package in_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	settingsout "pomodoro/internal/modules/settings/adapter/out"
	settingsservice "pomodoro/internal/modules/settings/service"
	timerin "pomodoro/internal/modules/timer/adapter/in"
	timerout "pomodoro/internal/modules/timer/adapter/out"
	"pomodoro/internal/modules/timer/domain"
	"pomodoro/internal/modules/timer/dto"
	"pomodoro/internal/modules/timer/service"
	"pomodoro/internal/modules/timer/usecase"
	"pomodoro/internal/platform/bus"
	"pomodoro/internal/platform/clock"
)

type harness struct {
	bus      *bus.Bus
	clock    *clock.Manual
	settings *settingsservice.SettingsService
}

func setup(t *testing.T) harness {
	t.Helper()
	dir := t.TempDir()
	b := bus.New(zerolog.Nop(), nil)
	t.Cleanup(b.Close)
	clk := clock.NewManual(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	settings := settingsservice.NewSettingsService(settingsout.NewYAMLStore(filepath.Join(dir, "settings.yaml")), b, zerolog.Nop(), nil)
	engine := service.NewEngine(timerout.NewFileStateStore(filepath.Join(dir, "timer-state.json")), timerout.NewAfterFuncAlarm(), clk, b, 0, zerolog.Nop(), nil)
	t.Cleanup(engine.Close)
	timerin.NewBusHandler(usecase.NewInteractor(engine, settings, b, zerolog.Nop())).Register(b)
	return harness{bus: b, clock: clk, settings: settings}
}

func TestTimerCommands_StartPauseResumeReset(t *testing.T) {
	t.Parallel()
	h := setup(t)
	ctx := context.Background()

	require.NoError(t, h.bus.Call(ctx, timerin.ActionStart, dto.StartInput{Duration: 25, Type: "work", Project: "Acme"}, nil))

	var status dto.Status
	require.NoError(t, h.bus.Call(ctx, timerin.ActionGetStatus, nil, &status))
	assert.Equal(t, domain.PhaseRunning, status.Phase)
	assert.Equal(t, 1500, status.RemainingSeconds)
	assert.Equal(t, "Acme", status.LastProject)
	assert.True(t, status.AutoStartEnabled)
	assert.Equal(t, domain.Badge{Text: "25", Color: domain.ColorWork}, status.Badge)
	require.NotNil(t, status.ActiveSession)
	assert.Equal(t, domain.KindWork, status.ActiveSession.Kind)

	h.clock.Advance(90 * time.Second)
	require.NoError(t, h.bus.Call(ctx, timerin.ActionPause, nil, nil))
	require.NoError(t, h.bus.Call(ctx, timerin.ActionPause, nil, nil))
	require.NoError(t, h.bus.Call(ctx, timerin.ActionGetStatus, nil, &status))
	assert.Equal(t, domain.PhasePaused, status.Phase)
	assert.Equal(t, 1410, status.RemainingSeconds)
	assert.Equal(t, domain.ColorPaused, status.Badge.Color)

	require.NoError(t, h.bus.Call(ctx, timerin.ActionResume, nil, nil))
	require.NoError(t, h.bus.Call(ctx, timerin.ActionGetStatus, nil, &status))
	assert.Equal(t, domain.PhaseRunning, status.Phase)
	assert.Equal(t, 1410, status.RemainingSeconds)

	require.NoError(t, h.bus.Call(ctx, timerin.ActionReset, nil, nil))
	require.NoError(t, h.bus.Call(ctx, timerin.ActionGetStatus, nil, &status))
	assert.Equal(t, domain.PhaseIdle, status.Phase)
	assert.Nil(t, status.ActiveSession)
	assert.Equal(t, domain.Badge{}, status.Badge)
}

func TestTimerCommands_RejectsInvalidStart(t *testing.T) {
	t.Parallel()
	h := setup(t)
	ctx := context.Background()

	for _, params := range []string{
		`{"duration":25,"type":"work"}`,
		`{"duration":0,"type":"break"}`,
		`{"duration":25,"type":"nap"}`,
		`{"duration":"x"}`,
	} {
		resp := h.bus.Dispatch(ctx, bus.Request{Action: timerin.ActionStart, Params: []byte(params)})
		assert.False(t, resp.Success, params)
		assert.NotEmpty(t, resp.Error, params)
	}

	var status dto.Status
	require.NoError(t, h.bus.Call(ctx, timerin.ActionGetStatus, nil, &status))
	assert.Equal(t, domain.PhaseIdle, status.Phase)
	assert.Empty(t, status.LastProject)
}

func TestTimerCommands_BreakKeepsLastProject(t *testing.T) {
	t.Parallel()
	h := setup(t)
	ctx := context.Background()

	require.NoError(t, h.bus.Call(ctx, timerin.ActionStart, dto.StartInput{Duration: 25, Type: "work", Project: "Acme"}, nil))
	require.NoError(t, h.bus.Call(ctx, timerin.ActionStart, dto.StartInput{Duration: 5, Type: "Break", Project: "ignored"}, nil))

	var status dto.Status
	require.NoError(t, h.bus.Call(ctx, timerin.ActionGetStatus, nil, &status))
	assert.Equal(t, domain.KindBreak, status.ActiveSession.Kind)
	assert.Empty(t, status.ActiveSession.Project)
	assert.Equal(t, "Acme", status.LastProject)
	assert.Equal(t, domain.ColorBreak, status.Badge.Color)
}

func TestTimerCommands_SetAutoStartBroadcasts(t *testing.T) {
	t.Parallel()
	h := setup(t)
	ctx := context.Background()
	id, events := h.bus.Subscribe(16)
	t.Cleanup(func() { h.bus.Unsubscribe(id) })

	require.NoError(t, h.bus.Call(ctx, timerin.ActionSetAutoStart, dto.AutoStartInput{Enabled: false}, nil))
	assert.False(t, h.settings.Get(ctx).AutoStartEnabled)

	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Name != usecase.EventAutoStartChanged {
				continue
			}
			assert.Equal(t, map[string]bool{"enabled": false}, ev.Data)
			return
		case <-deadline:
			t.Fatal("autoStartChanged not published")
		}
	}
}
