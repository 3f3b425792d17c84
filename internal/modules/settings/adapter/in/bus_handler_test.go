package in_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	settingsin "pomodoro/internal/modules/settings/adapter/in"
	settingsout "pomodoro/internal/modules/settings/adapter/out"
	"pomodoro/internal/modules/settings/domain"
	"pomodoro/internal/modules/settings/dto"
	"pomodoro/internal/modules/settings/service"
	"pomodoro/internal/platform/bus"
)

func setup(t *testing.T) *bus.Bus {
	t.Helper()
	b := bus.New(zerolog.Nop(), nil)
	store := settingsout.NewYAMLStore(filepath.Join(t.TempDir(), "settings.yaml"))
	settingsin.NewBusHandler(service.NewSettingsService(store, b, zerolog.Nop(), nil)).Register(b)
	return b
}

func TestSettingsCommands(t *testing.T) {
	t.Parallel()
	b := setup(t)
	ctx := context.Background()

	var view dto.View
	require.NoError(t, b.Call(ctx, settingsin.ActionGetSettings, nil, &view))
	assert.Equal(t, dto.ToView(domain.Default()), view)

	require.NoError(t, b.Call(ctx, settingsin.ActionUpdateSettings, map[string]any{"breakMinutes": 10, "autoStartEnabled": false}, &view))
	assert.Equal(t, 10, view.BreakMinutes)
	assert.Equal(t, domain.DefaultWorkMinutes, view.WorkMinutes)
	assert.False(t, view.AutoStartEnabled)

	resp := b.Dispatch(ctx, bus.Request{Action: settingsin.ActionUpdateSettings, Params: []byte(`{"workMinutes":0}`)})
	assert.False(t, resp.Success)
}

func TestAlertSettingCommands(t *testing.T) {
	t.Parallel()
	b := setup(t)
	ctx := context.Background()

	var alerts domain.AlertSettings
	require.NoError(t, b.Call(ctx, settingsin.ActionUpdateAlertSetting, map[string]string{"key": "nativeAlert", "value": "true"}, &alerts))
	assert.True(t, alerts.NativeAlert)

	require.NoError(t, b.Call(ctx, settingsin.ActionResetAlertSettings, nil, &alerts))
	assert.Equal(t, domain.DefaultAlerts(), alerts)
}
