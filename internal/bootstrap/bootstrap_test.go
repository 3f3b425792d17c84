package bootstrap_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomodoro/internal/bootstrap"
	historyin "pomodoro/internal/modules/history/adapter/in"
	historydto "pomodoro/internal/modules/history/dto"
	timerin "pomodoro/internal/modules/timer/adapter/in"
	timerdomain "pomodoro/internal/modules/timer/domain"
	timerdto "pomodoro/internal/modules/timer/dto"
	"pomodoro/internal/platform/clock"
	"pomodoro/internal/platform/config"
)

func newApp(t *testing.T, dir string, clk clock.Clock) *bootstrap.App {
	t.Helper()
	cfg, err := config.New(config.Config{DataDir: dir, Locale: "en", Timezone: "UTC", AlertTimeout: time.Second})
	require.NoError(t, err)
	app, err := bootstrap.New(cfg, zerolog.Nop(), bootstrap.Options{Clock: clk})
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background()))
	return app
}

func TestNew_RegistersEveryAction(t *testing.T) {
	t.Parallel()
	app := newApp(t, t.TempDir(), clock.NewManual(time.Now()))
	defer app.Close()

	for _, action := range []string{
		"start", "pause", "resume", "reset", "getStatus", "setAutoStart",
		"getSettings", "updateSettings", "getAlertSettings", "updateAlertSetting", "resetAlertSettings",
		"getHistory", "getStats", "getTodaySummary", "loadProjectFilter", "loadProjects",
		"editSession", "deleteSession", "renameProject", "mergeProjects", "deleteProject",
		"exportJSON", "exportCSV", "importSessions",
		"testAlerts", "notificationAction", "dismissNotification", "getNotifications",
	} {
		assert.Contains(t, app.Bus.Actions(), action)
	}
}

func TestStart_CompletesSessionThatExpiredWhileStopped(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	clk := clock.NewManual(time.Date(2026, 5, 4, 14, 0, 0, 0, time.UTC))
	ctx := context.Background()

	first := newApp(t, dir, clk)
	require.NoError(t, first.Call(ctx, timerin.ActionStart, timerdto.StartInput{Type: "work", Project: "Thesis", Duration: 25}, nil))
	require.NoError(t, first.Close())

	clk.Advance(40 * time.Minute)
	second := newApp(t, dir, clk)
	defer second.Close()

	var view historydto.HistoryView
	require.NoError(t, second.Call(ctx, historyin.ActionHistory, map[string]string{"period": "today"}, &view))
	require.Equal(t, 1, view.Total)
	rec := view.Days[0].Sessions[0]
	assert.Equal(t, "Thesis", rec.Project)
	assert.Equal(t, 25, rec.DurationMinutes)

	var status timerdto.Status
	require.NoError(t, second.Call(ctx, timerin.ActionGetStatus, nil, &status))
	assert.Equal(t, timerdomain.PhaseRunning, status.Phase)
	require.NotNil(t, status.ActiveSession)
	assert.Equal(t, timerdomain.KindBreak, status.ActiveSession.Kind)
	assert.Equal(t, "Thesis", status.LastProject)
}

func TestStart_PausedSessionSurvivesRestart(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	clk := clock.NewManual(time.Date(2026, 5, 4, 14, 0, 0, 0, time.UTC))
	ctx := context.Background()

	first := newApp(t, dir, clk)
	require.NoError(t, first.Call(ctx, timerin.ActionStart, timerdto.StartInput{Type: "break", Duration: 5}, nil))
	clk.Advance(2 * time.Minute)
	require.NoError(t, first.Call(ctx, timerin.ActionPause, nil, nil))
	require.NoError(t, first.Close())

	clk.Advance(time.Hour)
	second := newApp(t, dir, clk)
	defer second.Close()

	var status timerdto.Status
	require.NoError(t, second.Call(ctx, timerin.ActionGetStatus, nil, &status))
	assert.Equal(t, timerdomain.PhasePaused, status.Phase)
	assert.Equal(t, 180, status.RemainingSeconds)
}
