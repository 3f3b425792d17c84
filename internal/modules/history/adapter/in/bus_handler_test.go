package in_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	historyin "pomodoro/internal/modules/history/adapter/in"
	historyout "pomodoro/internal/modules/history/adapter/out"
	"pomodoro/internal/modules/history/domain"
	"pomodoro/internal/modules/history/dto"
	"pomodoro/internal/modules/history/service"
	"pomodoro/internal/platform/bus"
	"pomodoro/internal/platform/clock"
	apperrors "pomodoro/internal/platform/errors"
	"pomodoro/internal/platform/id"
)

func setup(t *testing.T) (*bus.Bus, *service.Log) {
	t.Helper()
	store, err := historyout.NewSQLiteStore(filepath.Join(t.TempDir(), "pomodoro.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	b := bus.New(zerolog.Nop(), nil)
	clk := clock.NewManual(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	log := service.NewLog(store, clk, id.TimeOrdered{}, domain.DefaultLocale(), time.UTC, zerolog.Nop(), nil)
	historyin.NewBusHandler(log, b).Register(b)
	return b, log
}

func TestBusHandler_ProjectLifecycle(t *testing.T) {
	t.Parallel()
	b, log := setup(t)
	ctx := context.Background()
	_, events := b.Subscribe(8)

	for _, p := range []string{"Acme", "Side"} {
		_, err := log.Record(ctx, dto.RecordInput{Kind: domain.KindWork, Project: p, DurationMinutes: 25})
		require.NoError(t, err)
	}

	var change dto.ProjectChange
	require.NoError(t, b.Call(ctx, historyin.ActionMergeProjects, dto.RenameInput{From: "Side", To: "Acme"}, &change))
	assert.Equal(t, 1, change.Affected)

	event := <-events
	assert.Equal(t, historyin.EventHistoryChanged, event.Name)

	var projects []string
	require.NoError(t, b.Call(ctx, historyin.ActionManagedProjects, nil, &projects))
	assert.Equal(t, []string{"Acme"}, projects)

	require.NoError(t, b.Call(ctx, historyin.ActionDeleteProject, map[string]string{"name": "Acme"}, &change))
	require.NoError(t, b.Call(ctx, historyin.ActionProjectFilter, nil, &projects))
	assert.Empty(t, projects)
}

func TestBusHandler_EditValidation(t *testing.T) {
	t.Parallel()
	b, log := setup(t)
	ctx := context.Background()
	rec, err := log.Record(ctx, dto.RecordInput{Kind: domain.KindWork, Project: "Acme", DurationMinutes: 25})
	require.NoError(t, err)

	resp := b.Dispatch(ctx, bus.Request{Action: historyin.ActionEditSession, Params: []byte(`{"id":"` + rec.ID + `","duration":-5}`)})
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)

	_, err = b.Exec(ctx, bus.Request{Action: historyin.ActionEditSession, Params: []byte(`{"id":`)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestBusHandler_ExportCSV(t *testing.T) {
	t.Parallel()
	b, log := setup(t)
	ctx := context.Background()
	_, err := log.Record(ctx, dto.RecordInput{Kind: domain.KindWork, Project: "Acme", DurationMinutes: 25})
	require.NoError(t, err)

	var out historyin.ExportPayload
	require.NoError(t, b.Call(ctx, historyin.ActionExportCSV, nil, &out))
	assert.Equal(t, "pomodoro-sessions-2024-03-01.csv", out.Filename)
	assert.Contains(t, out.Content, `"2024-03-01","09:00:00","Trabajo","Acme","25","Friday","March","2024"`)
}
