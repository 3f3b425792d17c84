package out_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	timerout "pomodoro/internal/modules/timer/adapter/out"
	"pomodoro/internal/modules/timer/domain"
	apperrors "pomodoro/internal/platform/errors"
)

func TestAlarm_ReplacingCancelsPrevious(t *testing.T) {
	t.Parallel()
	alarm := timerout.NewAfterFuncAlarm()
	var first, second int32

	alarm.Arm(10*time.Millisecond, func() { atomic.AddInt32(&first, 1) })
	alarm.Arm(20*time.Millisecond, func() { atomic.AddInt32(&second, 1) })
	require.Eventually(t, func() bool { return atomic.LoadInt32(&second) == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&first))
	assert.False(t, alarm.Armed())
}

func TestAlarm_Cancel(t *testing.T) {
	t.Parallel()
	alarm := timerout.NewAfterFuncAlarm()
	var fired int32
	alarm.Arm(5*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	assert.True(t, alarm.Armed())
	alarm.Cancel()
	time.Sleep(25 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&fired))
}

func TestFileStateStore_RoundTrip(t *testing.T) {
	t.Parallel()
	store := timerout.NewFileStateStore(filepath.Join(t.TempDir(), "state", "timer-state.json"))
	ctx := context.Background()

	state, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseIdle, state.Phase)

	session, err := domain.NewSession(domain.KindWork, "Acme", 25, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	want := domain.State{Phase: domain.PhasePaused, Session: &session, RemainingSeconds: 600}
	require.NoError(t, store.Save(ctx, want))
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.PhasePaused, got.Phase)
	assert.Equal(t, 600, got.RemainingSeconds)
	require.NotNil(t, got.Session)
	assert.True(t, got.Session.StartedAt.Equal(session.StartedAt))
	assert.Equal(t, "Acme", got.Session.Project)
}

func TestFileStateStore_CorruptSnapshotFallsBackToIdle(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "timer-state.json")
	store := timerout.NewFileStateStore(path)

	require.NoError(t, os.WriteFile(path, []byte(`{"phase":"running","activeSession":null}`), 0o644))
	state, err := store.Load(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.Equal(t, domain.IdleState(), state)

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
}
