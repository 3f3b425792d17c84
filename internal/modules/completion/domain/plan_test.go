package domain

import (
	"testing"
	"time"

	settingsdomain "pomodoro/internal/modules/settings/domain"
	timerdomain "pomodoro/internal/modules/timer/domain"
)

func session(t *testing.T, kind timerdomain.Kind, project string) timerdomain.Session {
	t.Helper()
	s, err := timerdomain.NewSession(kind, project, 25, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func TestPlanWorkAlwaysChainsIntoBreak(t *testing.T) {
	t.Parallel()
	for _, autoStart := range []bool{true, false} {
		prefs := settingsdomain.Default()
		prefs.AutoStartEnabled = autoStart
		prefs.BreakMinutes = 10
		next, ok := Plan(session(t, timerdomain.KindWork, "Acme"), prefs)
		if !ok {
			t.Fatalf("autoStart=%v: work did not chain", autoStart)
		}
		if next.Kind != timerdomain.KindBreak || next.Minutes != 10 || next.Project != "" {
			t.Fatalf("autoStart=%v: unexpected next %+v", autoStart, next)
		}
	}
}

func TestPlanBreakChainsOnlyWithAutoStart(t *testing.T) {
	t.Parallel()
	prefs := settingsdomain.Default()
	prefs.LastProject = "Acme"
	prefs.WorkMinutes = 50

	next, ok := Plan(session(t, timerdomain.KindBreak, ""), prefs)
	if !ok {
		t.Fatalf("break with auto-start did not chain")
	}
	if next.Kind != timerdomain.KindWork || next.Project != "Acme" || next.Minutes != 50 {
		t.Fatalf("unexpected next %+v", next)
	}

	prefs.AutoStartEnabled = false
	if _, ok := Plan(session(t, timerdomain.KindBreak, ""), prefs); ok {
		t.Fatalf("break chained with auto-start off")
	}
}

func TestPlanBreakWithoutProjectStops(t *testing.T) {
	t.Parallel()
	prefs := settingsdomain.Default()
	if _, ok := Plan(session(t, timerdomain.KindBreak, ""), prefs); ok {
		t.Fatalf("chained into work without a project")
	}
}

func TestPlanFallsBackToDefaultDurations(t *testing.T) {
	t.Parallel()
	prefs := settingsdomain.Default()
	prefs.BreakMinutes = 0
	next, _ := Plan(session(t, timerdomain.KindWork, "Acme"), prefs)
	if next.Minutes != settingsdomain.DefaultBreakMinutes {
		t.Fatalf("expected default break minutes, got %d", next.Minutes)
	}
}
