package domain

import (
	settingsdomain "pomodoro/internal/modules/settings/domain"
	timerdomain "pomodoro/internal/modules/timer/domain"
)

// Next is the session chained after a completion.
type Next struct {
	Kind    timerdomain.Kind `json:"type"`
	Project string           `json:"project,omitempty"`
	Minutes int              `json:"duration"`
}

// Plan decides what follows a completed session. Work always chains into a
// break; a break chains into work only with auto-start on and a known
// project to work on.
func Plan(completed timerdomain.Session, prefs settingsdomain.Settings) (Next, bool) {
	next := Next{Kind: completed.Kind.Opposite()}
	if completed.Kind == timerdomain.KindWork {
		next.Minutes = minutesOr(prefs.BreakMinutes, settingsdomain.DefaultBreakMinutes)
		return next, true
	}
	if !prefs.AutoStartEnabled || prefs.LastProject == "" {
		return Next{}, false
	}
	next.Minutes = minutesOr(prefs.WorkMinutes, settingsdomain.DefaultWorkMinutes)
	next.Project = prefs.LastProject
	return next, true
}

func minutesOr(m, fallback int) int {
	if m <= 0 || m > settingsdomain.MaxSessionMinutes {
		return fallback
	}
	return m
}
