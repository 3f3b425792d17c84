package dto

import "pomodoro/internal/modules/timer/domain"

// StartInput carries a start command. Type and Duration use the wire names.
type StartInput struct {
	Duration int    `json:"duration"`
	Type     string `json:"type"`
	Project  string `json:"project"`
}

type AutoStartInput struct {
	Enabled bool `json:"enabled"`
}

// Tick is broadcast on every state change and every loop interval.
type Tick struct {
	RemainingSeconds int             `json:"remainingSeconds"`
	Phase            domain.Phase    `json:"phase"`
	ActiveSession    *domain.Session `json:"activeSession"`
}

// Status is the read model polled by UI surfaces.
type Status struct {
	Phase            domain.Phase    `json:"phase"`
	RemainingSeconds int             `json:"remainingSeconds"`
	ActiveSession    *domain.Session `json:"activeSession"`
	AutoStartEnabled bool            `json:"autoStartEnabled"`
	LastProject      string          `json:"lastProject"`
	Badge            domain.Badge    `json:"badge"`
}

// IsRunning reports whether the remaining time is moving.
func (s Status) IsRunning() bool { return s.Phase == domain.PhaseRunning }
