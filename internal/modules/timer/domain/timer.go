package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "pomodoro/internal/platform/errors"
)

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseRunning Phase = "running"
	PhasePaused  Phase = "paused"
)

type Kind string

const (
	KindWork  Kind = "work"
	KindBreak Kind = "break"
)

func (k Kind) Valid() bool { return k == KindWork || k == KindBreak }

func (k Kind) Opposite() Kind {
	if k == KindWork {
		return KindBreak
	}
	return KindWork
}

// ParseKind accepts the wire names and their capitalised forms.
func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	if !k.Valid() {
		return "", apperrors.Invalid("type", fmt.Sprintf("must be work or break, got %q", raw))
	}
	return k, nil
}

const MaxMinutes = 240

// Session is the single active interval. Resuming replaces it with a new
// Session whose planned duration is the remaining time.
type Session struct {
	Kind                   Kind      `json:"type"`
	Project                string    `json:"project,omitempty"`
	DurationMinutes        int       `json:"duration"`
	PlannedDurationSeconds int       `json:"plannedDurationSeconds"`
	StartedAt              time.Time `json:"startedAt"`
}

// NewSession validates a start command.
func NewSession(kind Kind, project string, minutes int, now time.Time) (Session, error) {
	if !kind.Valid() {
		return Session{}, apperrors.Invalid("type", fmt.Sprintf("must be work or break, got %q", kind))
	}
	if minutes <= 0 {
		return Session{}, apperrors.Invalid("duration", "must be a positive number of minutes")
	}
	if minutes > MaxMinutes {
		return Session{}, apperrors.Invalid("duration", "must be at most "+strconv.Itoa(MaxMinutes)+" minutes")
	}
	project = strings.TrimSpace(project)
	if kind == KindWork && project == "" {
		return Session{}, apperrors.Invalid("project", "is required for work sessions")
	}
	if kind == KindBreak {
		project = ""
	}
	return Session{
		Kind:                   kind,
		Project:                project,
		DurationMinutes:        minutes,
		PlannedDurationSeconds: minutes * 60,
		StartedAt:              now,
	}, nil
}

// Remaining is the time left at now, derived from the start timestamp.
func (s Session) Remaining(now time.Time) time.Duration {
	left := time.Duration(s.PlannedDurationSeconds)*time.Second - now.Sub(s.StartedAt)
	if left < 0 {
		return 0
	}
	return left
}

// RemainingSeconds floors the elapsed time, so a fresh session reports its
// full planned duration.
func (s Session) RemainingSeconds(now time.Time) int {
	elapsed := int(now.Sub(s.StartedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	return max(0, s.PlannedDurationSeconds-elapsed)
}

// EndsAt is when the session runs out, or the zero time for an unstarted
// session.
func (s Session) EndsAt() time.Time {
	if s.StartedAt.IsZero() {
		return time.Time{}
	}
	return s.StartedAt.Add(time.Duration(s.PlannedDurationSeconds) * time.Second)
}

func (s Session) Resumed(remainingSeconds int, now time.Time) Session {
	next := s
	next.PlannedDurationSeconds = remainingSeconds
	next.StartedAt = now
	return next
}

// State is the authoritative timer snapshot. RemainingSeconds is only
// trusted while Paused; while Running it is derived from Session.
type State struct {
	Phase            Phase    `json:"phase"`
	Session          *Session `json:"activeSession"`
	RemainingSeconds int      `json:"remainingSeconds"`
}

func IdleState() State {
	return State{Phase: PhaseIdle}
}

// Valid reports whether the snapshot satisfies the phase/session invariant.
func (s State) Valid() bool {
	switch s.Phase {
	case PhaseIdle:
		return s.Session == nil
	case PhaseRunning, PhasePaused:
		return s.Session != nil && s.Session.Kind.Valid() && s.RemainingSeconds >= 0
	}
	return false
}

// View derives the presented remaining time at now.
func (s State) View(now time.Time) State {
	out := s
	if s.Session != nil {
		copied := *s.Session
		out.Session = &copied
	}
	switch s.Phase {
	case PhaseRunning:
		out.RemainingSeconds = s.Session.RemainingSeconds(now)
	case PhaseIdle:
		out.RemainingSeconds = 0
	}
	return out
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
