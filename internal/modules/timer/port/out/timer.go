package out

import (
	"context"
	"time"

	settingsdomain "pomodoro/internal/modules/settings/domain"
	"pomodoro/internal/modules/timer/domain"
)

// StateStore persists the authoritative timer snapshot.
type StateStore interface {
	Load(ctx context.Context) (domain.State, error)
	Save(ctx context.Context, state domain.State) error
}

// Alarm holds at most one armed wake-up. Arming replaces the previous one.
type Alarm interface {
	Arm(after time.Duration, fire func())
	Cancel()
}

// Preferences is the slice of the settings store the timer reads and writes.
type Preferences interface {
	Get(ctx context.Context) settingsdomain.Settings
	SetAutoStart(ctx context.Context, enabled bool) (settingsdomain.Settings, error)
	SetLastProject(ctx context.Context, project string) error
}
