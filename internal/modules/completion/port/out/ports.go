package out

import (
	"context"

	alertdomain "pomodoro/internal/modules/alert/domain"
	historydomain "pomodoro/internal/modules/history/domain"
	historydto "pomodoro/internal/modules/history/dto"
	settingsdomain "pomodoro/internal/modules/settings/domain"
	timerdomain "pomodoro/internal/modules/timer/domain"
)

type Alerter interface {
	Notify(ctx context.Context, alert alertdomain.Alert) alertdomain.Report
}

type Recorder interface {
	Record(ctx context.Context, input historydto.RecordInput) (historydomain.SessionRecord, error)
}

type SettingsReader interface {
	Get(ctx context.Context) settingsdomain.Settings
}

// Starter re-arms the timer with the chained session.
type Starter interface {
	Start(ctx context.Context, kind timerdomain.Kind, project string, minutes int) (timerdomain.Session, error)
}
