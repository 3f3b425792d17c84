package out

import (
	"context"

	settingsdomain "pomodoro/internal/modules/settings/domain"
)

type SettingsReader interface {
	Get(ctx context.Context) settingsdomain.Settings
}
