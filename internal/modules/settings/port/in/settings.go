package in

import (
	"context"

	"pomodoro/internal/modules/settings/domain"
	"pomodoro/internal/modules/settings/dto"
)

type Usecase interface {
	Get(ctx context.Context) domain.Settings
	Update(ctx context.Context, input dto.UpdateInput) (domain.Settings, error)
	SetAlert(ctx context.Context, input dto.AlertInput) (domain.Settings, error)
	ResetAlerts(ctx context.Context) (domain.Settings, error)
}
