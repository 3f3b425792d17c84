package out

import (
	"context"

	"pomodoro/internal/modules/settings/domain"
)

type Store interface {
	Load(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, settings domain.Settings) error
}
