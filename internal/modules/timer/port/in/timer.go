package in

import (
	"context"

	"pomodoro/internal/modules/timer/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Reset(ctx context.Context) error
	Status(ctx context.Context) dto.Status
	SetAutoStart(ctx context.Context, enabled bool) error
}
