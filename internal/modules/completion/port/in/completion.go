package in

import (
	"context"

	timerdomain "pomodoro/internal/modules/timer/domain"
)

type Usecase interface {
	Complete(ctx context.Context, session timerdomain.Session)
	CancelPending()
}
