package out

import (
	"context"

	"pomodoro/internal/modules/alert/domain"
)

// Channel is one presentation mechanism. Fire must honour ctx cancellation.
type Channel interface {
	Name() string
	Fire(ctx context.Context, alert domain.Alert, opts domain.Options) error
}

// Canceler is implemented by channels that keep running after Fire returns.
type Canceler interface {
	CancelPending()
}
