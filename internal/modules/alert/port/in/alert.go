package in

import (
	"context"

	"pomodoro/internal/modules/alert/domain"
)

type Usecase interface {
	Notify(ctx context.Context, alert domain.Alert) domain.Report
	Test(ctx context.Context) domain.Report
	CancelPending()
}

// NotificationActions resolves clicks on shown notifications.
type NotificationActions interface {
	Act(id, action string) (string, error)
	Dismiss(id string) bool
	Active() []domain.Notification
}
