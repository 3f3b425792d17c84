package in

import (
	"context"
	"encoding/json"

	alertin "pomodoro/internal/modules/alert/port/in"
	"pomodoro/internal/platform/bus"
)

const (
	ActionTestAlerts          = "testAlerts"
	ActionNotificationAction  = "notificationAction"
	ActionDismissNotification = "dismissNotification"
	ActionNotifications       = "getNotifications"
)

type notificationParams struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

type BusHandler struct {
	usecase       alertin.Usecase
	notifications alertin.NotificationActions
}

func NewBusHandler(usecase alertin.Usecase, notifications alertin.NotificationActions) BusHandler {
	return BusHandler{usecase: usecase, notifications: notifications}
}

func (h BusHandler) Register(b *bus.Bus) {
	b.Handle(ActionTestAlerts, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return h.usecase.Test(ctx), nil
	})
	if h.notifications == nil {
		return
	}
	b.Handle(ActionNotificationAction, func(_ context.Context, params json.RawMessage) (any, error) {
		p, err := bus.Decode[notificationParams](params)
		if err != nil {
			return nil, err
		}
		event, err := h.notifications.Act(p.ID, p.Action)
		if err != nil {
			return nil, err
		}
		return map[string]string{"event": event}, nil
	})
	b.Handle(ActionDismissNotification, func(_ context.Context, params json.RawMessage) (any, error) {
		p, err := bus.Decode[notificationParams](params)
		if err != nil {
			return nil, err
		}
		return map[string]bool{"dismissed": h.notifications.Dismiss(p.ID)}, nil
	})
	b.Handle(ActionNotifications, func(_ context.Context, _ json.RawMessage) (any, error) {
		return h.notifications.Active(), nil
	})
}
