package in

import (
	"context"
	"encoding/json"

	"pomodoro/internal/modules/settings/dto"
	settingsin "pomodoro/internal/modules/settings/port/in"
	"pomodoro/internal/platform/bus"
)

const (
	ActionGetSettings        = "getSettings"
	ActionUpdateSettings     = "updateSettings"
	ActionGetAlertSettings   = "getAlertSettings"
	ActionUpdateAlertSetting = "updateAlertSetting"
	ActionResetAlertSettings = "resetAlertSettings"
)

type BusHandler struct {
	usecase settingsin.Usecase
}

func NewBusHandler(usecase settingsin.Usecase) BusHandler {
	return BusHandler{usecase: usecase}
}

func (h BusHandler) Register(b *bus.Bus) {
	b.Handle(ActionGetSettings, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return dto.ToView(h.usecase.Get(ctx)), nil
	})
	b.Handle(ActionUpdateSettings, func(ctx context.Context, params json.RawMessage) (any, error) {
		input, err := bus.Decode[dto.UpdateInput](params)
		if err != nil {
			return nil, err
		}
		updated, err := h.usecase.Update(ctx, input)
		if err != nil {
			return nil, err
		}
		return dto.ToView(updated), nil
	})
	b.Handle(ActionGetAlertSettings, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return h.usecase.Get(ctx).Alerts, nil
	})
	b.Handle(ActionUpdateAlertSetting, func(ctx context.Context, params json.RawMessage) (any, error) {
		input, err := bus.Decode[dto.AlertInput](params)
		if err != nil {
			return nil, err
		}
		updated, err := h.usecase.SetAlert(ctx, input)
		if err != nil {
			return nil, err
		}
		return updated.Alerts, nil
	})
	b.Handle(ActionResetAlertSettings, func(ctx context.Context, _ json.RawMessage) (any, error) {
		updated, err := h.usecase.ResetAlerts(ctx)
		if err != nil {
			return nil, err
		}
		return updated.Alerts, nil
	})
}
