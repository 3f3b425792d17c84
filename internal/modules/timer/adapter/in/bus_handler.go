package in

import (
	"context"
	"encoding/json"

	"pomodoro/internal/modules/timer/dto"
	timerin "pomodoro/internal/modules/timer/port/in"
	"pomodoro/internal/platform/bus"
)

const (
	ActionStart        = "start"
	ActionPause        = "pause"
	ActionResume       = "resume"
	ActionReset        = "reset"
	ActionGetStatus    = "getStatus"
	ActionSetAutoStart = "setAutoStart"
)

type BusHandler struct {
	usecase timerin.Usecase
}

func NewBusHandler(usecase timerin.Usecase) BusHandler {
	return BusHandler{usecase: usecase}
}

func (h BusHandler) Register(b *bus.Bus) {
	b.Handle(ActionStart, func(ctx context.Context, params json.RawMessage) (any, error) {
		input, err := bus.Decode[dto.StartInput](params)
		if err != nil {
			return nil, err
		}
		return nil, h.usecase.Start(ctx, input)
	})
	b.Handle(ActionPause, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return nil, h.usecase.Pause(ctx)
	})
	b.Handle(ActionResume, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return nil, h.usecase.Resume(ctx)
	})
	b.Handle(ActionReset, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return nil, h.usecase.Reset(ctx)
	})
	b.Handle(ActionGetStatus, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return h.usecase.Status(ctx), nil
	})
	b.Handle(ActionSetAutoStart, func(ctx context.Context, params json.RawMessage) (any, error) {
		input, err := bus.Decode[dto.AutoStartInput](params)
		if err != nil {
			return nil, err
		}
		return nil, h.usecase.SetAutoStart(ctx, input.Enabled)
	})
}
