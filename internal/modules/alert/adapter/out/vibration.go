package out

import (
	"context"

	"pomodoro/internal/modules/alert/domain"
	"pomodoro/internal/platform/bus"
)

const EventVibrate = "vibrate"

type VibrationChannel struct {
	publisher bus.Publisher
}

func NewVibrationChannel(publisher bus.Publisher) *VibrationChannel {
	return &VibrationChannel{publisher: publisher}
}

func (v *VibrationChannel) Name() string { return domain.ChannelVibration }

func (v *VibrationChannel) Fire(_ context.Context, alert domain.Alert, _ domain.Options) error {
	return publish(v.publisher, EventVibrate, map[string]any{"pattern": domain.VibrationPattern(alert.Kind)})
}
